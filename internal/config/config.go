package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Constants inherited from the original platform. Neither value is derived
// from anything measurable here; treat them as product decisions.
const (
	// CompletionThresholdPercent is the enrollment progress at which a course
	// counts as completed.
	CompletionThresholdPercent = 95.0

	// ReflectionFramesPerSecond converts frame numbers reported by the video
	// player into seconds for reflection timestamps.
	ReflectionFramesPerSecond = 30

	// ActivityPreviewMaxLen caps the denormalized content preview stored on
	// activity records, in runes.
	ActivityPreviewMaxLen = 150
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	GeminiAPIKey string
	GeminiModel  string

	RateLimitReflection time.Duration
	RateLimitAIChat     time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "studyloop"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
	}

	var err error
	cfg.RateLimitReflection, err = time.ParseDuration(getEnv("RATE_LIMIT_REFLECTION", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFLECTION: %w", err)
	}
	cfg.RateLimitAIChat, err = time.ParseDuration(getEnv("RATE_LIMIT_AI_CHAT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_AI_CHAT: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
