package main

import (
	"log"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/config"
	"github.com/studyloop/backend/internal/entity"
	"github.com/studyloop/backend/internal/server"
	"github.com/studyloop/backend/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := seedRoles(db); err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}
	if cfg.AppEnv == "development" {
		if err := seedAdminUser(db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	redisClient := connectRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, db, redisClient)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// connectRedis returns nil when Redis is unreachable or unconfigured; live
// feed and rate limiting degrade gracefully without it.
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("⚠️ REDIS_URL not set, live features disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("⚠️ Invalid REDIS_URL, live features disabled: %v", err)
		return nil
	}

	return redis.NewClient(opts)
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Profile{},
		&entity.Track{},
		&entity.Goal{},
		&entity.TrackAssignment{},
		&entity.Course{},
		&entity.Video{},
		&entity.Enrollment{},
		&entity.Reflection{},
		&entity.Quiz{},
		&entity.QuizAttempt{},
		&entity.VideoAIConversation{},
		&entity.Conversation{},
		&entity.ConversationMessage{},
		&entity.Resource{},
		&entity.Attachment{},
		&entity.ActivityRecord{},
	)
}

func seedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Platform administrator"},
		{Name: entity.RoleInstructor, Description: "Course instructor"},
		{Name: entity.RoleStudent, Description: "Learner"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func seedAdminUser(db *gorm.DB) error {
	var adminRole entity.Role
	if err := db.Where("name = ?", entity.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", "admin@studyloop.dev").
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := entity.User{
		Username:     "admin",
		Email:        "admin@studyloop.dev",
		PasswordHash: string(hashed),
		RoleID:       &adminRole.ID,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	adminProfile := entity.Profile{
		UserID:   adminUser.ID,
		FullName: "Administrator",
	}
	if err := db.Create(&adminProfile).Error; err != nil {
		return err
	}

	log.Println("✅ Admin user seeded (admin@studyloop.dev / admin123)")
	return nil
}
