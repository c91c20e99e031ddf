package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/config"
	"github.com/studyloop/backend/internal/entity"
	activityService "github.com/studyloop/backend/internal/modules/activity/service"
	reflectionDto "github.com/studyloop/backend/internal/modules/reflection/dto"
	reflectionRepo "github.com/studyloop/backend/internal/modules/reflection/repository"
	"github.com/studyloop/backend/pkg/apperror"
	commonDto "github.com/studyloop/backend/pkg/dto"
	"github.com/studyloop/backend/pkg/ratelimiter"
	"github.com/studyloop/backend/pkg/storage"
)

const rateLimitAction = "reflection"

type ReflectionService interface {
	CreateReflection(ctx context.Context, userID uuid.UUID, req reflectionDto.CreateReflectionRequest, file *multipart.FileHeader) (*reflectionDto.ReflectionResponse, error)
	ListMyReflections(userID uuid.UUID, page, limit int) ([]reflectionDto.ReflectionResponse, int64, error)
	ListVideoReflections(userID, videoID uuid.UUID) ([]reflectionDto.ReflectionResponse, error)
	ListReviewQueue(page, limit int) ([]reflectionDto.ReflectionResponse, int64, error)
	MarkReviewed(reviewerID, reflectionID uuid.UUID) error
}

type reflectionService struct {
	repo        reflectionRepo.ReflectionRepository
	media       storage.MediaStorage
	activities  activityService.ActivityService
	redisClient *redis.Client
	cooldown    time.Duration
}

func NewReflectionService(
	repo reflectionRepo.ReflectionRepository,
	media storage.MediaStorage,
	activities activityService.ActivityService,
	redisClient *redis.Client,
	cooldown time.Duration,
) ReflectionService {
	return &reflectionService{
		repo:        repo,
		media:       media,
		activities:  activities,
		redisClient: redisClient,
		cooldown:    cooldown,
	}
}

func (s *reflectionService) CreateReflection(ctx context.Context, userID uuid.UUID, req reflectionDto.CreateReflectionRequest, file *multipart.FileHeader) (*reflectionDto.ReflectionResponse, error) {
	if err := validateKindPayload(req, file); err != nil {
		return nil, err
	}

	allowed, err := ratelimiter.CheckAndSet(ctx, s.redisClient, userID, rateLimitAction, s.cooldown)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := ratelimiter.TTL(ctx, s.redisClient, userID, rateLimitAction)
		return nil, &ratelimiter.RateLimitError{
			Message:    fmt.Sprintf("you are reflecting too fast. Please wait %.0f seconds", ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	reflection, err := s.buildReflection(ctx, userID, req, file)
	if err != nil {
		_ = ratelimiter.Clear(ctx, s.redisClient, userID, rateLimitAction)
		return nil, err
	}

	if err := s.repo.Create(reflection); err != nil {
		_ = ratelimiter.Clear(ctx, s.redisClient, userID, rateLimitAction)
		return nil, err
	}

	// Projection is best effort. The reflection row is committed; a missed
	// feed entry heals on the next replay because the projector is idempotent.
	if s.activities != nil {
		if err := s.activities.ProjectReflection(ctx, reflection); err != nil {
			log.Printf("❌ reflection: failed to project reflection %s: %v", reflection.ID, err)
		}
	}

	resp := toReflectionResponse(reflection)
	return &resp, nil
}

func validateKindPayload(req reflectionDto.CreateReflectionRequest, file *multipart.FileHeader) error {
	switch req.Kind {
	case entity.ReflectionKindText:
		if req.Content == "" {
			return fmt.Errorf("%w: text reflection needs content", apperror.ErrInvalidInput)
		}
	case entity.ReflectionKindScreenshot, entity.ReflectionKindVoice:
		if file == nil {
			return fmt.Errorf("%w: %s reflection needs a file", apperror.ErrInvalidInput, req.Kind)
		}
	case entity.ReflectionKindLoom:
		if req.LoomURL == "" {
			return fmt.Errorf("%w: loom reflection needs loom_url", apperror.ErrInvalidInput)
		}
	}
	return nil
}

func (s *reflectionService) buildReflection(ctx context.Context, userID uuid.UUID, req reflectionDto.CreateReflectionRequest, file *multipart.FileHeader) (*entity.Reflection, error) {
	reflection := &entity.Reflection{
		UserID:            userID,
		Kind:              req.Kind,
		Content:           req.Content,
		VideoTimestampSec: resolveTimestamp(req),
	}

	if req.VideoID != "" {
		videoID, err := uuid.Parse(req.VideoID)
		if err != nil {
			return nil, apperror.ErrBadRequest
		}
		reflection.VideoID = &videoID
	}

	switch req.Kind {
	case entity.ReflectionKindScreenshot:
		fileURL, err := s.uploadAsset(ctx, file, true)
		if err != nil {
			return nil, err
		}
		reflection.FileURL = &fileURL
	case entity.ReflectionKindVoice:
		fileURL, err := s.uploadAsset(ctx, file, false)
		if err != nil {
			return nil, err
		}
		reflection.FileURL = &fileURL
	case entity.ReflectionKindLoom:
		loomURL := req.LoomURL
		reflection.FileURL = &loomURL
	}

	return reflection, nil
}

// resolveTimestamp prefers an explicit seconds value and falls back to
// converting the player's raw frame number.
func resolveTimestamp(req reflectionDto.CreateReflectionRequest) *int {
	if req.TimestampSec != nil {
		return req.TimestampSec
	}
	if req.TimestampFrames != nil {
		sec := *req.TimestampFrames / config.ReflectionFramesPerSecond
		return &sec
	}
	return nil
}

func (s *reflectionService) uploadAsset(ctx context.Context, file *multipart.FileHeader, isImage bool) (string, error) {
	if s.media == nil {
		return "", fmt.Errorf("%w: media storage is not configured", apperror.ErrUnavailable)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	if isImage {
		return s.media.UploadImage(ctx, src, "reflections", file.Filename)
	}
	return s.media.UploadFile(ctx, src, "reflections", file.Filename)
}

func (s *reflectionService) ListMyReflections(userID uuid.UUID, page, limit int) ([]reflectionDto.ReflectionResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	reflections, total, err := s.repo.ListByUser(userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return toReflectionResponses(reflections), total, nil
}

func (s *reflectionService) ListVideoReflections(userID, videoID uuid.UUID) ([]reflectionDto.ReflectionResponse, error) {
	reflections, err := s.repo.ListByVideo(videoID, userID)
	if err != nil {
		return nil, err
	}
	return toReflectionResponses(reflections), nil
}

func (s *reflectionService) ListReviewQueue(page, limit int) ([]reflectionDto.ReflectionResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	reflections, total, err := s.repo.ListUnreviewed(limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return toReflectionResponses(reflections), total, nil
}

func (s *reflectionService) MarkReviewed(reviewerID, reflectionID uuid.UUID) error {
	err := s.repo.MarkReviewed(reflectionID, reviewerID, time.Now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: reflection not found or already reviewed", apperror.ErrNotFound)
	}
	return err
}

func toReflectionResponses(reflections []entity.Reflection) []reflectionDto.ReflectionResponse {
	responses := make([]reflectionDto.ReflectionResponse, 0, len(reflections))
	for i := range reflections {
		responses = append(responses, toReflectionResponse(&reflections[i]))
	}
	return responses
}

func toReflectionResponse(r *entity.Reflection) reflectionDto.ReflectionResponse {
	resp := reflectionDto.ReflectionResponse{
		ID:                r.ID,
		Kind:              r.Kind,
		Content:           r.Content,
		VideoID:           r.VideoID,
		VideoTimestampSec: r.VideoTimestampSec,
		FileURL:           r.FileURL,
		ReviewedAt:        r.ReviewedAt,
		CreatedAt:         r.CreatedAt,
	}
	if r.Video != nil {
		resp.VideoTitle = r.Video.Title
	}
	if r.User.Username != "" {
		resp.Author = commonDto.AuthorResponse{
			Username:  r.User.Username,
			AvatarURL: r.User.AvatarURL,
		}
	}
	return resp
}
