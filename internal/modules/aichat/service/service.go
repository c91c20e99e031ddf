package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	aichatProvider "github.com/studyloop/backend/internal/modules/aichat/provider"
	aichatRepo "github.com/studyloop/backend/internal/modules/aichat/repository"
	"github.com/studyloop/backend/internal/entity"
	activityService "github.com/studyloop/backend/internal/modules/activity/service"
	courseRepo "github.com/studyloop/backend/internal/modules/course/repository"
	"github.com/studyloop/backend/pkg/apperror"
	"github.com/studyloop/backend/pkg/ratelimiter"
)

const rateLimitAction = "ai_chat"

type AIChatService interface {
	// Ask answers a learner question in the context of a video, persists
	// the exchange and projects it to the activity feed.
	Ask(ctx context.Context, userID uuid.UUID, videoID *uuid.UUID, question string) (*entity.VideoAIConversation, error)
	History(userID uuid.UUID, videoID *uuid.UUID, page, limit int) ([]entity.VideoAIConversation, int64, error)
}

type aiChatService struct {
	repo        aichatRepo.AIChatRepository
	courses     courseRepo.CourseRepository
	provider    aichatProvider.AnswerProvider
	activities  activityService.ActivityService
	redisClient *redis.Client
	cooldown    time.Duration
}

func NewAIChatService(
	repo aichatRepo.AIChatRepository,
	courses courseRepo.CourseRepository,
	provider aichatProvider.AnswerProvider,
	activities activityService.ActivityService,
	redisClient *redis.Client,
	cooldown time.Duration,
) AIChatService {
	return &aiChatService{
		repo:        repo,
		courses:     courses,
		provider:    provider,
		activities:  activities,
		redisClient: redisClient,
		cooldown:    cooldown,
	}
}

func (s *aiChatService) Ask(ctx context.Context, userID uuid.UUID, videoID *uuid.UUID, question string) (*entity.VideoAIConversation, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: AI assistant is not configured", apperror.ErrUnavailable)
	}

	allowed, err := ratelimiter.CheckAndSet(ctx, s.redisClient, userID, rateLimitAction, s.cooldown)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := ratelimiter.TTL(ctx, s.redisClient, userID, rateLimitAction)
		return nil, &ratelimiter.RateLimitError{
			Message:    fmt.Sprintf("you are asking too fast. Please wait %.0f seconds", ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	answer, err := s.provider.GenerateText(ctx, s.buildPrompt(videoID, question))
	if err != nil {
		_ = ratelimiter.Clear(ctx, s.redisClient, userID, rateLimitAction)
		return nil, fmt.Errorf("%w: %v", apperror.ErrUnavailable, err)
	}

	conv := &entity.VideoAIConversation{
		UserID:   userID,
		VideoID:  videoID,
		Question: question,
		Answer:   answer,
	}
	if err := s.repo.Create(conv); err != nil {
		return nil, err
	}

	if s.activities != nil {
		if err := s.activities.ProjectAIChat(ctx, conv); err != nil {
			log.Printf("❌ aichat: failed to project conversation %s: %v", conv.ID, err)
		}
	}

	return conv, nil
}

// buildPrompt anchors the question to the video so answers stay on topic.
func (s *aiChatService) buildPrompt(videoID *uuid.UUID, question string) string {
	context := "You are a study assistant for an online learning platform. Answer concisely and practically."
	if videoID != nil && s.courses != nil {
		if video, err := s.courses.FindVideo(*videoID); err == nil {
			context = fmt.Sprintf("%s The learner is watching the lesson %q.", context, video.Title)
		}
	}
	return fmt.Sprintf("%s\n\nQuestion: %s", context, question)
}

func (s *aiChatService) History(userID uuid.UUID, videoID *uuid.UUID, page, limit int) ([]entity.VideoAIConversation, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	if videoID != nil {
		return s.repo.ListByUserAndVideo(userID, *videoID, limit, offset)
	}
	return s.repo.ListByUser(userID, limit, offset)
}
