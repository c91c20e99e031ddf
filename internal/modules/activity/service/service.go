package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/studyloop/backend/internal/entity"
	activityRepo "github.com/studyloop/backend/internal/modules/activity/repository"
	"github.com/studyloop/backend/pkg/dto"
)

// ActivityService owns the unified activity feed. The Project* methods
// translate source events into feed records; each is idempotent, so a
// caller retrying after a partial failure cannot duplicate an entry.
// Projection is invoked after the source row is committed and callers
// treat failures as non-fatal.
type ActivityService interface {
	ProjectReflection(ctx context.Context, r *entity.Reflection) error
	ProjectQuizAttempt(ctx context.Context, attempt *entity.QuizAttempt) error
	ProjectAIChat(ctx context.Context, conv *entity.VideoAIConversation) error
	ProjectMessage(ctx context.Context, m *entity.ConversationMessage, publishedAt time.Time) error
	ProjectCompletion(ctx context.Context, e *entity.Enrollment, completedAt time.Time) error
	ProjectGoalTransition(ctx context.Context, userID uuid.UUID, kind string, goalID uuid.UUID, at time.Time) error

	GetMyFeed(userID uuid.UUID, filter dto.ActivityFilter) (*dto.PaginatedActivityResponse, error)
	GetPublicFeed(filter dto.ActivityFilter) (*dto.PaginatedActivityResponse, error)
	GetUserFeed(viewerID, targetID uuid.UUID, filter dto.ActivityFilter) (*dto.PaginatedActivityResponse, error)
}

type activityService struct {
	repo        activityRepo.ActivityRepository
	redisClient *redis.Client
}

func NewActivityService(repo activityRepo.ActivityRepository, redisClient *redis.Client) ActivityService {
	return &activityService{
		repo:        repo,
		redisClient: redisClient,
	}
}

var reflectionActivityKinds = map[string]string{
	entity.ReflectionKindText:       entity.ActivityKindReflectionText,
	entity.ReflectionKindScreenshot: entity.ActivityKindReflectionScreenshot,
	entity.ReflectionKindVoice:      entity.ActivityKindReflectionVoice,
	entity.ReflectionKindLoom:       entity.ActivityKindReflectionLoom,
}

func (s *activityService) ProjectReflection(ctx context.Context, r *entity.Reflection) error {
	kind, ok := reflectionActivityKinds[r.Kind]
	if !ok {
		return fmt.Errorf("unknown reflection kind %q", r.Kind)
	}

	record := entity.NewReflectionActivity(r, kind)
	record.ContentPreview = reflectionPreview(r)
	if r.VideoID != nil {
		if video, err := s.repo.FindVideo(*r.VideoID); err == nil {
			record.VideoTitle = &video.Title
		} else {
			log.Printf("❌ activity: video lookup failed for reflection %s: %v", r.ID, err)
		}
	}
	s.stampGoalContext(record)

	return s.append(ctx, record)
}

func (s *activityService) ProjectQuizAttempt(ctx context.Context, attempt *entity.QuizAttempt) error {
	record := entity.NewQuizActivity(attempt)
	record.ContentPreview = quizPreview(attempt)

	if quiz, err := s.repo.FindQuiz(attempt.QuizID); err == nil {
		if video, err := s.repo.FindVideo(quiz.VideoID); err == nil {
			record.VideoTitle = &video.Title
		}
	} else {
		log.Printf("❌ activity: quiz lookup failed for attempt %s: %v", attempt.ID, err)
	}
	s.stampGoalContext(record)

	return s.append(ctx, record)
}

func (s *activityService) ProjectAIChat(ctx context.Context, conv *entity.VideoAIConversation) error {
	record := entity.NewAIChatActivity(conv)
	record.ContentPreview = aiChatPreview(conv)
	if conv.VideoID != nil {
		if video, err := s.repo.FindVideo(*conv.VideoID); err == nil {
			record.VideoTitle = &video.Title
		}
	}
	s.stampGoalContext(record)

	return s.append(ctx, record)
}

func (s *activityService) ProjectMessage(ctx context.Context, m *entity.ConversationMessage, publishedAt time.Time) error {
	if m.IsDraft {
		return fmt.Errorf("draft message %s cannot be projected", m.ID)
	}
	if m.Type != entity.MessageTypeDailyNote && m.Type != entity.MessageTypeRevenueProof {
		return fmt.Errorf("message type %q is not projectable", m.Type)
	}

	record := entity.NewMessageActivity(m, publishedAt)
	record.ContentPreview = buildPreview(m.Body)
	s.stampGoalContext(record)

	return s.append(ctx, record)
}

func (s *activityService) ProjectCompletion(ctx context.Context, e *entity.Enrollment, completedAt time.Time) error {
	record := entity.NewCompletionActivity(e, completedAt)

	var courseTitle *string
	if course, err := s.repo.FindCourse(e.CourseID); err == nil {
		courseTitle = &course.Title
	} else {
		log.Printf("❌ activity: course lookup failed for enrollment %s: %v", e.ID, err)
	}
	record.CourseTitle = courseTitle
	record.ContentPreview = completionPreview(courseTitle)
	s.stampGoalContext(record)

	return s.append(ctx, record)
}

func (s *activityService) ProjectGoalTransition(ctx context.Context, userID uuid.UUID, kind string, goalID uuid.UUID, at time.Time) error {
	if kind != entity.ActivityKindGoalAchieved && kind != entity.ActivityKindNewGoalStarted {
		return fmt.Errorf("kind %q is not a goal transition", kind)
	}

	record := entity.NewGoalTransitionActivity(userID, kind, goalID, at)
	var goalTitle *string
	if goal, err := s.repo.FindGoal(goalID); err == nil {
		goalTitle = &goal.Title
	}
	record.GoalTitle = goalTitle
	record.ContentPreview = goalTransitionPreview(kind, goalTitle)

	return s.append(ctx, record)
}

// stampGoalContext snapshots the user's current goal onto the record so the
// feed can group entries by the goal the work was done under. Lookup
// failures leave the context empty.
func (s *activityService) stampGoalContext(record *entity.ActivityRecord) {
	profile, err := s.repo.FindProfile(record.UserID)
	if err != nil || profile.CurrentGoalID == nil {
		return
	}
	goalID := *profile.CurrentGoalID
	record.GoalID = &goalID
	if goal, err := s.repo.FindGoal(goalID); err == nil {
		record.GoalTitle = &goal.Title
	}
}

func (s *activityService) append(ctx context.Context, record *entity.ActivityRecord) error {
	created, err := s.repo.Append(record)
	if err != nil {
		return err
	}
	if !created {
		// Already projected; a replay is a no-op.
		return nil
	}

	s.publish(ctx, record)
	return nil
}

// publish pushes the fresh record to the owner's live feed channel and,
// for public records, to the shared public channel.
func (s *activityService) publish(ctx context.Context, record *entity.ActivityRecord) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return
	}

	channel := fmt.Sprintf("activity_feed:%s", record.UserID.String())
	s.redisClient.Publish(ctx, channel, payload)
	if record.Visibility == entity.VisibilityPublic {
		s.redisClient.Publish(ctx, "activity_feed:public", payload)
	}
}

func (s *activityService) GetMyFeed(userID uuid.UUID, filter dto.ActivityFilter) (*dto.PaginatedActivityResponse, error) {
	records, total, err := s.repo.ListForUser(userID, filter)
	if err != nil {
		return nil, err
	}
	return paginatedResponse(records, total, filter), nil
}

func (s *activityService) GetPublicFeed(filter dto.ActivityFilter) (*dto.PaginatedActivityResponse, error) {
	records, total, err := s.repo.ListPublic(filter)
	if err != nil {
		return nil, err
	}
	return paginatedResponse(records, total, filter), nil
}

// GetUserFeed returns another user's feed. Owners see everything; everyone
// else sees only public entries.
func (s *activityService) GetUserFeed(viewerID, targetID uuid.UUID, filter dto.ActivityFilter) (*dto.PaginatedActivityResponse, error) {
	if viewerID == targetID {
		return s.GetMyFeed(targetID, filter)
	}

	records, total, err := s.repo.ListPublicForUser(targetID, filter)
	if err != nil {
		return nil, err
	}
	return paginatedResponse(records, total, filter), nil
}

func paginatedResponse(records []entity.ActivityRecord, total int64, filter dto.ActivityFilter) *dto.PaginatedActivityResponse {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	items := make([]dto.ActivityResponse, 0, len(records))
	for i := range records {
		items = append(items, toActivityResponse(&records[i]))
	}

	return &dto.PaginatedActivityResponse{
		Data: items,
		Meta: dto.NewPaginationMeta(page, limit, total),
	}
}

func toActivityResponse(record *entity.ActivityRecord) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:   record.ID,
		Kind: record.Kind,
		Author: dto.AuthorResponse{
			Username:  record.User.Username,
			AvatarURL: record.User.AvatarURL,
		},
		ContentPreview:    record.ContentPreview,
		VideoTitle:        record.VideoTitle,
		CourseTitle:       record.CourseTitle,
		GoalTitle:         record.GoalTitle,
		VideoTimestampSec: record.VideoTimestampSec,
		Visibility:        record.Visibility,
		CreatedAt:         record.CreatedAt,
	}
}
