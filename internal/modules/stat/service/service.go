package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	goalRepo "github.com/studyloop/backend/internal/modules/goal/repository"
	statRepo "github.com/studyloop/backend/internal/modules/stat/repository"
)

type PlatformTotals struct {
	TotalUsers       int64 `json:"total_users"`
	TotalCourses     int64 `json:"total_courses"`
	TotalEnrollments int64 `json:"total_enrollments"`
	TotalActivities  int64 `json:"total_activities"`
}

// GoalProgress summarizes a learner's goal history and the work they have
// logged since the current goal was picked up.
type GoalProgress struct {
	CurrentGoalID      *uuid.UUID       `json:"current_goal_id,omitempty"`
	CurrentGoalTitle   string           `json:"current_goal_title,omitempty"`
	CurrentTrackName   string           `json:"current_track_name,omitempty"`
	GoalsCompleted     int64            `json:"goals_completed"`
	GoalsAbandoned     int64            `json:"goals_abandoned"`
	GoalsChanged       int64            `json:"goals_changed"`
	ActivitySinceGoal  map[string]int64 `json:"activity_since_goal"`
}

type StatService interface {
	GetPlatformTotals(ctx context.Context) (*PlatformTotals, error)
	GetMyGoalProgress(ctx context.Context, userID uuid.UUID) (*GoalProgress, error)
	GetReviewQueueCount(ctx context.Context) (int64, error)
}

type statService struct {
	repo  statRepo.StatRepository
	goals goalRepo.GoalRepository
}

func NewStatService(repo statRepo.StatRepository, goals goalRepo.GoalRepository) StatService {
	return &statService{
		repo:  repo,
		goals: goals,
	}
}

func (s *statService) GetPlatformTotals(ctx context.Context) (*PlatformTotals, error) {
	totals := &PlatformTotals{}
	var err error

	if totals.TotalUsers, err = s.repo.CountUsers(ctx); err != nil {
		return nil, err
	}
	if totals.TotalCourses, err = s.repo.CountPublishedCourses(ctx); err != nil {
		return nil, err
	}
	if totals.TotalEnrollments, err = s.repo.CountEnrollments(ctx); err != nil {
		return nil, err
	}
	if totals.TotalActivities, err = s.repo.CountActivities(ctx); err != nil {
		return nil, err
	}

	return totals, nil
}

func (s *statService) GetMyGoalProgress(ctx context.Context, userID uuid.UUID) (*GoalProgress, error) {
	progress := &GoalProgress{
		ActivitySinceGoal: map[string]int64{},
	}

	byStatus, err := s.repo.CountAssignmentsByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	progress.GoalsAbandoned = byStatus["abandoned"]
	progress.GoalsChanged = byStatus["changed"]

	active, err := s.goals.GetActiveAssignment(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if active != nil {
		progress.CurrentGoalID = &active.GoalID
		progress.CurrentGoalTitle = active.Goal.Title
		progress.CurrentTrackName = active.Track.Name

		counts, err := s.repo.CountActivitiesSince(ctx, userID, active.AssignedAt)
		if err != nil {
			return nil, err
		}
		progress.ActivitySinceGoal = counts
	}

	// Completed goals linger in any status once CompletedAt is stamped, so
	// count them from the history rather than the status column.
	assignments, err := s.goals.ListAssignments(userID)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		if a.CompletedAt != nil {
			progress.GoalsCompleted++
		}
	}

	return progress, nil
}

func (s *statService) GetReviewQueueCount(ctx context.Context) (int64, error) {
	return s.repo.CountUnreviewedReflections(ctx)
}
