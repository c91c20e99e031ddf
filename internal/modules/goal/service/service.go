package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	activityService "github.com/studyloop/backend/internal/modules/activity/service"
	goalDto "github.com/studyloop/backend/internal/modules/goal/dto"
	goalRepo "github.com/studyloop/backend/internal/modules/goal/repository"
	"github.com/studyloop/backend/pkg/apperror"
)

// GoalService manages tracks, goals and the assignment lifecycle. All
// assignment transitions run through the repository in one transaction so
// a user never ends up with two active goals or a stale profile pointer.
type GoalService interface {
	CreateTrack(req goalDto.CreateTrackRequest) (*entity.Track, error)
	UpdateTrack(id uuid.UUID, req goalDto.UpdateTrackRequest) (*entity.Track, error)
	DeleteTrack(id uuid.UUID) error
	ListTracks() ([]entity.Track, error)
	GetTrackBySlug(slug string) (*entity.Track, error)

	CreateGoal(trackID uuid.UUID, req goalDto.CreateGoalRequest) (*entity.Goal, error)
	UpdateGoal(id uuid.UUID, req goalDto.UpdateGoalRequest) (*entity.Goal, error)
	DeleteGoal(id uuid.UUID) error

	AssignGoal(ctx context.Context, userID, trackID, goalID uuid.UUID) (*goalDto.AssignmentResponse, error)
	CompleteActiveGoal(ctx context.Context, userID uuid.UUID) (*goalDto.AssignmentResponse, error)
	AbandonActiveGoal(ctx context.Context, userID uuid.UUID) error
	RemoveAssignment(ctx context.Context, assignmentID uuid.UUID) error

	GetActiveAssignment(userID uuid.UUID) (*goalDto.AssignmentResponse, error)
	GetAssignmentHistory(userID uuid.UUID) ([]goalDto.AssignmentResponse, error)
}

type goalService struct {
	repo       goalRepo.GoalRepository
	activities activityService.ActivityService
}

func NewGoalService(repo goalRepo.GoalRepository, activities activityService.ActivityService) GoalService {
	return &goalService{
		repo:       repo,
		activities: activities,
	}
}

func (s *goalService) CreateTrack(req goalDto.CreateTrackRequest) (*entity.Track, error) {
	track := &entity.Track{
		Name:        req.Name,
		Slug:        s.generateUniqueSlug(req.Name),
		Description: req.Description,
	}
	if err := s.repo.CreateTrack(track); err != nil {
		return nil, err
	}
	return track, nil
}

func (s *goalService) UpdateTrack(id uuid.UUID, req goalDto.UpdateTrackRequest) (*entity.Track, error) {
	tracks, err := s.repo.ListTracks()
	if err != nil {
		return nil, err
	}
	var track *entity.Track
	for i := range tracks {
		if tracks[i].ID == id {
			track = &tracks[i]
			break
		}
	}
	if track == nil {
		return nil, apperror.ErrNotFound
	}

	if req.Name != nil {
		track.Name = *req.Name
	}
	if req.Description != nil {
		track.Description = *req.Description
	}
	if err := s.repo.UpdateTrack(track); err != nil {
		return nil, err
	}
	return track, nil
}

func (s *goalService) DeleteTrack(id uuid.UUID) error {
	return s.repo.DeleteTrack(id)
}

func (s *goalService) ListTracks() ([]entity.Track, error) {
	return s.repo.ListTracks()
}

func (s *goalService) GetTrackBySlug(slug string) (*entity.Track, error) {
	track, err := s.repo.GetTrackBySlug(slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	return track, err
}

func (s *goalService) CreateGoal(trackID uuid.UUID, req goalDto.CreateGoalRequest) (*entity.Goal, error) {
	goal := &entity.Goal{
		TrackID:     trackID,
		Title:       req.Title,
		Position:    req.Position,
		Description: req.Description,
	}
	if err := s.repo.CreateGoal(goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *goalService) UpdateGoal(id uuid.UUID, req goalDto.UpdateGoalRequest) (*entity.Goal, error) {
	goal, err := s.repo.FindGoal(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		goal.Title = *req.Title
	}
	if req.Position != nil {
		goal.Position = *req.Position
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if err := s.repo.UpdateGoal(goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *goalService) DeleteGoal(id uuid.UUID) error {
	return s.repo.DeleteGoal(id)
}

// AssignGoal switches the user onto a goal. The previous active
// assignment, if any, is demoted in the same transaction; feed records
// for the transition are projected after commit.
func (s *goalService) AssignGoal(ctx context.Context, userID, trackID, goalID uuid.UUID) (*goalDto.AssignmentResponse, error) {
	goal, err := s.repo.FindGoal(goalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: goal does not exist", apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if goal.TrackID != trackID {
		return nil, fmt.Errorf("%w: goal does not belong to track", apperror.ErrBadRequest)
	}

	result, err := s.repo.ActivateAssignment(ctx, userID, trackID, goalID)
	if err != nil {
		return nil, err
	}

	s.projectTransitions(ctx, userID, result)

	assignment := result.Pointer
	resp := toAssignmentResponse(assignment)
	resp.GoalTitle = goal.Title
	return &resp, nil
}

// CompleteActiveGoal stamps the active assignment as completed. The
// assignment stays active; the achieved feed record is emitted when the
// user moves to their next goal.
func (s *goalService) CompleteActiveGoal(ctx context.Context, userID uuid.UUID) (*goalDto.AssignmentResponse, error) {
	assignment, err := s.repo.MarkActiveCompleted(ctx, userID, time.Now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no active goal", apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	resp := toAssignmentResponse(assignment)
	return &resp, nil
}

// AbandonActiveGoal ends the active assignment without a replacement. The
// profile pointer clears unless another active row remains.
func (s *goalService) AbandonActiveGoal(ctx context.Context, userID uuid.UUID) error {
	result, err := s.repo.DeactivateActive(ctx, userID, entity.AssignmentStatusAbandoned)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: no active goal", apperror.ErrNotFound)
	}
	if err != nil {
		return err
	}

	s.projectTransitions(ctx, userID, result)
	return nil
}

// RemoveAssignment deletes an assignment row, typically to scrub bad data.
// Admin only; the pointer resync happens inside the repository transaction.
func (s *goalService) RemoveAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	_, err := s.repo.DeleteAssignment(ctx, assignmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}

// projectTransitions emits the feed records for a completed sync: one
// goal_achieved per demoted assignment that was completed, and one
// new_goal_started for the freshly activated one. Projection failures are
// logged and swallowed; the transition itself already committed.
func (s *goalService) projectTransitions(ctx context.Context, userID uuid.UUID, result *goalRepo.SyncResult) {
	if s.activities == nil {
		return
	}
	now := time.Now()

	for _, demoted := range result.Demoted {
		if demoted.CompletedAt == nil {
			continue
		}
		if err := s.activities.ProjectGoalTransition(ctx, userID, entity.ActivityKindGoalAchieved, demoted.GoalID, now); err != nil {
			log.Printf("❌ goal: failed to project goal_achieved for user %s: %v", userID, err)
		}
	}

	if result.Activated != nil {
		if err := s.activities.ProjectGoalTransition(ctx, userID, entity.ActivityKindNewGoalStarted, result.Activated.GoalID, now); err != nil {
			log.Printf("❌ goal: failed to project new_goal_started for user %s: %v", userID, err)
		}
	}
}

func (s *goalService) GetActiveAssignment(userID uuid.UUID) (*goalDto.AssignmentResponse, error) {
	assignment, err := s.repo.GetActiveAssignment(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := toAssignmentResponse(assignment)
	return &resp, nil
}

func (s *goalService) GetAssignmentHistory(userID uuid.UUID) ([]goalDto.AssignmentResponse, error) {
	assignments, err := s.repo.ListAssignments(userID)
	if err != nil {
		return nil, err
	}
	responses := make([]goalDto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		responses = append(responses, toAssignmentResponse(&assignments[i]))
	}
	return responses, nil
}

func toAssignmentResponse(a *entity.TrackAssignment) goalDto.AssignmentResponse {
	return goalDto.AssignmentResponse{
		ID:          a.ID,
		TrackID:     a.TrackID,
		TrackName:   a.Track.Name,
		GoalID:      a.GoalID,
		GoalTitle:   a.Goal.Title,
		Status:      a.Status,
		AssignedAt:  a.AssignedAt,
		CompletedAt: a.CompletedAt,
	}
}

var slugInvalidChars = regexp.MustCompile("[^a-z0-9 ]+")

func (s *goalService) generateUniqueSlug(name string) string {
	slug := strings.ToLower(name)
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.Trim(slug, "-")

	existing, _ := s.repo.GetTrackBySlug(slug)
	if existing != nil {
		slug = fmt.Sprintf("%s-%s", slug, uuid.New().String()[:8])
	}
	return slug
}
