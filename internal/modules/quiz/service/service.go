package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	activityService "github.com/studyloop/backend/internal/modules/activity/service"
	quizDto "github.com/studyloop/backend/internal/modules/quiz/dto"
	quizRepo "github.com/studyloop/backend/internal/modules/quiz/repository"
	"github.com/studyloop/backend/pkg/apperror"
)

type QuizService interface {
	CreateQuiz(req quizDto.CreateQuizRequest) (*entity.Quiz, error)
	ListVideoQuizzes(videoID uuid.UUID) ([]entity.Quiz, error)
	DeleteQuiz(id uuid.UUID) error

	// SubmitAttempt grades and stores an attempt, then projects it to the
	// activity feed. Every attempt is kept; the feed shows each one.
	SubmitAttempt(ctx context.Context, userID, quizID uuid.UUID, req quizDto.SubmitAttemptRequest) (*quizDto.AttemptResponse, error)
	ListMyAttempts(userID, quizID uuid.UUID) ([]quizDto.AttemptResponse, error)
	BestAttempt(userID, quizID uuid.UUID) (*quizDto.AttemptResponse, error)
}

type quizService struct {
	repo       quizRepo.QuizRepository
	activities activityService.ActivityService
}

func NewQuizService(repo quizRepo.QuizRepository, activities activityService.ActivityService) QuizService {
	return &quizService{
		repo:       repo,
		activities: activities,
	}
}

func (s *quizService) CreateQuiz(req quizDto.CreateQuizRequest) (*entity.Quiz, error) {
	videoID, err := uuid.Parse(req.VideoID)
	if err != nil {
		return nil, apperror.ErrBadRequest
	}

	quiz := &entity.Quiz{
		VideoID:   videoID,
		Title:     req.Title,
		Questions: req.Questions,
	}
	if err := s.repo.CreateQuiz(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *quizService) ListVideoQuizzes(videoID uuid.UUID) ([]entity.Quiz, error) {
	return s.repo.ListByVideo(videoID)
}

func (s *quizService) DeleteQuiz(id uuid.UUID) error {
	return s.repo.DeleteQuiz(id)
}

func (s *quizService) SubmitAttempt(ctx context.Context, userID, quizID uuid.UUID, req quizDto.SubmitAttemptRequest) (*quizDto.AttemptResponse, error) {
	quiz, err := s.repo.FindQuiz(quizID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.Score > req.Total {
		return nil, fmt.Errorf("%w: score cannot exceed total", apperror.ErrInvalidInput)
	}

	attempt := &entity.QuizAttempt{
		UserID: userID,
		QuizID: quizID,
		Score:  req.Score,
		Total:  req.Total,
	}
	if err := s.repo.CreateAttempt(attempt); err != nil {
		return nil, err
	}

	if s.activities != nil {
		if err := s.activities.ProjectQuizAttempt(ctx, attempt); err != nil {
			log.Printf("❌ quiz: failed to project attempt %s: %v", attempt.ID, err)
		}
	}

	resp := toAttemptResponse(attempt)
	resp.QuizTitle = quiz.Title
	return &resp, nil
}

func (s *quizService) ListMyAttempts(userID, quizID uuid.UUID) ([]quizDto.AttemptResponse, error) {
	attempts, err := s.repo.ListAttempts(userID, quizID)
	if err != nil {
		return nil, err
	}
	responses := make([]quizDto.AttemptResponse, 0, len(attempts))
	for i := range attempts {
		responses = append(responses, toAttemptResponse(&attempts[i]))
	}
	return responses, nil
}

func (s *quizService) BestAttempt(userID, quizID uuid.UUID) (*quizDto.AttemptResponse, error) {
	attempt, err := s.repo.BestAttempt(userID, quizID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := toAttemptResponse(attempt)
	return &resp, nil
}

func toAttemptResponse(a *entity.QuizAttempt) quizDto.AttemptResponse {
	return quizDto.AttemptResponse{
		ID:        a.ID,
		QuizID:    a.QuizID,
		Score:     a.Score,
		Total:     a.Total,
		Percent:   a.Percent(),
		CreatedAt: a.CreatedAt,
	}
}
