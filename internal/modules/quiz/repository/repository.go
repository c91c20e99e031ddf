package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
)

type QuizRepository interface {
	CreateQuiz(quiz *entity.Quiz) error
	FindQuiz(id uuid.UUID) (*entity.Quiz, error)
	ListByVideo(videoID uuid.UUID) ([]entity.Quiz, error)
	DeleteQuiz(id uuid.UUID) error

	CreateAttempt(attempt *entity.QuizAttempt) error
	ListAttempts(userID, quizID uuid.UUID) ([]entity.QuizAttempt, error)
	BestAttempt(userID, quizID uuid.UUID) (*entity.QuizAttempt, error)
}

type quizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) CreateQuiz(quiz *entity.Quiz) error {
	return r.db.Create(quiz).Error
}

func (r *quizRepository) FindQuiz(id uuid.UUID) (*entity.Quiz, error) {
	var quiz entity.Quiz
	if err := r.db.First(&quiz, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) ListByVideo(videoID uuid.UUID) ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	err := r.db.Where("video_id = ?", videoID).
		Order("created_at asc").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *quizRepository) DeleteQuiz(id uuid.UUID) error {
	return r.db.Delete(&entity.Quiz{}, "id = ?", id).Error
}

func (r *quizRepository) CreateAttempt(attempt *entity.QuizAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *quizRepository) ListAttempts(userID, quizID uuid.UUID) ([]entity.QuizAttempt, error) {
	var attempts []entity.QuizAttempt
	err := r.db.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("created_at desc").
		Find(&attempts).Error
	return attempts, err
}

func (r *quizRepository) BestAttempt(userID, quizID uuid.UUID) (*entity.QuizAttempt, error) {
	var attempts []entity.QuizAttempt
	err := r.db.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("score * 100 / total desc, created_at asc").
		Limit(1).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &attempts[0], nil
}
