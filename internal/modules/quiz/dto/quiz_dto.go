package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateQuizRequest struct {
	VideoID   string `json:"video_id" binding:"required,uuid"`
	Title     string `json:"title" binding:"required,min=3,max=255"`
	Questions int    `json:"questions" binding:"required,min=1"`
}

type SubmitAttemptRequest struct {
	Score int `json:"score" binding:"min=0"`
	Total int `json:"total" binding:"required,min=1"`
}

type AttemptResponse struct {
	ID        uuid.UUID `json:"id"`
	QuizID    uuid.UUID `json:"quiz_id"`
	QuizTitle string    `json:"quiz_title,omitempty"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Percent   int       `json:"percent"`
	CreatedAt time.Time `json:"created_at"`
}
