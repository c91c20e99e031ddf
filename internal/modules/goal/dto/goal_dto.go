package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTrackRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

type UpdateTrackRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=3,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

type CreateGoalRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=255"`
	Position    int    `json:"position" binding:"min=0"`
	Description string `json:"description" binding:"max=2000"`
}

type UpdateGoalRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=3,max=255"`
	Position    *int    `json:"position" binding:"omitempty,min=0"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

type AssignGoalRequest struct {
	TrackID string `json:"track_id" binding:"required,uuid"`
	GoalID  string `json:"goal_id" binding:"required,uuid"`
}

type AssignmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	TrackID     uuid.UUID  `json:"track_id"`
	TrackName   string     `json:"track_name,omitempty"`
	GoalID      uuid.UUID  `json:"goal_id"`
	GoalTitle   string     `json:"goal_title,omitempty"`
	Status      string     `json:"status"`
	AssignedAt  time.Time  `json:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
