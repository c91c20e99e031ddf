package dto

import (
	"time"

	"github.com/google/uuid"
)

type UpdateProfileRequest struct {
	FullName *string `form:"full_name" binding:"omitempty,min=2,max=100"`
	Headline *string `form:"headline" binding:"omitempty,max=150"`
	Bio      *string `form:"bio" binding:"omitempty,max=2000"`
}

// ProfileResponse is the public profile view. The current goal block
// mirrors the synchronizer-owned pointer columns.
type ProfileResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Headline  *string   `json:"headline,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`

	CurrentTrackID   *uuid.UUID `json:"current_track_id,omitempty"`
	CurrentTrackName string     `json:"current_track_name,omitempty"`
	CurrentGoalID    *uuid.UUID `json:"current_goal_id,omitempty"`
	CurrentGoalTitle string     `json:"current_goal_title,omitempty"`
	GoalAssignedAt   *time.Time `json:"goal_assigned_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
