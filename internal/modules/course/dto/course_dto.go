package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=255"`
	Description string `json:"description" binding:"max=5000"`
}

type UpdateCourseRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=3,max=255"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	IsPublished *bool   `json:"is_published"`
}

type CreateVideoRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=255"`
	Position    int    `json:"position" binding:"min=0"`
	DurationSec int    `json:"duration_sec" binding:"min=0"`
	PlaybackURL string `json:"playback_url" binding:"required,url"`
}

type UpdateVideoRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=3,max=255"`
	Position    *int    `json:"position" binding:"omitempty,min=0"`
	DurationSec *int    `json:"duration_sec" binding:"omitempty,min=0"`
	PlaybackURL *string `json:"playback_url" binding:"omitempty,url"`
}

type UpdateProgressRequest struct {
	ProgressPercent float64 `json:"progress_percent" binding:"min=0,max=100"`
}

type EnrollmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	CourseID        uuid.UUID  `json:"course_id"`
	CourseTitle     string     `json:"course_title,omitempty"`
	CourseSlug      string     `json:"course_slug,omitempty"`
	ProgressPercent float64    `json:"progress_percent"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	EnrolledAt      time.Time  `json:"enrolled_at"`
}
