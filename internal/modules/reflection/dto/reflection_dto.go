package dto

import (
	"time"

	"github.com/google/uuid"

	commonDto "github.com/studyloop/backend/pkg/dto"
)

// CreateReflectionRequest arrives as multipart form data so screenshot and
// voice kinds can carry their file in the same request. The player sends
// either a position in seconds or a raw frame number.
type CreateReflectionRequest struct {
	Kind            string `form:"kind" binding:"required,oneof=text screenshot voice loom"`
	Content         string `form:"content" binding:"max=5000"`
	VideoID         string `form:"video_id" binding:"omitempty,uuid"`
	TimestampSec    *int   `form:"timestamp_sec" binding:"omitempty,min=0"`
	TimestampFrames *int   `form:"timestamp_frames" binding:"omitempty,min=0"`
	LoomURL         string `form:"loom_url" binding:"omitempty,url"`
}

type ReflectionResponse struct {
	ID                uuid.UUID               `json:"id"`
	Kind              string                  `json:"kind"`
	Content           string                  `json:"content"`
	VideoID           *uuid.UUID              `json:"video_id,omitempty"`
	VideoTitle        string                  `json:"video_title,omitempty"`
	VideoTimestampSec *int                    `json:"video_timestamp_sec,omitempty"`
	FileURL           *string                 `json:"file_url,omitempty"`
	Author            commonDto.AuthorResponse `json:"author"`
	ReviewedAt        *time.Time              `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
}
