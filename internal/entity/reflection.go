package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReflectionKindText       = "text"
	ReflectionKindScreenshot = "screenshot"
	ReflectionKindVoice      = "voice"
	ReflectionKindLoom       = "loom"
)

// Reflection is a learner's note on a video: plain text, a screenshot, a
// voice note, or a Loom link. Immutable once created, except for the
// instructor review mark.
type Reflection struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   User      `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`

	VideoID *uuid.UUID `gorm:"type:uuid;index" json:"video_id,omitempty"`
	Video   *Video     `gorm:"constraint:OnDelete:SET NULL" json:"video,omitempty"`

	Kind    string `gorm:"size:20;not null" json:"kind"`
	Content string `gorm:"type:text;not null" json:"content"`

	// Position in the video the reflection refers to. The player reports
	// either seconds or a raw frame number; frames are converted on intake.
	VideoTimestampSec *int `json:"video_timestamp_sec,omitempty"`

	// Screenshot / voice-note asset, or the Loom URL for loom reflections.
	FileURL *string `gorm:"type:text" json:"file_url,omitempty"`

	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy *uuid.UUID `gorm:"type:uuid" json:"reviewed_by,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Reflection) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
