package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VideoAIConversation records one question/answer exchange between a learner
// and the AI assistant, anchored to a video.
type VideoAIConversation struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	VideoID *uuid.UUID `gorm:"type:uuid;index" json:"video_id,omitempty"`
	Video   *Video     `gorm:"constraint:OnDelete:SET NULL" json:"video,omitempty"`

	Question string `gorm:"type:text;not null" json:"question"`
	Answer   string `gorm:"type:text" json:"answer"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (c *VideoAIConversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}
