package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Quiz struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VideoID   uuid.UUID `gorm:"type:uuid;not null;index" json:"video_id"`
	Video     Video     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Questions int       `gorm:"not null;default:0" json:"questions"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) (err error) {
	if q.ID == uuid.Nil {
		q.ID, err = uuid.NewV7()
	}
	return
}

type QuizAttempt struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	QuizID uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Quiz   Quiz      `gorm:"constraint:OnDelete:CASCADE" json:"quiz,omitempty"`

	Score int `gorm:"not null" json:"score"`
	Total int `gorm:"not null" json:"total"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

// Percent returns the attempt score as a whole percentage, rounded down.
func (a *QuizAttempt) Percent() int {
	if a.Total <= 0 {
		return 0
	}
	return a.Score * 100 / a.Total
}
