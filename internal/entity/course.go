package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null" json:"instructor_id"`
	Instructor  User      `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE" json:"instructor,omitempty"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Slug        string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CoverURL    *string   `gorm:"type:text" json:"cover_url,omitempty"`
	IsPublished bool      `gorm:"default:false" json:"is_published"`
	Videos      []Video   `gorm:"foreignKey:CourseID" json:"videos,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

type Video struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course      Course    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	DurationSec int       `gorm:"default:0" json:"duration_sec"`
	PlaybackURL string    `gorm:"type:text" json:"playback_url"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID, err = uuid.NewV7()
	}
	return
}

// Enrollment tracks one user's progress through one course. CompletedAt is
// set exactly once, when ProgressPercent first crosses the completion
// threshold; the course-completion activity is projected on that edge only.
type Enrollment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:1" json:"user_id"`
	User            User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CourseID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:2" json:"course_id"`
	Course          Course     `gorm:"constraint:OnDelete:CASCADE" json:"course,omitempty"`
	ProgressPercent float64    `gorm:"not null;default:0" json:"progress_percent"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID, err = uuid.NewV7()
	}
	return
}
