package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Track struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Slug        string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Goals       []Goal    `gorm:"foreignKey:TrackID" json:"goals,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *Track) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}

type Goal struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TrackID     uuid.UUID `gorm:"type:uuid;not null;index" json:"track_id"`
	Track       Track     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID, err = uuid.NewV7()
	}
	return
}

// Assignment statuses. Active is the only non-terminal status; at most one
// assignment per user may hold it at any time.
const (
	AssignmentStatusActive    = "active"
	AssignmentStatusChanged   = "changed"   // superseded by a newer active assignment
	AssignmentStatusAbandoned = "abandoned" // explicitly ended without replacement
)

// TrackAssignment is one user's claim to a goal within a track at one point
// in time. The history of a user's goals is the set of their assignments;
// the profile pointer mirrors whichever one is currently active.
type TrackAssignment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_assignment_user_status,priority:1" json:"user_id"`
	User        User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TrackID     uuid.UUID  `gorm:"type:uuid;not null" json:"track_id"`
	Track       Track      `gorm:"constraint:OnDelete:CASCADE" json:"track,omitempty"`
	GoalID      uuid.UUID  `gorm:"type:uuid;not null" json:"goal_id"`
	Goal        Goal       `gorm:"constraint:OnDelete:CASCADE" json:"goal,omitempty"`
	Status      string     `gorm:"size:20;not null;default:'active';index:idx_assignment_user_status,priority:2" json:"status"`
	AssignedAt  time.Time  `gorm:"not null" json:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *TrackAssignment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now()
	}
	return
}

// IsActive reports whether this assignment currently drives the profile pointer.
func (a *TrackAssignment) IsActive() bool {
	return a.Status == AssignmentStatusActive
}
