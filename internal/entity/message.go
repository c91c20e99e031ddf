package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MessageTypeChat         = "chat"
	MessageTypeDailyNote    = "daily_note"
	MessageTypeRevenueProof = "revenue_proof"

	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Conversation is the coaching channel between one student and one instructor.
type Conversation struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair,priority:1" json:"student_id"`
	Student      User      `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair,priority:2" json:"instructor_id"`
	Instructor   User      `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE" json:"instructor,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

// ConversationMessage is one message in a conversation. Drafts are visible
// only to their sender and are never projected to the activity feed;
// publishing clears the draft flag and projects daily notes and revenue
// proofs (plain chat is never projected).
type ConversationMessage struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID    `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Conversation   Conversation `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SenderID       uuid.UUID    `gorm:"type:uuid;not null" json:"sender_id"`
	Sender         User         `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`

	Type       string `gorm:"size:20;not null;default:'chat'" json:"type"`
	Body       string `gorm:"type:text;not null" json:"body"`
	IsDraft    bool   `gorm:"not null;default:false" json:"is_draft"`
	Visibility string `gorm:"size:10;not null;default:'private'" json:"visibility"`

	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *ConversationMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}
