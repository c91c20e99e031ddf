package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActivityKindReflectionText       = "reflection_text"
	ActivityKindReflectionScreenshot = "reflection_screenshot"
	ActivityKindReflectionVoice      = "reflection_voice"
	ActivityKindReflectionLoom       = "reflection_loom"
	ActivityKindQuiz                 = "quiz"
	ActivityKindAIChat               = "ai_chat"
	ActivityKindCourseCompletion     = "course_completion"
	ActivityKindDailyNote            = "daily_note"
	ActivityKindRevenueProof         = "revenue_proof"
	ActivityKindGoalAchieved         = "goal_achieved"
	ActivityKindNewGoalStarted       = "new_goal_started"
)

// ActivityRecord is one denormalized entry in the unified activity feed.
// Each source event projects exactly one record; the typed back-reference
// columns are unique so a replayed projection collides instead of
// duplicating. Exactly one back-reference is set per record (goal
// transitions carry only the goal context).
type ActivityRecord struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_user_created,priority:1" json:"user_id"`
	User   User      `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`

	Kind string `gorm:"size:30;not null;index" json:"kind"`

	// Typed back-references to the source row. Unique per column so the
	// same source event cannot project twice.
	ReflectionID     *uuid.UUID           `gorm:"type:uuid;uniqueIndex" json:"reflection_id,omitempty"`
	Reflection       *Reflection          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	QuizAttemptID    *uuid.UUID           `gorm:"type:uuid;uniqueIndex" json:"quiz_attempt_id,omitempty"`
	QuizAttempt      *QuizAttempt         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AIConversationID *uuid.UUID           `gorm:"type:uuid;uniqueIndex" json:"ai_conversation_id,omitempty"`
	AIConversation   *VideoAIConversation `gorm:"foreignKey:AIConversationID;constraint:OnDelete:CASCADE" json:"-"`
	MessageID        *uuid.UUID           `gorm:"type:uuid;uniqueIndex" json:"message_id,omitempty"`
	Message          *ConversationMessage `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
	EnrollmentID     *uuid.UUID           `gorm:"type:uuid;uniqueIndex" json:"enrollment_id,omitempty"`
	Enrollment       *Enrollment          `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	// Goal context. For goal transitions this is the subject; for other
	// kinds it snapshots the goal the user was on when the event happened.
	GoalID *uuid.UUID `gorm:"type:uuid;index" json:"goal_id,omitempty"`
	Goal   *Goal      `gorm:"constraint:OnDelete:SET NULL" json:"goal,omitempty"`

	// Denormalized display fields, resolved at projection time so the feed
	// renders without joins. Title lookups that fail leave these nil.
	VideoTitle        *string `gorm:"size:255" json:"video_title,omitempty"`
	CourseTitle       *string `gorm:"size:255" json:"course_title,omitempty"`
	GoalTitle         *string `gorm:"size:255" json:"goal_title,omitempty"`
	VideoTimestampSec *int    `json:"video_timestamp_sec,omitempty"`

	ContentPreview string `gorm:"size:255" json:"content_preview"`
	Visibility     string `gorm:"size:10;not null;default:'private';index" json:"visibility"`

	// Stamped from the source event, not the insert time, so replays and
	// backfills keep feed order.
	CreatedAt time.Time `gorm:"not null;index:idx_activity_user_created,priority:2,sort:desc" json:"created_at"`
}

func (a *ActivityRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return
}

// NewReflectionActivity builds the feed record for a reflection. The kind
// follows the reflection kind.
func NewReflectionActivity(r *Reflection, kind string) *ActivityRecord {
	id := r.ID
	return &ActivityRecord{
		UserID:            r.UserID,
		Kind:              kind,
		ReflectionID:      &id,
		VideoTimestampSec: r.VideoTimestampSec,
		Visibility:        VisibilityPrivate,
		CreatedAt:         r.CreatedAt,
	}
}

// NewQuizActivity builds the feed record for a graded quiz attempt.
func NewQuizActivity(a *QuizAttempt) *ActivityRecord {
	id := a.ID
	return &ActivityRecord{
		UserID:        a.UserID,
		Kind:          ActivityKindQuiz,
		QuizAttemptID: &id,
		Visibility:    VisibilityPrivate,
		CreatedAt:     a.CreatedAt,
	}
}

// NewAIChatActivity builds the feed record for an AI assistant exchange.
func NewAIChatActivity(c *VideoAIConversation) *ActivityRecord {
	id := c.ID
	return &ActivityRecord{
		UserID:           c.UserID,
		Kind:             ActivityKindAIChat,
		AIConversationID: &id,
		Visibility:       VisibilityPrivate,
		CreatedAt:        c.CreatedAt,
	}
}

// NewMessageActivity builds the feed record for a published daily note or
// revenue proof. The activity kind matches the message type.
func NewMessageActivity(m *ConversationMessage, publishedAt time.Time) *ActivityRecord {
	id := m.ID
	return &ActivityRecord{
		UserID:     m.SenderID,
		Kind:       m.Type,
		MessageID:  &id,
		Visibility: m.Visibility,
		CreatedAt:  publishedAt,
	}
}

// NewCompletionActivity builds the feed record for a course completion.
// Completions are always public.
func NewCompletionActivity(e *Enrollment, completedAt time.Time) *ActivityRecord {
	id := e.ID
	return &ActivityRecord{
		UserID:       e.UserID,
		Kind:         ActivityKindCourseCompletion,
		EnrollmentID: &id,
		Visibility:   VisibilityPublic,
		CreatedAt:    completedAt,
	}
}

// NewGoalTransitionActivity builds the feed record for a goal_achieved or
// new_goal_started transition, stamped at the moment of the transition.
// Transitions have no source row, so these records carry no unique
// back-reference: a replayed call inserts a second record. Once-only
// emission rests on the caller projecting each transition exactly once.
func NewGoalTransitionActivity(userID uuid.UUID, kind string, goalID uuid.UUID, at time.Time) *ActivityRecord {
	gid := goalID
	return &ActivityRecord{
		UserID:     userID,
		Kind:       kind,
		GoalID:     &gid,
		Visibility: VisibilityPublic,
		CreatedAt:  at,
	}
}
