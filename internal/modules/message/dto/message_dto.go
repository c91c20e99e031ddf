package dto

import (
	"time"

	"github.com/google/uuid"

	commonDto "github.com/studyloop/backend/pkg/dto"
)

type StartConversationRequest struct {
	InstructorID string `json:"instructor_id" binding:"required,uuid"`
}

type SendMessageRequest struct {
	Type       string `json:"type" binding:"required,oneof=chat daily_note revenue_proof"`
	Body       string `json:"body" binding:"required,min=1,max=10000"`
	IsDraft    bool   `json:"is_draft"`
	Visibility string `json:"visibility" binding:"omitempty,oneof=public private"`
}

type UpdateDraftRequest struct {
	Body       *string `json:"body" binding:"omitempty,min=1,max=10000"`
	Visibility *string `json:"visibility" binding:"omitempty,oneof=public private"`
}

type ConversationResponse struct {
	ID         uuid.UUID                `json:"id"`
	Student    commonDto.AuthorResponse `json:"student"`
	Instructor commonDto.AuthorResponse `json:"instructor"`
	CreatedAt  time.Time                `json:"created_at"`
}

type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	Type           string     `json:"type"`
	Body           string     `json:"body"`
	IsDraft        bool       `json:"is_draft"`
	Visibility     string     `json:"visibility"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
