package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	activityService "github.com/studyloop/backend/internal/modules/activity/service"
	messageDto "github.com/studyloop/backend/internal/modules/message/dto"
	messageRepo "github.com/studyloop/backend/internal/modules/message/repository"
	"github.com/studyloop/backend/pkg/apperror"
	commonDto "github.com/studyloop/backend/pkg/dto"
)

// MessageService runs the student/instructor coaching channel. Daily notes
// and revenue proofs project to the activity feed when they are published;
// drafts and plain chat never do.
type MessageService interface {
	StartConversation(studentID, instructorID uuid.UUID) (*messageDto.ConversationResponse, error)
	ListConversations(userID uuid.UUID) ([]messageDto.ConversationResponse, error)
	IsParticipant(conversationID, userID uuid.UUID) (bool, error)

	SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, req messageDto.SendMessageRequest) (*messageDto.MessageResponse, error)
	UpdateDraft(senderID, messageID uuid.UUID, req messageDto.UpdateDraftRequest) (*messageDto.MessageResponse, error)
	DeleteDraft(senderID, messageID uuid.UUID) error
	PublishDraft(ctx context.Context, senderID, messageID uuid.UUID) (*messageDto.MessageResponse, error)

	ListMessages(conversationID, viewerID uuid.UUID, page, limit int) ([]messageDto.MessageResponse, int64, error)
	MarkRead(conversationID, readerID uuid.UUID) error
}

type messageService struct {
	repo        messageRepo.MessageRepository
	activities  activityService.ActivityService
	redisClient *redis.Client
}

func NewMessageService(repo messageRepo.MessageRepository, activities activityService.ActivityService, redisClient *redis.Client) MessageService {
	return &messageService{
		repo:        repo,
		activities:  activities,
		redisClient: redisClient,
	}
}

func (s *messageService) StartConversation(studentID, instructorID uuid.UUID) (*messageDto.ConversationResponse, error) {
	if studentID == instructorID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", apperror.ErrBadRequest)
	}

	conversation, err := s.repo.GetOrCreateConversation(studentID, instructorID)
	if err != nil {
		return nil, err
	}

	// Reload for the participant associations.
	conversation, err = s.repo.FindConversation(conversation.ID)
	if err != nil {
		return nil, err
	}
	resp := toConversationResponse(conversation)
	return &resp, nil
}

func (s *messageService) ListConversations(userID uuid.UUID) ([]messageDto.ConversationResponse, error) {
	conversations, err := s.repo.ListConversations(userID)
	if err != nil {
		return nil, err
	}
	responses := make([]messageDto.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		responses = append(responses, toConversationResponse(&conversations[i]))
	}
	return responses, nil
}

func (s *messageService) IsParticipant(conversationID, userID uuid.UUID) (bool, error) {
	conversation, err := s.repo.FindConversation(conversationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperror.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return conversation.StudentID == userID || conversation.InstructorID == userID, nil
}

func (s *messageService) SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, req messageDto.SendMessageRequest) (*messageDto.MessageResponse, error) {
	ok, err := s.IsParticipant(conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrForbidden
	}

	if req.Type == entity.MessageTypeChat && req.IsDraft {
		return nil, fmt.Errorf("%w: chat messages cannot be drafted", apperror.ErrInvalidInput)
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = entity.VisibilityPrivate
	}

	msg := &entity.ConversationMessage{
		ConversationID: conversationID,
		SenderID:       senderID,
		Type:           req.Type,
		Body:           req.Body,
		IsDraft:        req.IsDraft,
		Visibility:     visibility,
	}
	if err := s.repo.CreateMessage(msg); err != nil {
		return nil, err
	}

	if !msg.IsDraft {
		s.deliver(ctx, msg)
		s.projectIfNote(ctx, msg, msg.CreatedAt)
	}

	resp := toMessageResponse(msg)
	return &resp, nil
}

func (s *messageService) UpdateDraft(senderID, messageID uuid.UUID, req messageDto.UpdateDraftRequest) (*messageDto.MessageResponse, error) {
	msg, err := s.repo.FindMessage(messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if msg.SenderID != senderID || !msg.IsDraft {
		return nil, apperror.ErrNotFound
	}

	if req.Body != nil {
		msg.Body = *req.Body
	}
	if req.Visibility != nil {
		msg.Visibility = *req.Visibility
	}
	if err := s.repo.UpdateDraft(msg); err != nil {
		return nil, err
	}
	resp := toMessageResponse(msg)
	return &resp, nil
}

func (s *messageService) DeleteDraft(senderID, messageID uuid.UUID) error {
	err := s.repo.DeleteDraft(messageID, senderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}

// PublishDraft flips a draft live. The feed record is stamped with the
// publish time, not the draft's creation time.
func (s *messageService) PublishDraft(ctx context.Context, senderID, messageID uuid.UUID) (*messageDto.MessageResponse, error) {
	msg, err := s.repo.Publish(messageID, senderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: draft not found", apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	publishedAt := time.Now()
	s.deliver(ctx, msg)
	s.projectIfNote(ctx, msg, publishedAt)

	resp := toMessageResponse(msg)
	return &resp, nil
}

// deliver pushes a live message onto the conversation's redis channel so
// open websockets see it immediately.
func (s *messageService) deliver(ctx context.Context, msg *entity.ConversationMessage) {
	if s.redisClient == nil {
		return
	}
	payload, err := json.Marshal(toMessageResponse(msg))
	if err != nil {
		return
	}
	channel := fmt.Sprintf("conversation:%s", msg.ConversationID.String())
	s.redisClient.Publish(ctx, channel, payload)
}

func (s *messageService) projectIfNote(ctx context.Context, msg *entity.ConversationMessage, publishedAt time.Time) {
	if s.activities == nil {
		return
	}
	if msg.Type != entity.MessageTypeDailyNote && msg.Type != entity.MessageTypeRevenueProof {
		return
	}
	if err := s.activities.ProjectMessage(ctx, msg, publishedAt); err != nil {
		log.Printf("❌ message: failed to project message %s: %v", msg.ID, err)
	}
}

func (s *messageService) ListMessages(conversationID, viewerID uuid.UUID, page, limit int) ([]messageDto.MessageResponse, int64, error) {
	ok, err := s.IsParticipant(conversationID, viewerID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, apperror.ErrForbidden
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	messages, total, err := s.repo.ListMessages(conversationID, viewerID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]messageDto.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, toMessageResponse(&messages[i]))
	}
	return responses, total, nil
}

func (s *messageService) MarkRead(conversationID, readerID uuid.UUID) error {
	ok, err := s.IsParticipant(conversationID, readerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.ErrForbidden
	}
	return s.repo.MarkRead(conversationID, readerID, time.Now())
}

func toConversationResponse(c *entity.Conversation) messageDto.ConversationResponse {
	return messageDto.ConversationResponse{
		ID: c.ID,
		Student: commonDto.AuthorResponse{
			Username:  c.Student.Username,
			AvatarURL: c.Student.AvatarURL,
		},
		Instructor: commonDto.AuthorResponse{
			Username:  c.Instructor.Username,
			AvatarURL: c.Instructor.AvatarURL,
		},
		CreatedAt: c.CreatedAt,
	}
}

func toMessageResponse(m *entity.ConversationMessage) messageDto.MessageResponse {
	return messageDto.MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Type:           m.Type,
		Body:           m.Body,
		IsDraft:        m.IsDraft,
		Visibility:     m.Visibility,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}
