package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyloop/backend/internal/entity"
)

type MessageRepository interface {
	GetOrCreateConversation(studentID, instructorID uuid.UUID) (*entity.Conversation, error)
	FindConversation(id uuid.UUID) (*entity.Conversation, error)
	ListConversations(userID uuid.UUID) ([]entity.Conversation, error)

	CreateMessage(msg *entity.ConversationMessage) error
	FindMessage(id uuid.UUID) (*entity.ConversationMessage, error)
	UpdateDraft(msg *entity.ConversationMessage) error
	DeleteDraft(id, senderID uuid.UUID) error

	// ListMessages returns a conversation's messages with the other
	// party's drafts filtered out.
	ListMessages(conversationID, viewerID uuid.UUID, limit, offset int) ([]entity.ConversationMessage, int64, error)

	// Publish clears the draft flag. Only the sender's own draft
	// publishes; anything else reports not found.
	Publish(id, senderID uuid.UUID) (*entity.ConversationMessage, error)

	MarkRead(conversationID, readerID uuid.UUID, at time.Time) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) GetOrCreateConversation(studentID, instructorID uuid.UUID) (*entity.Conversation, error) {
	conversation := &entity.Conversation{
		StudentID:    studentID,
		InstructorID: instructorID,
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(conversation)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var existing entity.Conversation
		err := r.db.First(&existing, "student_id = ? AND instructor_id = ?", studentID, instructorID).Error
		if err != nil {
			return nil, err
		}
		return &existing, nil
	}
	return conversation, nil
}

func (r *messageRepository) FindConversation(id uuid.UUID) (*entity.Conversation, error) {
	var conversation entity.Conversation
	err := r.db.Preload("Student", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username", "avatar_url")
	}).Preload("Instructor", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username", "avatar_url")
	}).First(&conversation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *messageRepository) ListConversations(userID uuid.UUID) ([]entity.Conversation, error) {
	var conversations []entity.Conversation
	err := r.db.Where("student_id = ? OR instructor_id = ?", userID, userID).
		Order("created_at desc").
		Preload("Student", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "avatar_url")
		}).
		Preload("Instructor", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "avatar_url")
		}).
		Find(&conversations).Error
	return conversations, err
}

func (r *messageRepository) CreateMessage(msg *entity.ConversationMessage) error {
	return r.db.Create(msg).Error
}

func (r *messageRepository) FindMessage(id uuid.UUID) (*entity.ConversationMessage, error) {
	var msg entity.ConversationMessage
	if err := r.db.First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) UpdateDraft(msg *entity.ConversationMessage) error {
	return r.db.Save(msg).Error
}

func (r *messageRepository) DeleteDraft(id, senderID uuid.UUID) error {
	res := r.db.Delete(&entity.ConversationMessage{},
		"id = ? AND sender_id = ? AND is_draft = ?", id, senderID, true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *messageRepository) ListMessages(conversationID, viewerID uuid.UUID, limit, offset int) ([]entity.ConversationMessage, int64, error) {
	q := r.db.Model(&entity.ConversationMessage{}).
		Where("conversation_id = ?", conversationID).
		Where("is_draft = ? OR sender_id = ?", false, viewerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []entity.ConversationMessage
	err := q.Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, total, err
}

func (r *messageRepository) Publish(id, senderID uuid.UUID) (*entity.ConversationMessage, error) {
	var msg entity.ConversationMessage

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&msg, "id = ? AND sender_id = ? AND is_draft = ?", id, senderID, true).Error; err != nil {
			return err
		}
		if err := tx.Model(&msg).Update("is_draft", false).Error; err != nil {
			return err
		}
		msg.IsDraft = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) MarkRead(conversationID, readerID uuid.UUID, at time.Time) error {
	return r.db.Model(&entity.ConversationMessage{}).
		Where("conversation_id = ? AND sender_id != ? AND read_at IS NULL AND is_draft = ?",
			conversationID, readerID, false).
		Update("read_at", at).Error
}
