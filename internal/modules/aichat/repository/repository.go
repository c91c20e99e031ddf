package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
)

type AIChatRepository interface {
	Create(conv *entity.VideoAIConversation) error
	ListByUserAndVideo(userID, videoID uuid.UUID, limit, offset int) ([]entity.VideoAIConversation, int64, error)
	ListByUser(userID uuid.UUID, limit, offset int) ([]entity.VideoAIConversation, int64, error)
}

type aiChatRepository struct {
	db *gorm.DB
}

func NewAIChatRepository(db *gorm.DB) AIChatRepository {
	return &aiChatRepository{db: db}
}

func (r *aiChatRepository) Create(conv *entity.VideoAIConversation) error {
	return r.db.Create(conv).Error
}

func (r *aiChatRepository) ListByUserAndVideo(userID, videoID uuid.UUID, limit, offset int) ([]entity.VideoAIConversation, int64, error) {
	q := r.db.Model(&entity.VideoAIConversation{}).
		Where("user_id = ? AND video_id = ?", userID, videoID)
	return r.list(q, limit, offset)
}

func (r *aiChatRepository) ListByUser(userID uuid.UUID, limit, offset int) ([]entity.VideoAIConversation, int64, error) {
	q := r.db.Model(&entity.VideoAIConversation{}).Where("user_id = ?", userID)
	return r.list(q, limit, offset)
}

func (r *aiChatRepository) list(q *gorm.DB, limit, offset int) ([]entity.VideoAIConversation, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var conversations []entity.VideoAIConversation
	err := q.Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Preload("Video").
		Find(&conversations).Error
	return conversations, total, err
}
