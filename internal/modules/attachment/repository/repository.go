package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *entity.Attachment) error
	UpdateReflectionID(ctx context.Context, attachmentIDs []uint, reflectionID uuid.UUID, userID uuid.UUID) error
	UpdateResourceID(ctx context.Context, attachmentIDs []uint, resourceID uuid.UUID, userID uuid.UUID) error
	FindOrphans(ctx context.Context, cutoffTime time.Time) ([]entity.Attachment, error)
	Delete(ctx context.Context, id uint) error
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *entity.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *attachmentRepository) UpdateReflectionID(ctx context.Context, attachmentIDs []uint, reflectionID uuid.UUID, userID uuid.UUID) error {
	// Only the uploader may link, and only to one parent: the row must not
	// already belong to a resource or another reflection.
	return r.db.WithContext(ctx).Model(&entity.Attachment{}).
		Where("id IN ? AND user_id = ?", attachmentIDs, userID).
		Where("(reflection_id IS NULL OR reflection_id = ?) AND resource_id IS NULL", reflectionID).
		Update("reflection_id", reflectionID).Error
}

func (r *attachmentRepository) UpdateResourceID(ctx context.Context, attachmentIDs []uint, resourceID uuid.UUID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.Attachment{}).
		Where("id IN ? AND user_id = ?", attachmentIDs, userID).
		Where("reflection_id IS NULL AND (resource_id IS NULL OR resource_id = ?)", resourceID).
		Update("resource_id", resourceID).Error
}

func (r *attachmentRepository) FindOrphans(ctx context.Context, cutoffTime time.Time) ([]entity.Attachment, error) {
	var attachments []entity.Attachment
	err := r.db.WithContext(ctx).
		Where("reflection_id IS NULL AND resource_id IS NULL AND created_at < ?", cutoffTime).
		Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Attachment{}, id).Error
}
