package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
)

type ReflectionRepository interface {
	Create(reflection *entity.Reflection) error
	FindByID(id uuid.UUID) (*entity.Reflection, error)
	ListByUser(userID uuid.UUID, limit, offset int) ([]entity.Reflection, int64, error)
	ListByVideo(videoID uuid.UUID, userID uuid.UUID) ([]entity.Reflection, error)
	ListUnreviewed(limit, offset int) ([]entity.Reflection, int64, error)
	MarkReviewed(id, reviewerID uuid.UUID, at time.Time) error
}

type reflectionRepository struct {
	db *gorm.DB
}

func NewReflectionRepository(db *gorm.DB) ReflectionRepository {
	return &reflectionRepository{db: db}
}

func (r *reflectionRepository) Create(reflection *entity.Reflection) error {
	return r.db.Create(reflection).Error
}

func (r *reflectionRepository) FindByID(id uuid.UUID) (*entity.Reflection, error) {
	var reflection entity.Reflection
	err := r.db.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username", "avatar_url")
	}).Preload("Video").First(&reflection, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &reflection, nil
}

func (r *reflectionRepository) ListByUser(userID uuid.UUID, limit, offset int) ([]entity.Reflection, int64, error) {
	q := r.db.Model(&entity.Reflection{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reflections []entity.Reflection
	err := q.Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Preload("Video").
		Find(&reflections).Error
	return reflections, total, err
}

func (r *reflectionRepository) ListByVideo(videoID uuid.UUID, userID uuid.UUID) ([]entity.Reflection, error) {
	var reflections []entity.Reflection
	err := r.db.Where("video_id = ? AND user_id = ?", videoID, userID).
		Order("video_timestamp_sec asc, created_at asc").
		Find(&reflections).Error
	return reflections, err
}

func (r *reflectionRepository) ListUnreviewed(limit, offset int) ([]entity.Reflection, int64, error) {
	q := r.db.Model(&entity.Reflection{}).Where("reviewed_at IS NULL")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reflections []entity.Reflection
	err := q.Order("created_at asc").
		Limit(limit).
		Offset(offset).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "avatar_url")
		}).
		Preload("Video").
		Find(&reflections).Error
	return reflections, total, err
}

func (r *reflectionRepository) MarkReviewed(id, reviewerID uuid.UUID, at time.Time) error {
	res := r.db.Model(&entity.Reflection{}).
		Where("id = ? AND reviewed_at IS NULL", id).
		Updates(map[string]interface{}{
			"reviewed_at": at,
			"reviewed_by": reviewerID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
