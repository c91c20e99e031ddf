package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	resourceDto "github.com/studyloop/backend/internal/modules/resource/dto"
)

type ResourceRepository interface {
	Create(resource *entity.Resource) error
	Update(resource *entity.Resource) error
	Delete(id uuid.UUID) error
	FindByID(id uuid.UUID) (*entity.Resource, error)
	// List returns resources visible to the given audiences, newest first.
	List(filter resourceDto.ResourceFilter, audiences []string) ([]entity.Resource, int64, error)
}

type resourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) Create(resource *entity.Resource) error {
	return r.db.Create(resource).Error
}

func (r *resourceRepository) Update(resource *entity.Resource) error {
	return r.db.Save(resource).Error
}

func (r *resourceRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&entity.Resource{}, "id = ?", id).Error
}

func (r *resourceRepository) FindByID(id uuid.UUID) (*entity.Resource, error) {
	var resource entity.Resource
	err := r.db.
		Preload("Uploader", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "avatar_url")
		}).
		Preload("Attachments").
		First(&resource, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *resourceRepository) List(filter resourceDto.ResourceFilter, audiences []string) ([]entity.Resource, int64, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	query := r.db.Model(&entity.Resource{})
	if len(audiences) > 0 {
		query = query.Where("audience IN ?", audiences)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var resources []entity.Resource
	err := query.
		Preload("Uploader", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "avatar_url")
		}).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&resources).Error
	if err != nil {
		return nil, 0, err
	}

	return resources, total, nil
}
