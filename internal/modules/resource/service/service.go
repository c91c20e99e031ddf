package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	resourceDto "github.com/studyloop/backend/internal/modules/resource/dto"
	resourceRepo "github.com/studyloop/backend/internal/modules/resource/repository"
	searchService "github.com/studyloop/backend/internal/modules/search/service"
	"github.com/studyloop/backend/pkg/apperror"
	"github.com/studyloop/backend/pkg/dto"
	"github.com/studyloop/backend/pkg/storage"
)

type ResourceService interface {
	CreateResource(ctx context.Context, uploaderID uuid.UUID, req resourceDto.CreateResourceRequest, file *multipart.FileHeader) (*resourceDto.ResourceResponse, error)
	UpdateResource(ctx context.Context, userID uuid.UUID, userRole string, id uuid.UUID, req resourceDto.UpdateResourceRequest) (*resourceDto.ResourceResponse, error)
	DeleteResource(ctx context.Context, userID uuid.UUID, userRole string, id uuid.UUID) error
	GetResource(id uuid.UUID, userRole string) (*resourceDto.ResourceResponse, error)
	ListResources(filter resourceDto.ResourceFilter, userRole string) (*resourceDto.PaginatedResourceResponse, error)
}

type resourceService struct {
	repo   resourceRepo.ResourceRepository
	media  storage.MediaStorage
	search searchService.SearchService
}

func NewResourceService(repo resourceRepo.ResourceRepository, media storage.MediaStorage, search searchService.SearchService) ResourceService {
	return &resourceService{
		repo:   repo,
		media:  media,
		search: search,
	}
}

// audiencesForRole returns the audience values a role may see. nil means
// no restriction (admins).
func audiencesForRole(role string) []string {
	switch role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleInstructor:
		return []string{"all", "instructor"}
	default:
		return []string{"all", "student"}
	}
}

func (s *resourceService) CreateResource(ctx context.Context, uploaderID uuid.UUID, req resourceDto.CreateResourceRequest, file *multipart.FileHeader) (*resourceDto.ResourceResponse, error) {
	audience := req.Audience
	if audience == "" {
		audience = "all"
	}

	resource := &entity.Resource{
		UploaderID:  uploaderID,
		Title:       req.Title,
		Description: req.Description,
		Audience:    audience,
		LinkURL:     req.LinkURL,
	}

	if file != nil {
		if s.media == nil {
			return nil, fmt.Errorf("%w: media storage is not configured", apperror.ErrUnavailable)
		}
		src, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		defer src.Close()

		fileURL, err := s.media.UploadFile(ctx, src, "resources", file.Filename)
		if err != nil {
			return nil, err
		}
		resource.FileURL = &fileURL
	}

	if resource.FileURL == nil && resource.LinkURL == nil {
		return nil, fmt.Errorf("%w: a resource needs a file or a link", apperror.ErrInvalidInput)
	}

	if err := s.repo.Create(resource); err != nil {
		return nil, err
	}

	s.syncIndex(resource)

	return s.GetResource(resource.ID, entity.RoleAdmin)
}

func (s *resourceService) UpdateResource(ctx context.Context, userID uuid.UUID, userRole string, id uuid.UUID, req resourceDto.UpdateResourceRequest) (*resourceDto.ResourceResponse, error) {
	resource, err := s.findOwnedResource(userID, userRole, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		resource.Title = *req.Title
	}
	if req.Description != nil {
		resource.Description = *req.Description
	}
	if req.Audience != nil {
		resource.Audience = *req.Audience
	}
	if req.LinkURL != nil {
		resource.LinkURL = req.LinkURL
	}

	if err := s.repo.Update(resource); err != nil {
		return nil, err
	}

	s.syncIndex(resource)

	return s.GetResource(resource.ID, entity.RoleAdmin)
}

func (s *resourceService) DeleteResource(ctx context.Context, userID uuid.UUID, userRole string, id uuid.UUID) error {
	resource, err := s.findOwnedResource(userID, userRole, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(resource.ID); err != nil {
		return err
	}

	if resource.FileURL != nil && s.media != nil {
		if err := s.media.Delete(ctx, *resource.FileURL); err != nil {
			log.Printf("❌ Failed to delete resource file from storage: %v", err)
		}
	}

	if s.search != nil {
		go func(resourceID string) {
			if err := s.search.DeleteResource(resourceID); err != nil {
				log.Printf("❌ Failed to deindex resource %s: %v", resourceID, err)
			}
		}(resource.ID.String())
	}

	return nil
}

func (s *resourceService) GetResource(id uuid.UUID, userRole string) (*resourceDto.ResourceResponse, error) {
	resource, err := s.repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if audiences := audiencesForRole(userRole); audiences != nil {
		visible := false
		for _, a := range audiences {
			if resource.Audience == a {
				visible = true
				break
			}
		}
		if !visible {
			return nil, apperror.ErrNotFound
		}
	}

	return toResourceResponse(resource), nil
}

func (s *resourceService) ListResources(filter resourceDto.ResourceFilter, userRole string) (*resourceDto.PaginatedResourceResponse, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	resources, total, err := s.repo.List(filter, audiencesForRole(userRole))
	if err != nil {
		return nil, err
	}

	items := make([]resourceDto.ResourceResponse, 0, len(resources))
	for i := range resources {
		items = append(items, *toResourceResponse(&resources[i]))
	}

	return &resourceDto.PaginatedResourceResponse{
		Data: items,
		Meta: dto.NewPaginationMeta(page, limit, total),
	}, nil
}

func (s *resourceService) findOwnedResource(userID uuid.UUID, userRole string, id uuid.UUID) (*entity.Resource, error) {
	resource, err := s.repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if resource.UploaderID != userID && userRole != entity.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return resource, nil
}

func (s *resourceService) syncIndex(resource *entity.Resource) {
	if s.search == nil {
		return
	}
	go func(res entity.Resource) {
		if err := s.search.IndexResource(&res); err != nil {
			log.Printf("❌ Failed to index resource %s: %v", res.ID, err)
		}
	}(*resource)
}

func toResourceResponse(resource *entity.Resource) *resourceDto.ResourceResponse {
	return &resourceDto.ResourceResponse{
		ID:          resource.ID,
		Title:       resource.Title,
		Description: resource.Description,
		Audience:    resource.Audience,
		FileURL:     resource.FileURL,
		LinkURL:     resource.LinkURL,
		Uploader: dto.AuthorResponse{
			Username:  resource.Uploader.Username,
			AvatarURL: resource.Uploader.AvatarURL,
		},
		CreatedAt: resource.CreatedAt,
		UpdatedAt: resource.UpdatedAt,
	}
}
