package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studyloop/backend/internal/entity"
	attachmentDto "github.com/studyloop/backend/internal/modules/attachment/dto"
	attachmentRepo "github.com/studyloop/backend/internal/modules/attachment/repository"
	"github.com/studyloop/backend/pkg/apperror"
	"github.com/studyloop/backend/pkg/storage"
)

// Uploads not linked to a reflection or resource within this window are
// treated as abandoned by the cleanup job.
const orphanTTL = 24 * time.Hour

type AttachmentService interface {
	UploadAttachment(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*attachmentDto.UploadAttachmentResponse, error)
	LinkToReflection(ctx context.Context, userID uuid.UUID, reflectionID uuid.UUID, attachmentIDs []uint) error
	LinkToResource(ctx context.Context, userID uuid.UUID, resourceID uuid.UUID, attachmentIDs []uint) error
	// CleanupOrphans removes attachments that never got a parent, both the
	// database rows and the stored assets. Returns the number removed.
	CleanupOrphans(ctx context.Context) (int, error)
}

type attachmentService struct {
	repo  attachmentRepo.AttachmentRepository
	media storage.MediaStorage
}

func NewAttachmentService(repo attachmentRepo.AttachmentRepository, media storage.MediaStorage) AttachmentService {
	return &attachmentService{
		repo:  repo,
		media: media,
	}
}

func (s *attachmentService) UploadAttachment(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*attachmentDto.UploadAttachmentResponse, error) {
	if s.media == nil {
		return nil, fmt.Errorf("%w: media storage is not configured", apperror.ErrUnavailable)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")

	var fileURL string
	switch fileType {
	case "jpg", "jpeg", "png", "gif", "webp", "bmp":
		fileURL, err = s.media.UploadImage(ctx, src, "attachments", file.Filename)
	default:
		fileURL, err = s.media.UploadFile(ctx, src, "attachments", file.Filename)
	}
	if err != nil {
		return nil, err
	}

	attachment := &entity.Attachment{
		UserID:   userID,
		FileURL:  fileURL,
		FileType: fileType,
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		return nil, err
	}

	return &attachmentDto.UploadAttachmentResponse{
		ID:       attachment.ID,
		FileURL:  attachment.FileURL,
		FileType: attachment.FileType,
	}, nil
}

func (s *attachmentService) LinkToReflection(ctx context.Context, userID uuid.UUID, reflectionID uuid.UUID, attachmentIDs []uint) error {
	return s.repo.UpdateReflectionID(ctx, attachmentIDs, reflectionID, userID)
}

func (s *attachmentService) LinkToResource(ctx context.Context, userID uuid.UUID, resourceID uuid.UUID, attachmentIDs []uint) error {
	return s.repo.UpdateResourceID(ctx, attachmentIDs, resourceID, userID)
}

func (s *attachmentService) CleanupOrphans(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-orphanTTL)

	orphans, err := s.repo.FindOrphans(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, orphan := range orphans {
		if s.media != nil {
			if err := s.media.Delete(ctx, orphan.FileURL); err != nil {
				log.Printf("❌ Failed to delete orphan attachment asset %d: %v", orphan.ID, err)
				continue
			}
		}
		if err := s.repo.Delete(ctx, orphan.ID); err != nil {
			log.Printf("❌ Failed to delete orphan attachment row %d: %v", orphan.ID, err)
			continue
		}
		removed++
	}

	return removed, nil
}
