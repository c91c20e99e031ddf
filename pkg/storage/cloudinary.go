package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// MediaStorage defines the contract for the media storage provider
// (Cloudinary implementation). Reflections upload screenshots and voice
// notes, resources upload arbitrary files.
type MediaStorage interface {
	// UploadImage uploads an image from reader and returns the secure URL.
	// folder is a logical folder in storage (e.g. "reflections").
	UploadImage(ctx context.Context, r io.Reader, folder, fileName string) (string, error)
	// UploadFile uploads a non-image asset (audio, pdf, zip) as-is.
	UploadFile(ctx context.Context, r io.Reader, folder, fileName string) (string, error)
	// Delete removes an asset from storage using its URL.
	Delete(ctx context.Context, fileURL string) error
}

type cloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStorage creates the Cloudinary-backed implementation of MediaStorage.
// It expects CLOUDINARY_URL or individual CLOUDINARY_CLOUD_NAME / CLOUDINARY_API_KEY /
// CLOUDINARY_API_SECRET to be configured in environment variables.
func NewCloudinaryStorage() (MediaStorage, error) {
	// cloudinary.New() automatically reads CLOUDINARY_URL from environment if present.
	cld, err := cloudinary.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	// Ensure HTTPS URLs by default.
	cld.Config.URL.Secure = true

	if cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME"); cloudName != "" {
		cld.Config.Cloud.CloudName = cloudName
	}

	return &cloudinaryStorage{cld: cld}, nil
}

func (s *cloudinaryStorage) UploadImage(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	if s == nil || s.cld == nil {
		return "", fmt.Errorf("cloudinary storage is not initialized")
	}

	params := s.baseParams(folder, fileName)

	// Apply WebP conversion and compression only for images
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".gif", ".webp":
		params.Format = "webp"
		params.Transformation = "q_auto"
	}

	return s.upload(ctx, r, params)
}

func (s *cloudinaryStorage) UploadFile(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	if s == nil || s.cld == nil {
		return "", fmt.Errorf("cloudinary storage is not initialized")
	}

	params := s.baseParams(folder, fileName)
	// "auto" lets cloudinary store audio/video/raw without transformation.
	params.ResourceType = "auto"

	return s.upload(ctx, r, params)
}

func (s *cloudinaryStorage) baseParams(folder, fileName string) uploader.UploadParams {
	publicID := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileName)

	return uploader.UploadParams{
		Folder:         folder,
		UseFilename:    api.Bool(true),
		UniqueFilename: api.Bool(true),
		PublicID:       publicID,
		Overwrite:      api.Bool(false),
	}
}

func (s *cloudinaryStorage) upload(ctx context.Context, r io.Reader, params uploader.UploadParams) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload to cloudinary: %w", err)
	}

	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload succeeded but secure URL is empty")
	}

	return resp.SecureURL, nil
}

func (s *cloudinaryStorage) Delete(ctx context.Context, fileURL string) error {
	if s == nil || s.cld == nil {
		return fmt.Errorf("cloudinary storage is not initialized")
	}

	publicID := s.extractPublicID(fileURL)
	if publicID == "" {
		return fmt.Errorf("could not extract public ID from URL: %s", fileURL)
	}

	// Invalidate: true helps to clear CDN cache
	params := uploader.DestroyParams{
		PublicID:   publicID,
		Invalidate: api.Bool(true),
	}

	resp, err := s.cld.Upload.Destroy(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to delete asset from cloudinary: %w", err)
	}

	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy api returned result: %s", resp.Result)
	}

	return nil
}

// extractPublicID attempts to extract the public ID from a Cloudinary URL.
// Example: https://res.cloudinary.com/demo/image/upload/v123456789/folder/sample.jpg -> folder/sample
func (s *cloudinaryStorage) extractPublicID(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}

	// Path is roughly /<cloud_name>/image/upload/v<version>/<folder>/<file>.<ext>
	parts := strings.Split(u.Path, "/")
	uploadIndex := -1
	for i, p := range parts {
		if p == "upload" {
			uploadIndex = i
			break
		}
	}

	if uploadIndex == -1 || uploadIndex+1 >= len(parts) {
		return ""
	}

	relevantParts := parts[uploadIndex+1:]

	// Cloudinary versions start with 'v' followed by numbers.
	if len(relevantParts) > 0 && strings.HasPrefix(relevantParts[0], "v") {
		relevantParts = relevantParts[1:]
	}

	if len(relevantParts) == 0 {
		return ""
	}

	publicIDWithExt := strings.Join(relevantParts, "/")

	ext := filepath.Ext(publicIDWithExt)
	return strings.TrimSuffix(publicIDWithExt, ext)
}
