package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyloop/backend/pkg/dto"
)

type CreateResourceRequest struct {
	Title       string  `form:"title" binding:"required,min=3,max=255"`
	Description string  `form:"description" binding:"omitempty,max=5000"`
	Audience    string  `form:"audience" binding:"omitempty,oneof=all instructor student"`
	LinkURL     *string `form:"link_url" binding:"omitempty,url"`
}

type UpdateResourceRequest struct {
	Title       *string `form:"title" binding:"omitempty,min=3,max=255"`
	Description *string `form:"description" binding:"omitempty,max=5000"`
	Audience    *string `form:"audience" binding:"omitempty,oneof=all instructor student"`
	LinkURL     *string `form:"link_url" binding:"omitempty,url"`
}

type ResourceFilter struct {
	Search string `form:"search"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type ResourceResponse struct {
	ID          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Audience    string             `json:"audience"`
	FileURL     *string            `json:"file_url,omitempty"`
	LinkURL     *string            `json:"link_url,omitempty"`
	Uploader    dto.AuthorResponse `json:"uploader"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type PaginatedResourceResponse struct {
	Data []ResourceResponse `json:"data"`
	Meta dto.PaginationMeta `json:"meta"`
}
