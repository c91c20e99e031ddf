package dto

import (
	"time"

	"github.com/google/uuid"
)

type AuthorResponse struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

// NewPaginationMeta computes total pages for a page/limit/total triple.
func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	return PaginationMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       limit,
	}
}

type CourseFilter struct {
	Search string `form:"search"`
	SortBy string `form:"sort_by"` // "newest", "popular"
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// ActivityFilter narrows a feed listing. Kinds is comma separated in the query
// string ("quiz,reflection_text").
type ActivityFilter struct {
	Kinds      string `form:"kinds"`
	GoalID     string `form:"goal_id" binding:"omitempty,uuid"`
	From       string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Visibility string `form:"visibility" binding:"omitempty,oneof=public private"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

type ActivityResponse struct {
	ID                uuid.UUID  `json:"id"`
	Kind              string     `json:"kind"`
	Author            AuthorResponse `json:"author"`
	ContentPreview    string     `json:"content_preview"`
	VideoTitle        *string    `json:"video_title,omitempty"`
	CourseTitle       *string    `json:"course_title,omitempty"`
	GoalTitle         *string    `json:"goal_title,omitempty"`
	VideoTimestampSec *int       `json:"video_timestamp_sec,omitempty"`
	Visibility        string     `json:"visibility"`
	CreatedAt         time.Time  `json:"created_at"`
}

type PaginatedActivityResponse struct {
	Data []ActivityResponse `json:"data"`
	Meta PaginationMeta     `json:"meta"`
}
