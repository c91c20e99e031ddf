package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	aichatService "github.com/studyloop/backend/internal/modules/aichat/service"
	commonDto "github.com/studyloop/backend/pkg/dto"
	"github.com/studyloop/backend/pkg/ratelimiter"
	"github.com/studyloop/backend/pkg/response"
	"github.com/studyloop/backend/pkg/validator"
)

type askRequest struct {
	VideoID  string `json:"video_id" binding:"omitempty,uuid"`
	Question string `json:"question" binding:"required,min=3,max=2000"`
}

type AIChatHandler struct {
	service aichatService.AIChatService
}

func NewAIChatHandler(service aichatService.AIChatService) *AIChatHandler {
	return &AIChatHandler{service: service}
}

func (h *AIChatHandler) Ask(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	var videoID *uuid.UUID
	if req.VideoID != "" {
		id, _ := uuid.Parse(req.VideoID)
		videoID = &id
	}

	conv, err := h.service.Ask(c.Request.Context(), userID, videoID, req.Question)
	if err != nil {
		var rateLimitErr *ratelimiter.RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       rateLimitErr.Message,
				"retry_after": rateLimitErr.RetryAfter.Seconds(),
			})
			return
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": conv})
}

func (h *AIChatHandler) History(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var videoID *uuid.UUID
	if v := c.Query("video_id"); v != "" {
		id, err := uuid.Parse(v)
		if err == nil {
			videoID = &id
		}
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	conversations, total, err := h.service.History(userID, videoID, page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": conversations,
		"meta": commonDto.NewPaginationMeta(page, limit, total),
	})
}
