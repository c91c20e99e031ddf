package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reflectionDto "github.com/studyloop/backend/internal/modules/reflection/dto"
	reflectionService "github.com/studyloop/backend/internal/modules/reflection/service"
	"github.com/studyloop/backend/pkg/apperror"
	commonDto "github.com/studyloop/backend/pkg/dto"
	"github.com/studyloop/backend/pkg/ratelimiter"
	"github.com/studyloop/backend/pkg/response"
	"github.com/studyloop/backend/pkg/validator"
)

type ReflectionHandler struct {
	service reflectionService.ReflectionService
}

func NewReflectionHandler(service reflectionService.ReflectionService) *ReflectionHandler {
	return &ReflectionHandler{service: service}
}

func (h *ReflectionHandler) CreateReflection(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req reflectionDto.CreateReflectionRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	// Optional; only screenshot and voice kinds carry a file.
	file, _ := c.FormFile("file")

	reflection, err := h.service.CreateReflection(c.Request.Context(), userID, req, file)
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

	c.JSON(http.StatusCreated, gin.H{"data": reflection})
}

func (h *ReflectionHandler) ListMyReflections(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	reflections, total, err := h.service.ListMyReflections(userID, page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": reflections,
		"meta": commonDto.NewPaginationMeta(page, limit, total),
	})
}

// ListVideoReflections returns the caller's reflections on one video,
// ordered by position so the player can render markers.
func (h *ReflectionHandler) ListVideoReflections(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	reflections, err := h.service.ListVideoReflections(userID, videoID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reflections})
}

func (h *ReflectionHandler) ListReviewQueue(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	reflections, total, err := h.service.ListReviewQueue(page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": reflections,
		"meta": commonDto.NewPaginationMeta(page, limit, total),
	})
}

func (h *ReflectionHandler) MarkReviewed(c *gin.Context) {
	reviewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	reflectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	if err := h.service.MarkReviewed(reviewerID, reflectionID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reflection reviewed"})
}
