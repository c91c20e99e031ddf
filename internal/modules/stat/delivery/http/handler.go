package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	statService "github.com/studyloop/backend/internal/modules/stat/service"
	"github.com/studyloop/backend/pkg/response"
)

type StatHandler struct {
	service statService.StatService
}

func NewStatHandler(service statService.StatService) *StatHandler {
	return &StatHandler{service: service}
}

func (h *StatHandler) GetPlatformTotals(c *gin.Context) {
	totals, err := h.service.GetPlatformTotals(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": totals})
}

func (h *StatHandler) GetMyGoalProgress(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	progress, err := h.service.GetMyGoalProgress(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": progress})
}

func (h *StatHandler) GetReviewQueueCount(c *gin.Context) {
	count, err := h.service.GetReviewQueueCount(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreviewed_reflections": count})
}
