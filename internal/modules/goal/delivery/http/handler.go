package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	goalDto "github.com/studyloop/backend/internal/modules/goal/dto"
	goalService "github.com/studyloop/backend/internal/modules/goal/service"
	"github.com/studyloop/backend/pkg/apperror"
	"github.com/studyloop/backend/pkg/response"
	"github.com/studyloop/backend/pkg/validator"
)

type GoalHandler struct {
	service goalService.GoalService
}

func NewGoalHandler(service goalService.GoalService) *GoalHandler {
	return &GoalHandler{service: service}
}

// Track catalog

func (h *GoalHandler) ListTracks(c *gin.Context) {
	tracks, err := h.service.ListTracks()
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tracks})
}

func (h *GoalHandler) GetTrackBySlug(c *gin.Context) {
	track, err := h.service.GetTrackBySlug(c.Param("slug"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": track})
}

func (h *GoalHandler) CreateTrack(c *gin.Context) {
	var req goalDto.CreateTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	track, err := h.service.CreateTrack(req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": track})
}

func (h *GoalHandler) UpdateTrack(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var req goalDto.UpdateTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	track, err := h.service.UpdateTrack(id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": track})
}

func (h *GoalHandler) DeleteTrack(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	if err := h.service.DeleteTrack(id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Track deleted"})
}

func (h *GoalHandler) CreateGoal(c *gin.Context) {
	trackID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var req goalDto.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	goal, err := h.service.CreateGoal(trackID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": goal})
}

func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var req goalDto.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	goal, err := h.service.UpdateGoal(id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": goal})
}

func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	if err := h.service.DeleteGoal(id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted"})
}

// Assignments

func (h *GoalHandler) AssignGoal(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req goalDto.AssignGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	trackID, _ := uuid.Parse(req.TrackID)
	goalID, _ := uuid.Parse(req.GoalID)

	assignment, err := h.service.AssignGoal(c.Request.Context(), userID, trackID, goalID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assignment})
}

func (h *GoalHandler) CompleteActiveGoal(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	assignment, err := h.service.CompleteActiveGoal(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assignment})
}

func (h *GoalHandler) AbandonActiveGoal(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.AbandonActiveGoal(c.Request.Context(), userID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Goal abandoned"})
}

func (h *GoalHandler) GetMyActiveAssignment(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	assignment, err := h.service.GetActiveAssignment(userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assignment})
}

func (h *GoalHandler) GetMyAssignmentHistory(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	history, err := h.service.GetAssignmentHistory(userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history})
}

// RemoveAssignment is an admin escape hatch for corrupt assignment rows.
func (h *GoalHandler) RemoveAssignment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	if err := h.service.RemoveAssignment(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment removed"})
}
