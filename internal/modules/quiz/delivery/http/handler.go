package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	quizDto "github.com/studyloop/backend/internal/modules/quiz/dto"
	quizService "github.com/studyloop/backend/internal/modules/quiz/service"
	"github.com/studyloop/backend/pkg/apperror"
	"github.com/studyloop/backend/pkg/response"
	"github.com/studyloop/backend/pkg/validator"
)

type QuizHandler struct {
	service quizService.QuizService
}

func NewQuizHandler(service quizService.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req quizDto.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	quiz, err := h.service.CreateQuiz(req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": quiz})
}

func (h *QuizHandler) ListVideoQuizzes(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	quizzes, err := h.service.ListVideoQuizzes(videoID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quizzes})
}

func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	if err := h.service.DeleteQuiz(id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quiz deleted"})
}

func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var req quizDto.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	attempt, err := h.service.SubmitAttempt(c.Request.Context(), userID, quizID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": attempt})
}

func (h *QuizHandler) ListMyAttempts(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	attempts, err := h.service.ListMyAttempts(userID, quizID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": attempts})
}

func (h *QuizHandler) BestAttempt(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	attempt, err := h.service.BestAttempt(userID, quizID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": attempt})
}
