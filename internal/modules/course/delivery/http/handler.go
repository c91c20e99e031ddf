package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	courseDto "github.com/studyloop/backend/internal/modules/course/dto"
	courseService "github.com/studyloop/backend/internal/modules/course/service"
	"github.com/studyloop/backend/pkg/apperror"
	commonDto "github.com/studyloop/backend/pkg/dto"
	"github.com/studyloop/backend/pkg/response"
	"github.com/studyloop/backend/pkg/validator"
)

type CourseHandler struct {
	service courseService.CourseService
}

func NewCourseHandler(service courseService.CourseService) *CourseHandler {
	return &CourseHandler{service: service}
}

func (h *CourseHandler) ListCourses(c *gin.Context) {
	var filter commonDto.CourseFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	courses, total, err := h.service.ListCourses(filter, response.GetUserRole(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	c.JSON(http.StatusOK, gin.H{
		"data": courses,
		"meta": commonDto.NewPaginationMeta(page, limit, total),
	})
}

func (h *CourseHandler) GetCourseBySlug(c *gin.Context) {
	course, err := h.service.GetCourseBySlug(c.Param("slug"), response.GetUserRole(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": course})
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req courseDto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	course, err := h.service.CreateCourse(userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": course})
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var req courseDto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	course, err := h.service.UpdateCourse(userID, response.GetUserRole(c), courseID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": course})
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	if err := h.service.DeleteCourse(userID, response.GetUserRole(c), courseID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}

func (h *CourseHandler) AddVideo(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var req courseDto.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	video, err := h.service.AddVideo(userID, response.GetUserRole(c), courseID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": video})
}

func (h *CourseHandler) UpdateVideo(c *gin.Context) {
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

	var req courseDto.UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	video, err := h.service.UpdateVideo(userID, response.GetUserRole(c), videoID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": video})
}

func (h *CourseHandler) DeleteVideo(c *gin.Context) {
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

	if err := h.service.DeleteVideo(userID, response.GetUserRole(c), videoID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Video deleted"})
}

func (h *CourseHandler) Enroll(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	enrollment, err := h.service.Enroll(userID, courseID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": enrollment})
}

func (h *CourseHandler) ListMyEnrollments(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	enrollments, err := h.service.ListMyEnrollments(userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": enrollments})
}

func (h *CourseHandler) UpdateProgress(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var req courseDto.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	enrollment, err := h.service.UpdateProgress(c.Request.Context(), userID, courseID, req.ProgressPercent)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": enrollment})
}
