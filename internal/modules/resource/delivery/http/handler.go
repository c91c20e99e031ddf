package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	resourceDto "github.com/studyloop/backend/internal/modules/resource/dto"
	resourceService "github.com/studyloop/backend/internal/modules/resource/service"
	"github.com/studyloop/backend/pkg/apperror"
	"github.com/studyloop/backend/pkg/response"
	"github.com/studyloop/backend/pkg/validator"
)

type ResourceHandler struct {
	service resourceService.ResourceService
}

func NewResourceHandler(service resourceService.ResourceService) *ResourceHandler {
	return &ResourceHandler{service: service}
}

func (h *ResourceHandler) CreateResource(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req resourceDto.CreateResourceRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	file, _ := c.FormFile("file")

	resource, err := h.service.CreateResource(c.Request.Context(), userID, req, file)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resource})
}

func (h *ResourceHandler) UpdateResource(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var req resourceDto.UpdateResourceRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resource, err := h.service.UpdateResource(c.Request.Context(), userID, response.GetUserRole(c), id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resource})
}

func (h *ResourceHandler) DeleteResource(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	if err := h.service.DeleteResource(c.Request.Context(), userID, response.GetUserRole(c), id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "resource deleted"})
}

func (h *ResourceHandler) GetResource(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	resource, err := h.service.GetResource(id, response.GetUserRole(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resource})
}

func (h *ResourceHandler) ListResources(c *gin.Context) {
	var filter resourceDto.ResourceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resources, err := h.service.ListResources(filter, response.GetUserRole(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resources)
}
