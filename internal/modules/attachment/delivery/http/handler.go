package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	attachmentDto "github.com/studyloop/backend/internal/modules/attachment/dto"
	attachmentService "github.com/studyloop/backend/internal/modules/attachment/service"
	"github.com/studyloop/backend/pkg/apperror"
	"github.com/studyloop/backend/pkg/response"
	"github.com/studyloop/backend/pkg/validator"
)

type AttachmentHandler struct {
	service attachmentService.AttachmentService
}

func NewAttachmentHandler(service attachmentService.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	resp, err := h.service.UploadAttachment(c.Request.Context(), userID, file)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (h *AttachmentHandler) LinkToResource(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var req attachmentDto.LinkAttachmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.LinkToResource(c.Request.Context(), userID, resourceID, req.AttachmentIDs); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attachments linked"})
}
