package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	profileDto "github.com/studyloop/backend/internal/modules/profile/dto"
	profileService "github.com/studyloop/backend/internal/modules/profile/service"
	"github.com/studyloop/backend/pkg/response"
	"github.com/studyloop/backend/pkg/validator"
)

type ProfileHandler struct {
	service profileService.ProfileService
}

func NewProfileHandler(service profileService.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	profile, err := h.service.GetByUserID(userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profile})
}

func (h *ProfileHandler) GetUserProfile(c *gin.Context) {
	profile, err := h.service.GetByUsername(c.Param("username"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profile})
}

func (h *ProfileHandler) UpdateMyProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req profileDto.UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	avatar, _ := c.FormFile("avatar")

	profile, err := h.service.UpdateMyProfile(c.Request.Context(), userID, req, avatar)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profile})
}
