package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	searchService "github.com/studyloop/backend/internal/modules/search/service"
	"github.com/studyloop/backend/pkg/response"
)

type SearchHandler struct {
	service searchService.SearchService
}

func NewSearchHandler(service searchService.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// GetSearchToken issues a tenant token scoped to what the caller's role is
// allowed to see. The client then talks to Meilisearch directly.
func (h *SearchHandler) GetSearchToken(c *gin.Context) {
	role := response.GetUserRole(c)

	token, err := h.service.GenerateSearchToken(role)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
