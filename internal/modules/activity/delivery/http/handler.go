package http

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	activityService "github.com/studyloop/backend/internal/modules/activity/service"
	"github.com/studyloop/backend/pkg/apperror"
	"github.com/studyloop/backend/pkg/dto"
	"github.com/studyloop/backend/pkg/response"
	"github.com/studyloop/backend/pkg/validator"
)

type ActivityHandler struct {
	service     activityService.ActivityService
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

func NewActivityHandler(service activityService.ActivityService, redisClient *redis.Client) *ActivityHandler {
	return &ActivityHandler{
		service:     service,
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// GetMyFeed returns the caller's own feed, private entries included.
func (h *ActivityHandler) GetMyFeed(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var filter dto.ActivityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.GetMyFeed(userID, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPublicFeed returns the community feed of public entries across users.
func (h *ActivityHandler) GetPublicFeed(c *gin.Context) {
	var filter dto.ActivityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.GetPublicFeed(filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUserFeed returns another user's feed, filtered to public entries
// unless the viewer is looking at their own.
func (h *ActivityHandler) GetUserFeed(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var filter dto.ActivityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.GetUserFeed(viewerID, targetID, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleWebSocket streams freshly projected records to the client. The
// subscription covers the caller's own channel plus the public firehose.
func (h *ActivityHandler) HandleWebSocket(c *gin.Context) {
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	if h.redisClient == nil {
		log.Println("Redis client is nil, cannot subscribe")
		return
	}

	ownChannel := fmt.Sprintf("activity_feed:%s", userIDStr)
	pubsub := h.redisClient.Subscribe(c.Request.Context(), ownChannel, "activity_feed:public")
	defer pubsub.Close()

	if _, err = pubsub.Receive(c.Request.Context()); err != nil {
		log.Printf("Failed to subscribe to redis channel: %v", err)
		return
	}

	ch := pubsub.Channel()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-ch:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("Failed to write message to websocket: %v", err)
				return
			}
		case <-clientClosed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
