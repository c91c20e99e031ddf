package http

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	messageDto "github.com/studyloop/backend/internal/modules/message/dto"
	messageService "github.com/studyloop/backend/internal/modules/message/service"
	"github.com/studyloop/backend/pkg/apperror"
	commonDto "github.com/studyloop/backend/pkg/dto"
	"github.com/studyloop/backend/pkg/response"
	"github.com/studyloop/backend/pkg/validator"
)

type MessageHandler struct {
	service     messageService.MessageService
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

func NewMessageHandler(service messageService.MessageService, redisClient *redis.Client) *MessageHandler {
	return &MessageHandler{
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

func (h *MessageHandler) StartConversation(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req messageDto.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	instructorID, _ := uuid.Parse(req.InstructorID)

	conversation, err := h.service.StartConversation(userID, instructorID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": conversation})
}

func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	conversations, err := h.service.ListConversations(userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": conversations})
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var req messageDto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), userID, conversationID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": msg})
}

func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, total, err := h.service.ListMessages(conversationID, userID, page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": messages,
		"meta": commonDto.NewPaginationMeta(page, limit, total),
	})
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	if err := h.service.MarkRead(conversationID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation marked as read"})
}

func (h *MessageHandler) UpdateDraft(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	var req messageDto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	msg, err := h.service.UpdateDraft(userID, messageID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msg})
}

func (h *MessageHandler) DeleteDraft(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	if err := h.service.DeleteDraft(userID, messageID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draft deleted"})
}

func (h *MessageHandler) PublishDraft(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	msg, err := h.service.PublishDraft(c.Request.Context(), userID, messageID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msg})
}

// HandleWebSocket streams a conversation's live messages to a participant.
func (h *MessageHandler) HandleWebSocket(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}

	ok, err := h.service.IsParticipant(conversationID, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !ok {
		response.ResponseError(c, apperror.ErrForbidden)
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

	channel := fmt.Sprintf("conversation:%s", conversationID.String())
	pubsub := h.redisClient.Subscribe(c.Request.Context(), channel)
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
