package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kon-rad/juego-sub000/internal/http/response"
	"github.com/kon-rad/juego-sub000/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type createConversationReq struct {
	Participants []string `json:"participants"`
}

// POST /api/chat/conversation
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	var req createConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Participants) != 2 {
		response.RespondError(c, http.StatusBadRequest, "invalid_participants", errTwoParticipants)
		return
	}
	chat, err := h.chat.CreateConversation(c.Request.Context(), req.Participants[0], req.Participants[1])
	if err != nil {
		response.RespondAPIError(c, err, "create_conversation_failed")
		return
	}
	response.RespondOK(c, gin.H{"chat": chat})
}

// GET /api/chat/:id/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	chats, err := h.chat.ListConversations(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err, "list_conversations_failed")
		return
	}
	response.RespondOK(c, gin.H{"chats": chats})
}

// GET /api/chat/:id/messages?limit=50
func (h *ChatHandler) ListMessages(c *gin.Context) {
	limit := services.DefaultMessageLimit
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	msgs, err := h.chat.ListMessages(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.RespondAPIError(c, err, "list_messages_failed")
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}

type sendMessageReq struct {
	SenderID string `json:"senderId"`
	Content  string `json:"content"`
}

// POST /api/chat/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	msg, err := h.chat.SendMessage(c.Request.Context(), c.Param("id"), req.SenderID, req.Content)
	if err != nil {
		response.RespondAPIError(c, err, "send_message_failed")
		return
	}
	response.RespondCreated(c, gin.H{"message": msg})
}
