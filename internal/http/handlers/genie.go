package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/http/response"
	"github.com/kon-rad/juego-sub000/internal/services"
)

type GenieHandler struct {
	genie services.GenieService
}

func NewGenieHandler(genie services.GenieService) *GenieHandler {
	return &GenieHandler{genie: genie}
}

type genieChatReq struct {
	Message             string              `json:"message"`
	LearningTopic       string              `json:"learningTopic"`
	ConversationHistory []services.ChatTurn `json:"conversationHistory"`
	PlayerID            string              `json:"playerId"`
	PlayerPosition      *types.Point        `json:"playerPosition"`
}

// POST /api/genie/chat
func (h *GenieHandler) Chat(c *gin.Context) {
	var req genieChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.genie.Chat(c.Request.Context(), services.GenieInput{
		Message:        req.Message,
		LearningTopic:  req.LearningTopic,
		History:        req.ConversationHistory,
		PlayerID:       req.PlayerID,
		PlayerPosition: req.PlayerPosition,
	})
	if err != nil {
		response.RespondAPIError(c, err, "genie_chat_failed")
		return
	}
	response.RespondOK(c, out)
}
