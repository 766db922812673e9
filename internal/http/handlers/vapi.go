package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kon-rad/juego-sub000/internal/http/response"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/services"
)

// maxWebhookBody bounds provider webhook payloads; end-of-call reports carry transcripts.
const maxWebhookBody = 4 << 20

type VapiHandler struct {
	log   *logger.Logger
	voice services.VoiceService
}

func NewVapiHandler(log *logger.Logger, voice services.VoiceService) *VapiHandler {
	return &VapiHandler{log: log.With("handler", "VapiHandler"), voice: voice}
}

type initiateCallReq struct {
	PlayerID    string `json:"playerId"`
	CharacterID string `json:"characterId"`
	PhoneNumber string `json:"phoneNumber"`
}

// POST /api/vapi/initiate
func (h *VapiHandler) Initiate(c *gin.Context) {
	var req initiateCallReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	call, err := h.voice.Initiate(c.Request.Context(), services.InitiateCallInput{
		PlayerID:    req.PlayerID,
		CharacterID: req.CharacterID,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		response.RespondAPIError(c, err, "initiate_call_failed")
		return
	}
	response.RespondOK(c, gin.H{"call": call})
}

type webTokenReq struct {
	PlayerID    string `json:"playerId"`
	CharacterID string `json:"characterId"`
}

// POST /api/vapi/web-token
func (h *VapiHandler) WebToken(c *gin.Context) {
	var req webTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.voice.WebToken(c.Request.Context(), req.PlayerID, req.CharacterID)
	if err != nil {
		response.RespondAPIError(c, err, "web_token_failed")
		return
	}
	response.RespondOK(c, res)
}

// GET /api/vapi/call/:callId
func (h *VapiHandler) GetCall(c *gin.Context) {
	call, err := h.voice.GetCall(c.Request.Context(), c.Param("callId"))
	if err != nil {
		response.RespondAPIError(c, err, "get_call_failed")
		return
	}
	response.RespondOK(c, gin.H{"call": call})
}

// POST /api/vapi/call/:callId/end
func (h *VapiHandler) EndCall(c *gin.Context) {
	call, err := h.voice.EndCall(c.Request.Context(), c.Param("callId"))
	if err != nil {
		response.RespondAPIError(c, err, "end_call_failed")
		return
	}
	response.RespondOK(c, gin.H{"call": call})
}

// POST /api/vapi/webhook always answers 200 so the provider does not retry.
func (h *VapiHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err == nil {
		err = h.voice.HandleWebhook(c.Request.Context(), body)
	}
	if err != nil {
		h.log.Warn("webhook processing failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"received": true, "error": "Processing error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
