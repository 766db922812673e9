package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kon-rad/juego-sub000/internal/http/response"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /socket
func (h *RealtimeHandler) Socket(c *gin.Context) {
	h.log.Debug("socket upgrade", "remote", c.ClientIP())
	h.hub.ServeWS(c.Writer, c.Request)
}

// GET /api/presence
func (h *RealtimeHandler) Presence(c *gin.Context) {
	response.RespondOK(c, gin.H{"players": h.hub.Presence().Snapshot()})
}
