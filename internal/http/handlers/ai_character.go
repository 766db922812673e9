package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kon-rad/juego-sub000/internal/http/response"
	"github.com/kon-rad/juego-sub000/internal/services"
)

type AICharacterHandler struct {
	chars services.AICharacterService
}

func NewAICharacterHandler(chars services.AICharacterService) *AICharacterHandler {
	return &AICharacterHandler{chars: chars}
}

// GET /api/ai-character?active=true
func (h *AICharacterHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	chars, err := h.chars.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.RespondAPIError(c, err, "list_characters_failed")
		return
	}
	response.RespondOK(c, gin.H{"characters": chars})
}

// GET /api/ai-character/:id
func (h *AICharacterHandler) Get(c *gin.Context) {
	ch, err := h.chars.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err, "get_character_failed")
		return
	}
	response.RespondOK(c, gin.H{"character": ch})
}

// POST /api/ai-character
func (h *AICharacterHandler) Create(c *gin.Context) {
	var req services.AICharacterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ch, err := h.chars.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "create_character_failed")
		return
	}
	response.RespondCreated(c, gin.H{"character": ch})
}

// PUT /api/ai-character/:id
func (h *AICharacterHandler) Update(c *gin.Context) {
	var req services.AICharacterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ch, err := h.chars.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.RespondAPIError(c, err, "update_character_failed")
		return
	}
	response.RespondOK(c, gin.H{"character": ch})
}

// DELETE /api/ai-character/:id
func (h *AICharacterHandler) Delete(c *gin.Context) {
	if err := h.chars.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondAPIError(c, err, "delete_character_failed")
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

// POST /api/ai-character/seed
func (h *AICharacterHandler) Seed(c *gin.Context) {
	res, err := h.chars.Seed(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "seed_characters_failed")
		return
	}
	response.RespondOK(c, res)
}
