package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	"github.com/kon-rad/juego-sub000/internal/http/response"
	"github.com/kon-rad/juego-sub000/internal/services"
)

type GameHandler struct {
	game services.GameService
}

func NewGameHandler(game services.GameService) *GameHandler {
	return &GameHandler{game: game}
}

// GET /api/game/world
func (h *GameHandler) GetWorld(c *gin.Context) {
	w, err := h.game.GetWorld(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "get_world_failed")
		return
	}
	response.RespondOK(c, gin.H{"world": w})
}

// POST /api/game/world/init
func (h *GameHandler) InitWorld(c *gin.Context) {
	w, err := h.game.InitWorld(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "init_world_failed")
		return
	}
	response.RespondOK(c, gin.H{"world": w})
}

// GET /api/game/players
func (h *GameHandler) ListPlayers(c *gin.Context) {
	players, err := h.game.ListPlayers(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_players_failed")
		return
	}
	response.RespondOK(c, gin.H{"players": players})
}

// GET /api/game/player/:id
func (h *GameHandler) GetPlayer(c *gin.Context) {
	p, err := h.game.GetPlayer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err, "get_player_failed")
		return
	}
	response.RespondOK(c, gin.H{"player": p})
}

type upsertPlayerReq struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// POST /api/game/player
func (h *GameHandler) UpsertPlayer(c *gin.Context) {
	var req upsertPlayerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.game.UpsertPlayer(c.Request.Context(), services.PlayerInput{
		ID:    req.ID,
		Name:  req.Name,
		Color: req.Color,
		X:     req.X,
		Y:     req.Y,
	})
	if err != nil {
		response.RespondAPIError(c, err, "upsert_player_failed")
		return
	}
	response.RespondOK(c, gin.H{"player": p})
}

type profileReq struct {
	Name      *string `json:"name"`
	Color     *string `json:"color"`
	Bio       *string `json:"bio"`
	Interests *string `json:"interests"`
	Level     *int    `json:"level"`
}

// PUT /api/game/player/:id/profile
func (h *GameHandler) UpdateProfile(c *gin.Context) {
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.game.UpdateProfile(c.Request.Context(), c.Param("id"), repos.ProfileUpdate{
		Name:      req.Name,
		Color:     req.Color,
		Bio:       req.Bio,
		Interests: req.Interests,
		Level:     req.Level,
	})
	if err != nil {
		response.RespondAPIError(c, err, "update_profile_failed")
		return
	}
	response.RespondOK(c, gin.H{"player": p})
}

// DELETE /api/game/player/:id
func (h *GameHandler) DeletePlayer(c *gin.Context) {
	if err := h.game.DeletePlayer(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondAPIError(c, err, "delete_player_failed")
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
