package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/http/response"
	"github.com/kon-rad/juego-sub000/internal/services"
)

type TeacherHandler struct {
	teachers services.TeacherService
}

func NewTeacherHandler(teachers services.TeacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// GET /api/teacher
func (h *TeacherHandler) List(c *gin.Context) {
	teachers, err := h.teachers.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_teachers_failed")
		return
	}
	response.RespondOK(c, gin.H{"teachers": teachers})
}

// GET /api/teacher/:id
func (h *TeacherHandler) Get(c *gin.Context) {
	t, err := h.teachers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err, "get_teacher_failed")
		return
	}
	response.RespondOK(c, gin.H{"teacher": t})
}

type positionReq struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// POST /api/teacher/check-position
func (h *TeacherHandler) CheckPosition(c *gin.Context) {
	var req positionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.X == nil || req.Y == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_position", errMissingXY)
		return
	}
	res, err := h.teachers.CheckPosition(c.Request.Context(), *req.X, *req.Y)
	if err != nil {
		response.RespondAPIError(c, err, "check_position_failed")
		return
	}
	response.RespondOK(c, res)
}

type createTeacherReq struct {
	Topic        string   `json:"topic"`
	X            *float64 `json:"x"`
	Y            *float64 `json:"y"`
	CreatedBy    string   `json:"createdBy"`
	Name         string   `json:"name"`
	SystemPrompt string   `json:"systemPrompt"`
	Personality  string   `json:"personality"`
	Color        string   `json:"color"`
}

// POST /api/teacher
func (h *TeacherHandler) Create(c *gin.Context) {
	var req createTeacherReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.X == nil || req.Y == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_position", errMissingXY)
		return
	}
	t, err := h.teachers.Create(c.Request.Context(), services.CreateTeacherInput{
		Topic:        req.Topic,
		X:            *req.X,
		Y:            *req.Y,
		CreatedBy:    req.CreatedBy,
		Name:         req.Name,
		SystemPrompt: req.SystemPrompt,
		Personality:  req.Personality,
		Color:        req.Color,
	})
	if err != nil {
		response.RespondAPIError(c, err, "create_teacher_failed")
		return
	}
	response.RespondCreated(c, gin.H{"teacher": t})
}

type summonReq struct {
	Topic    string  `json:"topic"`
	PlayerID string  `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// POST /api/teacher/summon
func (h *TeacherHandler) Summon(c *gin.Context) {
	var req summonReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.teachers.Summon(c.Request.Context(), req.Topic, req.PlayerID, types.Point{X: req.X, Y: req.Y})
	if err != nil {
		response.RespondAPIError(c, err, "summon_failed")
		return
	}
	response.RespondOK(c, res)
}

type teacherChatReq struct {
	Message             string              `json:"message"`
	ConversationHistory []services.ChatTurn `json:"conversationHistory"`
	PlayerID            string              `json:"playerId"`
	WalletAddress       string              `json:"walletAddress"`
}

// POST /api/teacher/:id/chat
func (h *TeacherHandler) Chat(c *gin.Context) {
	var req teacherChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.teachers.Chat(c.Request.Context(), c.Param("id"), services.TeacherChatInput{
		Message:       req.Message,
		History:       req.ConversationHistory,
		PlayerID:      req.PlayerID,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		response.RespondAPIError(c, err, "teacher_chat_failed")
		return
	}
	response.RespondOK(c, out)
}

// DELETE /api/teacher/:id
func (h *TeacherHandler) Delete(c *gin.Context) {
	if err := h.teachers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondAPIError(c, err, "delete_teacher_failed")
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
