package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 200
	maxMessageLength    = 2000
)

// ChatService is direct messaging between two players.
type ChatService interface {
	CreateConversation(ctx context.Context, playerA, playerB string) (*types.Chat, error)
	ListConversations(ctx context.Context, playerID string) ([]*types.Chat, error)
	ListMessages(ctx context.Context, chatID string, limit int) ([]*types.ChatMessage, error)
	SendMessage(ctx context.Context, chatID, senderID, content string) (*types.ChatMessage, error)
}

type chatService struct {
	db       *gorm.DB
	log      *logger.Logger
	chats    repos.ChatRepo
	messages repos.ChatMessageRepo
	players  repos.PlayerRepo
	notify   ChatNotifier
	now      func() time.Time
}

func NewChatService(
	db *gorm.DB,
	baseLog *logger.Logger,
	chatRepo repos.ChatRepo,
	messageRepo repos.ChatMessageRepo,
	playerRepo repos.PlayerRepo,
	notify ChatNotifier,
) ChatService {
	return &chatService{
		db:       db,
		log:      baseLog.With("service", "ChatService"),
		chats:    chatRepo,
		messages: messageRepo,
		players:  playerRepo,
		notify:   notify,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *chatService) CreateConversation(ctx context.Context, playerA, playerB string) (*types.Chat, error) {
	a, b := strings.TrimSpace(playerA), strings.TrimSpace(playerB)
	if a == "" || b == "" {
		return nil, apierr.BadRequest("missing_participants", "two player ids are required")
	}
	if a == b {
		return nil, apierr.BadRequest("invalid_participants", "cannot start a conversation with yourself")
	}
	info := map[string]types.ParticipantInfo{}
	for _, id := range []string{a, b} {
		if pi, ok := s.participantInfo(ctx, id); ok {
			info[id] = pi
		}
	}
	return s.chats.UpsertPair(ctx, a, b, info)
}

func (s *chatService) participantInfo(ctx context.Context, playerID string) (types.ParticipantInfo, bool) {
	if s.players == nil {
		return types.ParticipantInfo{}, false
	}
	p, err := s.players.GetByID(ctx, s.db, playerID)
	if err != nil {
		s.log.Warn("participant lookup failed", "player_id", playerID, "error", err)
		return types.ParticipantInfo{}, false
	}
	if p == nil {
		return types.ParticipantInfo{}, false
	}
	return types.ParticipantInfo{Name: p.Name, Color: p.Color}, true
}

func (s *chatService) ListConversations(ctx context.Context, playerID string) ([]*types.Chat, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, apierr.BadRequest("missing_player_id", "player id is required")
	}
	return s.chats.ListForPlayer(ctx, playerID)
}

func (s *chatService) ListMessages(ctx context.Context, chatID string, limit int) ([]*types.ChatMessage, error) {
	c, err := s.getChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}
	return s.messages.ListByChat(ctx, c.ID, int64(limit))
}

func (s *chatService) SendMessage(ctx context.Context, chatID, senderID, content string) (*types.ChatMessage, error) {
	senderID = strings.TrimSpace(senderID)
	content = strings.TrimSpace(content)
	if senderID == "" || content == "" {
		return nil, apierr.BadRequest("invalid_message", "senderId and content are required")
	}
	if len(content) > maxMessageLength {
		return nil, apierr.BadRequest("message_too_long", "message exceeds %d characters", maxMessageLength)
	}
	c, err := s.getChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(senderID) {
		return nil, apierr.Forbidden("not_a_participant", "sender is not part of this conversation")
	}

	name := senderID
	if pi, ok := c.ParticipantInfo[senderID]; ok && pi.Name != "" {
		name = pi.Name
	}
	now := s.now()
	msg, err := s.messages.Insert(ctx, &types.ChatMessage{
		ChatID:     c.ID,
		SenderID:   senderID,
		SenderName: name,
		Content:    content,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.chats.TouchLastMessage(ctx, c.ID, content, now); err != nil {
		s.log.Warn("update chat summary failed", "chat_id", c.ID.Hex(), "error", err)
	} else {
		c.LastMessage = content
		c.LastMessageAt = &now
		c.UpdatedAt = now
	}

	if s.notify != nil {
		s.notify.MessageCreated(ctx, c.OtherParticipant(senderID), c, msg)
	}
	return msg, nil
}

func (s *chatService) getChat(ctx context.Context, chatID string) (*types.Chat, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(chatID))
	if err != nil {
		return nil, apierr.BadRequest("invalid_chat_id", "invalid chat id")
	}
	c, err := s.chats.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apierr.NotFound("chat_not_found", "chat not found")
	}
	return c, nil
}
