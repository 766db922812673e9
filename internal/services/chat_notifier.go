package services

import (
	"context"

	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/realtime"
)

// ChatNotifier pushes player chat activity to connected clients.
type ChatNotifier interface {
	MessageCreated(ctx context.Context, recipientID string, chat *types.Chat, msg *types.ChatMessage)
}

// PlayerEmitter delivers an event to one player's realtime connection.
type PlayerEmitter interface {
	SendTo(ctx context.Context, playerID, event string, data any) error
}

type chatNotifier struct {
	emit PlayerEmitter
}

func NewChatNotifier(emit PlayerEmitter) ChatNotifier {
	return &chatNotifier{emit: emit}
}

func (n *chatNotifier) MessageCreated(ctx context.Context, recipientID string, chat *types.Chat, msg *types.ChatMessage) {
	if n == nil || n.emit == nil || recipientID == "" || msg == nil {
		return
	}
	_ = n.emit.SendTo(context.WithoutCancel(ctx), recipientID, realtime.EventChatMessage, map[string]any{
		"chatId":      msg.ChatID.Hex(),
		"recipientId": recipientID,
		"message":     msg,
		"chat":        chat,
	})
}
