package services

import (
	"context"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/realtime"
)

func newChatFixture() (ChatService, *memMessageRepo, *recordingEmitter) {
	msgs := &memMessageRepo{}
	emit := &recordingEmitter{}
	svc := NewChatService(nil, logger.Nop(), newMemChatRepo(), msgs, nil, NewChatNotifier(emit))
	return svc, msgs, emit
}

func TestCreateConversationIsPairUnique(t *testing.T) {
	svc, _, _ := newChatFixture()
	ctx := context.Background()

	ab, err := svc.CreateConversation(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	ba, err := svc.CreateConversation(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("CreateConversation reversed: %v", err)
	}
	if ab.ID != ba.ID {
		t.Fatalf("ids differ: %s vs %s", ab.ID.Hex(), ba.ID.Hex())
	}

	for _, tc := range [][2]string{{"alice", "alice"}, {"", "bob"}} {
		if _, err := svc.CreateConversation(ctx, tc[0], tc[1]); apierr.StatusOf(err) != 400 {
			t.Fatalf("CreateConversation(%q,%q)=%v, want 400", tc[0], tc[1], err)
		}
	}

	list, err := svc.ListConversations(ctx, "bob")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListConversations=%v err=%v, want 1", list, err)
	}
}

func TestCreateConversationSeparatesIdsContainingSeparator(t *testing.T) {
	svc, _, _ := newChatFixture()
	ctx := context.Background()

	first, err := svc.CreateConversation(ctx, "a|b", "c")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	second, err := svc.CreateConversation(ctx, "a", "b|c")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("pairs (a|b,c) and (a,b|c) share chat %s", first.ID.Hex())
	}
	if _, err := svc.SendMessage(ctx, first.ID.Hex(), "c", "hello"); err != nil {
		t.Fatalf("SendMessage from c: %v", err)
	}
	if _, err := svc.SendMessage(ctx, first.ID.Hex(), "a", "hello"); apierr.StatusOf(err) != 403 {
		t.Fatalf("SendMessage from a=%v, want 403", err)
	}
}

func TestSendMessageNotifiesRecipient(t *testing.T) {
	svc, _, emit := newChatFixture()
	ctx := context.Background()
	c, _ := svc.CreateConversation(ctx, "alice", "bob")

	msg, err := svc.SendMessage(ctx, c.ID.Hex(), "alice", "  hi bob  ")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.Content != "hi bob" || msg.SenderName != "alice" {
		t.Fatalf("message=%+v", msg)
	}
	if len(emit.sent) != 1 || emit.sent[0].playerID != "bob" || emit.sent[0].event != realtime.EventChatMessage {
		t.Fatalf("sent=%+v, want one chat message to bob", emit.sent)
	}

	list, _ := svc.ListConversations(ctx, "alice")
	if len(list) != 1 || list[0].LastMessage != "hi bob" || list[0].LastMessageAt == nil {
		t.Fatalf("chat summary=%+v", list)
	}
	history, err := svc.ListMessages(ctx, c.ID.Hex(), 0)
	if err != nil || len(history) != 1 {
		t.Fatalf("ListMessages=%v err=%v", history, err)
	}
}

func TestSendMessageRejects(t *testing.T) {
	svc, msgs, emit := newChatFixture()
	ctx := context.Background()
	c, _ := svc.CreateConversation(ctx, "alice", "bob")

	cases := []struct {
		name    string
		chatID  string
		sender  string
		content string
		status  int
	}{
		{"outsider", c.ID.Hex(), "mallory", "hi", 403},
		{"unknown chat", primitive.NewObjectID().Hex(), "alice", "hi", 404},
		{"bad chat id", "nope", "alice", "hi", 400},
		{"empty", c.ID.Hex(), "alice", "   ", 400},
		{"too long", c.ID.Hex(), "alice", strings.Repeat("x", maxMessageLength+1), 400},
	}
	for _, tc := range cases {
		if _, err := svc.SendMessage(ctx, tc.chatID, tc.sender, tc.content); apierr.StatusOf(err) != tc.status {
			t.Fatalf("%s: err=%v, want %d", tc.name, err, tc.status)
		}
	}
	if len(msgs.msgs) != 0 || len(emit.sent) != 0 {
		t.Fatalf("rejected sends left %d messages and %d events", len(msgs.msgs), len(emit.sent))
	}
}

func TestListMessagesCapsLimit(t *testing.T) {
	svc, _, _ := newChatFixture()
	ctx := context.Background()
	c, _ := svc.CreateConversation(ctx, "alice", "bob")
	for i := 0; i < MaxMessageLimit+5; i++ {
		if _, err := svc.SendMessage(ctx, c.ID.Hex(), "bob", "ping"); err != nil {
			t.Fatalf("SendMessage %d: %v", i, err)
		}
	}
	got, err := svc.ListMessages(ctx, c.ID.Hex(), 1000)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(got) != MaxMessageLimit {
		t.Fatalf("len=%d, want %d", len(got), MaxMessageLimit)
	}
	if got, _ := svc.ListMessages(ctx, c.ID.Hex(), 0); len(got) != DefaultMessageLimit {
		t.Fatalf("default len=%d, want %d", len(got), DefaultMessageLimit)
	}
}
