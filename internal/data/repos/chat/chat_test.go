package chat

import (
	"context"
	"testing"
	"time"

	"github.com/kon-rad/juego-sub000/internal/data/repos/testutil"
	chatdomain "github.com/kon-rad/juego-sub000/internal/domain/chat"
)

func TestChatRepoPairIsOrderIndependent(t *testing.T) {
	mdb := testutil.Mongo(t)
	repo := NewChatRepo(mdb, testutil.Logger(t))
	ctx := context.Background()

	ab, err := repo.UpsertPair(ctx, "alice", "bob", map[string]chatdomain.ParticipantInfo{
		"alice": {Name: "Alice"}, "bob": {Name: "Bob"},
	})
	if err != nil {
		t.Fatalf("UpsertPair(alice, bob): %v", err)
	}
	ba, err := repo.UpsertPair(ctx, "bob", "alice", nil)
	if err != nil {
		t.Fatalf("UpsertPair(bob, alice): %v", err)
	}
	if ab.ID != ba.ID {
		t.Fatalf("expected the same chat, got %s and %s", ab.ID.Hex(), ba.ID.Hex())
	}
	if ba.Participants[0] != "alice" || ba.Participants[1] != "bob" {
		t.Fatalf("participants not sorted: %v", ba.Participants)
	}

	list, err := repo.ListForPlayer(ctx, "bob")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListForPlayer=%v,%v", list, err)
	}
}

func TestMessageRepoOrdering(t *testing.T) {
	mdb := testutil.Mongo(t)
	chats := NewChatRepo(mdb, testutil.Logger(t))
	msgs := NewMessageRepo(mdb, testutil.Logger(t))
	ctx := context.Background()

	c, err := chats.UpsertPair(ctx, "a", "b", nil)
	if err != nil {
		t.Fatalf("UpsertPair: %v", err)
	}
	base := time.Now().UTC().Add(-time.Minute)
	for i, body := range []string{"one", "two", "three"} {
		msg := &chatdomain.Message{ChatID: c.ID, SenderID: "a", Content: body, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if _, err := msgs.Insert(ctx, msg); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	got, err := msgs.ListByChat(ctx, c.ID, 2)
	if err != nil {
		t.Fatalf("ListByChat: %v", err)
	}
	if len(got) != 2 || got[0].Content != "two" || got[1].Content != "three" {
		t.Fatalf("ListByChat=%+v", got)
	}
}
