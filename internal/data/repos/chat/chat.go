package chat

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	chatdomain "github.com/kon-rad/juego-sub000/internal/domain/chat"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "chat_messages"
)

type ChatRepo interface {
	UpsertPair(ctx context.Context, a, b string, info map[string]chatdomain.ParticipantInfo) (*chatdomain.Chat, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*chatdomain.Chat, error)
	ListForPlayer(ctx context.Context, playerID string) ([]*chatdomain.Chat, error)
	TouchLastMessage(ctx context.Context, id primitive.ObjectID, content string, at time.Time) error
}

type chatRepo struct {
	coll *mongo.Collection
	log  *logger.Logger
}

func NewChatRepo(db *mongo.Database, baseLog *logger.Logger) ChatRepo {
	repoLog := baseLog.With("repo", "ChatRepo")
	return &chatRepo{coll: db.Collection(chatsCollection), log: repoLog}
}

// UpsertPair returns the single chat for the unordered pair (a, b), creating it if needed.
// Participant display info is refreshed on every call.
func (cr *chatRepo) UpsertPair(ctx context.Context, a, b string, info map[string]chatdomain.ParticipantInfo) (*chatdomain.Chat, error) {
	now := time.Now().UTC()
	pair := chatdomain.SortedPair(a, b)
	set := bson.M{"updatedAt": now}
	if len(info) > 0 {
		set["participantInfo"] = info
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"participants": pair,
			"pairKey":      chatdomain.PairKey(a, b),
			"createdAt":    now,
		},
		"$set": set,
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out chatdomain.Chat
	err := cr.coll.FindOneAndUpdate(ctx, bson.M{"pairKey": chatdomain.PairKey(a, b)}, update, opts).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		// Lost an insert race on the unique pair key; the winner's document is there now.
		err = cr.coll.FindOneAndUpdate(ctx, bson.M{"pairKey": chatdomain.PairKey(a, b)}, update, opts).Decode(&out)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (cr *chatRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*chatdomain.Chat, error) {
	var out chatdomain.Chat
	if err := cr.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (cr *chatRepo) ListForPlayer(ctx context.Context, playerID string) ([]*chatdomain.Chat, error) {
	cur, err := cr.coll.Find(ctx,
		bson.M{"participants": playerID},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	results := []*chatdomain.Chat{}
	if err := cur.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chatRepo) TouchLastMessage(ctx context.Context, id primitive.ObjectID, content string, at time.Time) error {
	_, err := cr.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"lastMessage":   content,
		"lastMessageAt": at,
		"updatedAt":     at,
	}})
	return err
}
