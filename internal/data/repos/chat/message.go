package chat

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	chatdomain "github.com/kon-rad/juego-sub000/internal/domain/chat"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

type MessageRepo interface {
	Insert(ctx context.Context, msg *chatdomain.Message) (*chatdomain.Message, error)
	ListByChat(ctx context.Context, chatID primitive.ObjectID, limit int64) ([]*chatdomain.Message, error)
}

type messageRepo struct {
	coll *mongo.Collection
	log  *logger.Logger
}

func NewMessageRepo(db *mongo.Database, baseLog *logger.Logger) MessageRepo {
	repoLog := baseLog.With("repo", "ChatMessageRepo")
	return &messageRepo{coll: db.Collection(messagesCollection), log: repoLog}
}

func (mr *messageRepo) Insert(ctx context.Context, msg *chatdomain.Message) (*chatdomain.Message, error) {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if _, err := mr.coll.InsertOne(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListByChat returns the latest limit messages, oldest first.
func (mr *messageRepo) ListByChat(ctx context.Context, chatID primitive.ObjectID, limit int64) ([]*chatdomain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := mr.coll.Find(ctx,
		bson.M{"chatId": chatID},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	results := []*chatdomain.Message{}
	if err := cur.All(ctx, &results); err != nil {
		return nil, err
	}
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}
