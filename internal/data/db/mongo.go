package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

const (
	ChatsCollection        = "chats"
	ChatMessagesCollection = "chat_messages"
)

type MongoService struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

func NewMongoService(ctx context.Context, logg *logger.Logger, uri, database string) (*MongoService, error) {
	serviceLog := logg.With("service", "MongoService")

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &MongoService{client: client, db: client.Database(database), log: serviceLog}
	if err := s.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	serviceLog.Info("Connected to Mongo", "database", database)
	return s, nil
}

func (s *MongoService) Database() *mongo.Database { return s.db }

// EnsureIndexes creates the unique participant-pair index and the message timeline index.
func (s *MongoService) EnsureIndexes(ctx context.Context) error {
	return EnsureChatIndexes(ctx, s.db)
}

func EnsureChatIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(ChatsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "participants", Value: 1}},
		Options: options.Index().SetName("idx_chats_participants"),
	}); err != nil {
		return fmt.Errorf("create idx_chats_participants: %w", err)
	}
	if _, err := db.Collection(ChatsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pairKey", Value: 1}},
		Options: options.Index().SetName("idx_chats_pair_key").SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create idx_chats_pair_key: %w", err)
	}
	if _, err := db.Collection(ChatMessagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chatId", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("idx_chat_messages_chat_created"),
	}); err != nil {
		return fmt.Errorf("create idx_chat_messages_chat_created: %w", err)
	}
	return nil
}

func (s *MongoService) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
