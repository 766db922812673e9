package repos

import (
	"github.com/kon-rad/juego-sub000/internal/data/repos/chat"
	"github.com/kon-rad/juego-sub000/internal/data/repos/game"
	"github.com/kon-rad/juego-sub000/internal/data/repos/teacher"
	"github.com/kon-rad/juego-sub000/internal/data/repos/voice"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var (
	ErrConflict         = teacher.ErrConflict
	ErrTopicTaken       = teacher.ErrTopicTaken
	ErrPositionOccupied = teacher.ErrPositionOccupied
)

type PlayerRepo = game.PlayerRepo
type ProfileUpdate = game.ProfileUpdate
type WorldRepo = game.WorldRepo

type TeacherRepo = teacher.TeacherRepo
type NearbyTeacher = teacher.Nearby

type AICharacterRepo = voice.AICharacterRepo
type VapiCallRepo = voice.VapiCallRepo

type ChatRepo = chat.ChatRepo
type ChatMessageRepo = chat.MessageRepo

func NewPlayerRepo(db *gorm.DB, baseLog *logger.Logger) PlayerRepo { return game.NewPlayerRepo(db, baseLog) }
func NewWorldRepo(db *gorm.DB, baseLog *logger.Logger) WorldRepo { return game.NewWorldRepo(db, baseLog) }

func NewTeacherRepo(db *gorm.DB, baseLog *logger.Logger) TeacherRepo {
	return teacher.NewTeacherRepo(db, baseLog)
}

func NewAICharacterRepo(db *gorm.DB, baseLog *logger.Logger) AICharacterRepo {
	return voice.NewAICharacterRepo(db, baseLog)
}
func NewVapiCallRepo(db *gorm.DB, baseLog *logger.Logger) VapiCallRepo {
	return voice.NewVapiCallRepo(db, baseLog)
}

func NewChatRepo(db *mongo.Database, baseLog *logger.Logger) ChatRepo {
	return chat.NewChatRepo(db, baseLog)
}
func NewChatMessageRepo(db *mongo.Database, baseLog *logger.Logger) ChatMessageRepo {
	return chat.NewMessageRepo(db, baseLog)
}
