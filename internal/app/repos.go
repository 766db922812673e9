package app

import (
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

type Repos struct {
	Player      repos.PlayerRepo
	World       repos.WorldRepo
	Teacher     repos.TeacherRepo
	AICharacter repos.AICharacterRepo
	VapiCall    repos.VapiCallRepo
	Chat        repos.ChatRepo
	ChatMessage repos.ChatMessageRepo
}

func wireRepos(db *gorm.DB, mdb *mongo.Database, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Player:      repos.NewPlayerRepo(db, log),
		World:       repos.NewWorldRepo(db, log),
		Teacher:     repos.NewTeacherRepo(db, log),
		AICharacter: repos.NewAICharacterRepo(db, log),
		VapiCall:    repos.NewVapiCallRepo(db, log),
		Chat:        repos.NewChatRepo(mdb, log),
		ChatMessage: repos.NewChatMessageRepo(mdb, log),
	}
}
