package app

import (
	"time"

	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/realtime"
	"github.com/kon-rad/juego-sub000/internal/services"
)

type Services struct {
	Teacher     services.TeacherService
	Genie       services.GenieService
	Game        services.GameService
	Chat        services.ChatService
	AICharacter services.AICharacterService
	Voice       services.VoiceService
	Blockchain  services.BlockchainService
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	reposet Repos,
	clients Clients,
	hub *realtime.Hub,
	metrics *observability.Metrics,
) Services {
	log.Info("Wiring services...")

	seed := cfg.SummonSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	personas := services.NewPersonaGenerator(log, clients.LLM, metrics)
	evaluator := services.NewEvaluator(log, clients.LLM, metrics)
	teacher := services.NewTeacherService(
		db,
		log,
		reposet.Teacher,
		reposet.Player,
		reposet.World,
		personas,
		evaluator,
		clients.LLM,
		services.NewPlacer(seed),
		clients.Bridge,
		metrics,
	)

	chat := services.NewChatService(
		db,
		log,
		reposet.Chat,
		reposet.ChatMessage,
		reposet.Player,
		services.NewChatNotifier(hub),
	)
	voice := services.NewVoiceService(
		db,
		log,
		services.VoiceConfig{
			OrgID:      cfg.Vapi.OrgID,
			PrivateKey: cfg.Vapi.PrivateKey,
			TokenTTL:   cfg.WebTokenTTL,
		},
		reposet.AICharacter,
		reposet.VapiCall,
		clients.Vapi,
	)

	return Services{
		Teacher:     teacher,
		Genie:       services.NewGenieService(db, log, teacher, reposet.Player, clients.LLM, metrics),
		Game:        services.NewGameService(db, log, reposet.Player, reposet.World),
		Chat:        chat,
		AICharacter: services.NewAICharacterService(db, log, reposet.AICharacter),
		Voice:       voice,
		Blockchain:  services.NewBlockchainService(db, log, clients.Bridge, reposet.Player, clients.Sealer, metrics),
	}
}
