package app

import (
	"github.com/gin-gonic/gin"

	"github.com/kon-rad/juego-sub000/internal/http"
	httpH "github.com/kon-rad/juego-sub000/internal/http/handlers"
	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/realtime"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Realtime    *httpH.RealtimeHandler
	Teacher     *httpH.TeacherHandler
	Genie       *httpH.GenieHandler
	Game        *httpH.GameHandler
	Chat        *httpH.ChatHandler
	AICharacter *httpH.AICharacterHandler
	Vapi        *httpH.VapiHandler
	Blockchain  *httpH.BlockchainHandler
}

func wireHandlers(log *logger.Logger, services Services, hub *realtime.Hub, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(metrics),
		Realtime:    httpH.NewRealtimeHandler(log, hub),
		Teacher:     httpH.NewTeacherHandler(services.Teacher),
		Genie:       httpH.NewGenieHandler(services.Genie),
		Game:        httpH.NewGameHandler(services.Game),
		Chat:        httpH.NewChatHandler(services.Chat),
		AICharacter: httpH.NewAICharacterHandler(services.AICharacter),
		Vapi:        httpH.NewVapiHandler(log, services.Voice),
		Blockchain:  httpH.NewBlockchainHandler(services.Blockchain),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		CORSOrigins:        cfg.CORSOrigins,
		ServiceName:        serviceName,
		HealthHandler:      handlers.Health,
		RealtimeHandler:    handlers.Realtime,
		TeacherHandler:     handlers.Teacher,
		GenieHandler:       handlers.Genie,
		GameHandler:        handlers.Game,
		ChatHandler:        handlers.Chat,
		AICharacterHandler: handlers.AICharacter,
		VapiHandler:        handlers.Vapi,
		BlockchainHandler:  handlers.Blockchain,
	})
}
