package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/kon-rad/juego-sub000/internal/http/handlers"
	httpMW "github.com/kon-rad/juego-sub000/internal/http/middleware"
	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	// ServiceName enables otelgin spans when set.
	ServiceName string

	HealthHandler      *httpH.HealthHandler
	RealtimeHandler    *httpH.RealtimeHandler
	TeacherHandler     *httpH.TeacherHandler
	GenieHandler       *httpH.GenieHandler
	GameHandler        *httpH.GameHandler
	ChatHandler        *httpH.ChatHandler
	AICharacterHandler *httpH.AICharacterHandler
	VapiHandler        *httpH.VapiHandler
	BlockchainHandler  *httpH.BlockchainHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log, "/socket", "/metrics", "/healthcheck"))
	r.Use(httpMW.Metrics(cfg.Metrics, "/socket", "/metrics"))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/metrics", cfg.HealthHandler.Metrics)
	}

	// Realtime (websocket presence relay)
	if cfg.RealtimeHandler != nil {
		r.GET("/socket", cfg.RealtimeHandler.Socket)
	}

	api := r.Group("/api")
	{
		if cfg.RealtimeHandler != nil {
			api.GET("/presence", cfg.RealtimeHandler.Presence)
		}

		// Teachers
		if cfg.TeacherHandler != nil {
			api.GET("/teacher", cfg.TeacherHandler.List)
			api.POST("/teacher", cfg.TeacherHandler.Create)
			api.POST("/teacher/check-position", cfg.TeacherHandler.CheckPosition)
			api.POST("/teacher/summon", cfg.TeacherHandler.Summon)
			api.GET("/teacher/:id", cfg.TeacherHandler.Get)
			api.DELETE("/teacher/:id", cfg.TeacherHandler.Delete)
			api.POST("/teacher/:id/chat", cfg.TeacherHandler.Chat)
		}

		// Genie
		if cfg.GenieHandler != nil {
			api.POST("/genie/chat", cfg.GenieHandler.Chat)
		}

		// Game world + players
		if cfg.GameHandler != nil {
			api.GET("/game/world", cfg.GameHandler.GetWorld)
			api.POST("/game/world/init", cfg.GameHandler.InitWorld)
			api.GET("/game/players", cfg.GameHandler.ListPlayers)
			api.POST("/game/player", cfg.GameHandler.UpsertPlayer)
			api.GET("/game/player/:id", cfg.GameHandler.GetPlayer)
			api.PUT("/game/player/:id/profile", cfg.GameHandler.UpdateProfile)
			api.DELETE("/game/player/:id", cfg.GameHandler.DeletePlayer)
		}

		// Player chat
		if cfg.ChatHandler != nil {
			api.POST("/chat/conversation", cfg.ChatHandler.CreateConversation)
			api.GET("/chat/:id/conversations", cfg.ChatHandler.ListConversations)
			api.GET("/chat/:id/messages", cfg.ChatHandler.ListMessages)
			api.POST("/chat/:id/messages", cfg.ChatHandler.SendMessage)
		}

		// AI characters
		if cfg.AICharacterHandler != nil {
			api.GET("/ai-character", cfg.AICharacterHandler.List)
			api.POST("/ai-character", cfg.AICharacterHandler.Create)
			api.POST("/ai-character/seed", cfg.AICharacterHandler.Seed)
			api.GET("/ai-character/:id", cfg.AICharacterHandler.Get)
			api.PUT("/ai-character/:id", cfg.AICharacterHandler.Update)
			api.DELETE("/ai-character/:id", cfg.AICharacterHandler.Delete)
		}

		// Voice calls
		if cfg.VapiHandler != nil {
			api.POST("/vapi/initiate", cfg.VapiHandler.Initiate)
			api.POST("/vapi/web-token", cfg.VapiHandler.WebToken)
			api.POST("/vapi/webhook", cfg.VapiHandler.Webhook)
			api.GET("/vapi/call/:callId", cfg.VapiHandler.GetCall)
			api.POST("/vapi/call/:callId/end", cfg.VapiHandler.EndCall)
		}

		// Blockchain
		if cfg.BlockchainHandler != nil {
			api.GET("/blockchain/stats", cfg.BlockchainHandler.Stats)
			api.GET("/blockchain/nfts/total", cfg.BlockchainHandler.TotalNFTs)
			api.GET("/blockchain/tokens/total", cfg.BlockchainHandler.TotalTokens)
			api.GET("/blockchain/player/:address", cfg.BlockchainHandler.PlayerBalances)
			api.POST("/blockchain/mint/tokens", cfg.BlockchainHandler.MintTokens)
			api.POST("/blockchain/mint/nft", cfg.BlockchainHandler.MintNFT)
			api.POST("/blockchain/wallet/generate", cfg.BlockchainHandler.GenerateWallet)
		}
	}

	return r
}
