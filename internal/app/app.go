package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/data/db"
	"github.com/kon-rad/juego-sub000/internal/http"
	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/realtime"
	"github.com/kon-rad/juego-sub000/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Hub      *realtime.Hub
	Metrics  *observability.Metrics

	pg           *db.PostgresService
	mongo        *db.MongoService
	bus          bus.Bus
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	a := &App{Log: log, Cfg: cfg, Metrics: observability.NewMetrics()}
	a.otelShutdown = observability.InitOTel(context.Background(), log, cfg.Otel)

	a.pg, err = db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.Migrate(a.pg.DB()); err != nil {
		a.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	a.DB = a.pg.DB()

	a.mongo, err = db.NewMongoService(context.Background(), log, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init mongo: %w", err)
	}

	a.Clients, err = wireClients(log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Hub = realtime.NewHub(log, realtime.NewPresence(), a.Metrics, realtime.HubConfig{AllowedOrigins: cfg.CORSOrigins})
	if a.Clients.Redis != nil {
		a.bus = bus.NewRedisBusFromClient(log, a.Clients.Redis, cfg.RedisChannel)
		a.Hub.UseBus(a.bus, a.bus)
	}

	a.Repos = wireRepos(a.DB, a.mongo.Database(), log)
	a.Services = wireServices(a.DB, log, cfg, a.Repos, a.Clients, a.Hub, a.Metrics)
	handlers := wireHandlers(log, a.Services, a.Hub, a.Metrics)
	a.Server = &http.Server{Engine: wireRouter(log, cfg, handlers, a.Metrics)}

	return a, nil
}

// Start launches the presence bus consumer and connects the reward bridge.
// A bridge that cannot connect leaves the blockchain endpoints answering 503.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Hub.Start(ctx); err != nil {
		return fmt.Errorf("start realtime hub: %w", err)
	}

	initCtx, initCancel := context.WithTimeout(ctx, 15*time.Second)
	defer initCancel()
	if err := a.Clients.Bridge.Init(initCtx); err != nil {
		a.Log.Warn("Reward bridge unavailable", "mode", a.Cfg.Chain.Mode, "error", err)
	}
	return nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Listening", "addr", addr)
	return a.Server.Run(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.bus != nil {
		_ = a.bus.Close()
	}
	a.Clients.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.mongo != nil {
		_ = a.mongo.Close(ctx)
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
