package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kon-rad/juego-sub000/internal/platform/cache"
	"github.com/kon-rad/juego-sub000/internal/platform/chain"
	"github.com/kon-rad/juego-sub000/internal/platform/httpx"
	"github.com/kon-rad/juego-sub000/internal/platform/keyseal"
	"github.com/kon-rad/juego-sub000/internal/platform/llm"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/platform/vapi"
)

type Clients struct {
	Redis  goredis.UniversalClient
	Cache  cache.Cache
	LLM    llm.Client
	Vapi   vapi.Client
	Bridge *chain.Bridge
	Sealer *keyseal.Sealer
}

// wireClients builds the outbound clients. Optional providers that are not
// configured are left nil and the services fall back accordingly.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	out.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			DialTimeout: 5 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
		out.Redis = rdb
		out.Cache = cache.NewRedis(rdb, "juego:")
	}

	// LLM
	client, err := llm.New(log, cfg.LLM, httpx.NewBackoff(cfg.LLMMaxRetries, log))
	if err != nil {
		log.Warn("LLM client disabled, using fallbacks", "provider", cfg.LLM.Provider, "error", err)
	} else {
		out.LLM = client
	}

	// Vapi
	vc, err := vapi.NewClient(log, cfg.Vapi, httpx.NewBackoff(cfg.VapiMaxRetry, log))
	if err != nil {
		log.Warn("Vapi client disabled", "error", err)
	} else {
		out.Vapi = vc
	}

	// Chain; Init runs in App.Start so a dead RPC node does not block boot.
	out.Bridge = chain.NewBridge(log, cfg.Chain, out.Cache)

	// Wallet key sealing
	if cfg.WalletSecret != "" {
		s, err := keyseal.New(cfg.WalletSecret)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init wallet sealer: %w", err)
		}
		out.Sealer = s
	} else {
		log.Warn("WALLET_ENCRYPTION_SECRET not set, wallet generation will not persist keys")
	}

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bridge != nil {
		c.Bridge.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
