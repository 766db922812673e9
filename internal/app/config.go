package app

import (
	"os"
	"strings"
	"time"

	"github.com/kon-rad/juego-sub000/internal/data/db"
	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/chain"
	"github.com/kon-rad/juego-sub000/internal/platform/envutil"
	"github.com/kon-rad/juego-sub000/internal/platform/llm"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/platform/vapi"
)

type Config struct {
	Port        string
	CORSOrigins []string

	Postgres      db.PostgresConfig
	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	LLM           llm.Config
	LLMMaxRetries int

	Vapi         vapi.Config
	VapiMaxRetry int
	WebTokenTTL  time.Duration
	Chain        chain.Config
	WalletSecret string
	SummonSeed   int64
	Otel         observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080", log),
		CORSOrigins: envutil.List("CORS_ORIGINS", nil),

		Postgres: db.PostgresConfig{
			DSN:      strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
			Host:     envutil.String("POSTGRES_HOST", "localhost", log),
			Port:     envutil.String("POSTGRES_PORT", "5432", log),
			User:     envutil.String("POSTGRES_USER", "postgres", log),
			Password: envutil.String("POSTGRES_PASSWORD", "postgres", log),
			Name:     envutil.String("POSTGRES_NAME", "juego", log),
		},
		MongoURI:      envutil.String("MONGO_URI", "mongodb://localhost:27017", log),
		MongoDatabase: envutil.String("MONGO_DATABASE", "juego", log),

		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envutil.Int("REDIS_DB", 0, log),
		RedisChannel:  envutil.String("REDIS_CHANNEL", "juego:presence", log),

		LLMMaxRetries: envutil.Int("LLM_MAX_RETRIES", 3, log),
		VapiMaxRetry:  envutil.Int("VAPI_MAX_RETRIES", 2, log),
		WebTokenTTL:   envutil.Seconds("VAPI_WEB_TOKEN_TTL_SECONDS", time.Hour, log),
		WalletSecret:  os.Getenv("WALLET_ENCRYPTION_SECRET"),
		SummonSeed:    envutil.Int64("SUMMON_SEED", 0, log),
	}

	cfg.LLM = loadLLMConfig(log)

	cfg.Vapi = vapi.Config{
		BaseURL:       envutil.String("VAPI_BASE_URL", "https://api.vapi.ai", log),
		APIKey:        os.Getenv("VAPI_API_KEY"),
		PublicKey:     os.Getenv("VAPI_PUBLIC_KEY"),
		PrivateKey:    os.Getenv("VAPI_PRIVATE_KEY"),
		OrgID:         os.Getenv("VAPI_ORG_ID"),
		PhoneNumberID: os.Getenv("VAPI_PHONE_NUMBER_ID"),
		WebhookURL:    os.Getenv("VAPI_WEBHOOK_URL"),
		Timeout:       envutil.Seconds("VAPI_TIMEOUT_SECONDS", 30*time.Second, log),
	}

	cfg.Chain = chain.Config{
		Mode:            envutil.String("BLOCKCHAIN_MODE", chain.ModeLocal, log),
		RPCURL:          os.Getenv("RPC_URL"),
		LocalRPCURL:     envutil.String("LOCAL_RPC_URL", "http://127.0.0.1:8545", log),
		ChainID:         envutil.Int64("CHAIN_ID", 31337, log),
		AdminPrivateKey: os.Getenv("ADMIN_PRIVATE_KEY"),
		TokenAddress:    os.Getenv("TOKEN_CONTRACT_ADDRESS"),
		NFTAddress:      os.Getenv("NFT_CONTRACT_ADDRESS"),
		NFTBaseURI:      envutil.String("NFT_BASE_URI", "ipfs://juego-badges/", log),
		MintSpacing:     time.Duration(envutil.Int("MINT_SPACING_MS", 1000, log)) * time.Millisecond,
		StatsTTL:        envutil.Seconds("BLOCKCHAIN_STATS_TTL_SECONDS", 60*time.Second, log),
	}

	cfg.Otel = observability.OtelConfig{
		Enabled:     envutil.Bool("OTEL_ENABLED", false),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "juego", log),
		Environment: envutil.String("OTEL_ENVIRONMENT", "development", log),
		Version:     os.Getenv("OTEL_SERVICE_VERSION"),
		Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Headers:     observability.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1),
	}
	return cfg
}

// loadLLMConfig reads the OPENAI_* or COMPAT_* block depending on LLM_PROVIDER.
func loadLLMConfig(log *logger.Logger) llm.Config {
	provider := strings.ToLower(envutil.String("LLM_PROVIDER", "openai", log))
	timeout := envutil.Seconds("LLM_TIMEOUT_SECONDS", 60*time.Second, log)
	if provider == "openai" {
		return llm.Config{
			Provider: provider,
			BaseURL:  envutil.String("OPENAI_BASE_URL", "https://api.openai.com", log),
			APIKey:   os.Getenv("OPENAI_API_KEY"),
			Model:    envutil.String("OPENAI_MODEL", "gpt-4o-mini", log),
			Timeout:  timeout,
		}
	}
	return llm.Config{
		Provider: provider,
		BaseURL:  envutil.String("COMPAT_BASE_URL", "http://localhost:11434", log),
		APIKey:   os.Getenv("COMPAT_API_KEY"),
		Model:    envutil.String("COMPAT_MODEL", "llama3.1", log),
		Timeout:  timeout,
	}
}
