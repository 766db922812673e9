package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/chain"
	"github.com/kon-rad/juego-sub000/internal/platform/keyseal"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

// MaxManualMint caps a single admin token mint.
const MaxManualMint = 1000

// RewardBridge is the reward bridge as seen by the blockchain endpoints.
type RewardBridge interface {
	RewardMinter
	Ready() error
	Stats(ctx context.Context) (chain.Stats, error)
	TotalTokens(ctx context.Context) (string, error)
	TotalNFTs(ctx context.Context) (int64, error)
	PlayerBalances(ctx context.Context, address string) (chain.PlayerBalances, error)
	MintNFT(ctx context.Context, to string, tokenURI string) (chain.MintResult, error)
}

type GeneratedWallet struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
	PlayerID   string `json:"playerId,omitempty"`
	Stored     bool   `json:"stored"`
}

type BlockchainService interface {
	Stats(ctx context.Context) (*chain.Stats, error)
	TotalTokens(ctx context.Context) (string, error)
	TotalNFTs(ctx context.Context) (int64, error)
	PlayerBalances(ctx context.Context, address string) (*chain.PlayerBalances, error)
	MintTokens(ctx context.Context, address string, amount int64) (*chain.MintResult, error)
	MintNFT(ctx context.Context, address, tokenURI string) (*chain.MintResult, error)
	GenerateWallet(ctx context.Context, playerID string) (*GeneratedWallet, error)
}

type blockchainService struct {
	db      *gorm.DB
	log     *logger.Logger
	bridge  RewardBridge
	players repos.PlayerRepo
	sealer  *keyseal.Sealer
	metrics *observability.Metrics
}

func NewBlockchainService(
	db *gorm.DB,
	baseLog *logger.Logger,
	bridge RewardBridge,
	playerRepo repos.PlayerRepo,
	sealer *keyseal.Sealer,
	metrics *observability.Metrics,
) BlockchainService {
	return &blockchainService{
		db:      db,
		log:     baseLog.With("service", "BlockchainService"),
		bridge:  bridge,
		players: playerRepo,
		sealer:  sealer,
		metrics: metrics,
	}
}

func (s *blockchainService) ready() error {
	if s.bridge == nil {
		return apierr.New(http.StatusServiceUnavailable, "blockchain_unavailable", chain.ErrNotInitialized)
	}
	if err := s.bridge.Ready(); err != nil {
		return apierr.New(http.StatusServiceUnavailable, "blockchain_unavailable", err)
	}
	return nil
}

func (s *blockchainService) Stats(ctx context.Context) (*chain.Stats, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	st, err := s.bridge.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *blockchainService) TotalTokens(ctx context.Context) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.bridge.TotalTokens(ctx)
}

func (s *blockchainService) TotalNFTs(ctx context.Context) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.bridge.TotalNFTs(ctx)
}

func (s *blockchainService) PlayerBalances(ctx context.Context, address string) (*chain.PlayerBalances, error) {
	address = strings.TrimSpace(address)
	if !chain.IsValidAddress(address) {
		return nil, apierr.BadRequest("invalid_address", "invalid wallet address")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	b, err := s.bridge.PlayerBalances(ctx, address)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *blockchainService) MintTokens(ctx context.Context, address string, amount int64) (*chain.MintResult, error) {
	address = strings.TrimSpace(address)
	if !chain.IsValidAddress(address) {
		return nil, apierr.BadRequest("invalid_address", "invalid wallet address")
	}
	if amount <= 0 || amount > MaxManualMint {
		return nil, apierr.BadRequest("invalid_amount", "amount must be between 1 and %d", MaxManualMint)
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	r, err := s.bridge.MintTokens(ctx, address, amount)
	s.metrics.IncMint("tokens", err)
	if err != nil {
		return nil, err
	}
	s.log.Info("tokens minted", "to", address, "amount", amount, "tx", r.TxHash)
	return &r, nil
}

func (s *blockchainService) MintNFT(ctx context.Context, address, tokenURI string) (*chain.MintResult, error) {
	address = strings.TrimSpace(address)
	if !chain.IsValidAddress(address) {
		return nil, apierr.BadRequest("invalid_address", "invalid wallet address")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	tokenURI = strings.TrimSpace(tokenURI)
	if tokenURI == "" {
		tokenURI = BadgeURI(s.bridge.NFTBaseURI(), "achievement")
	}
	r, err := s.bridge.MintNFT(ctx, address, tokenURI)
	s.metrics.IncMint("nft", err)
	if err != nil {
		return nil, err
	}
	s.log.Info("badge minted", "to", address, "uri", tokenURI, "tx", r.TxHash)
	return &r, nil
}

// GenerateWallet creates a key pair. With a player id the sealed key and
// address are stored on the player; the plaintext key is only ever returned here.
func (s *blockchainService) GenerateWallet(ctx context.Context, playerID string) (*GeneratedWallet, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID != "" && s.sealer == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "wallet_storage_unavailable", keyseal.ErrNoSecret)
	}
	w, err := chain.GenerateWallet()
	if err != nil {
		return nil, err
	}
	out := &GeneratedWallet{Address: w.Address, PrivateKey: w.PrivateKey, PlayerID: playerID}
	if playerID == "" {
		return out, nil
	}

	sealed, err := s.sealer.Seal(w.PrivateKey)
	if err != nil {
		return nil, err
	}
	if err := s.players.SetWallet(ctx, s.db, playerID, w.Address, sealed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("player_not_found", "player not found")
		}
		return nil, err
	}
	out.Stored = true
	s.log.Info("wallet attached to player", "player_id", playerID, "address", w.Address)
	return out, nil
}
