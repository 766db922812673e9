package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"

	"github.com/kon-rad/juego-sub000/internal/platform/cache"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

const (
	ModeLocal      = "local"
	ModeProduction = "production"

	statsCacheKey = "blockchain:stats"
)

var ErrNotInitialized = errors.New("blockchain bridge not initialized")

type Config struct {
	Mode            string
	RPCURL          string
	LocalRPCURL     string
	ChainID         int64
	AdminPrivateKey string
	TokenAddress    string
	NFTAddress      string
	NFTBaseURI      string
	MintSpacing     time.Duration
	StatsTTL        time.Duration
}

func (c Config) endpoint() string {
	if strings.EqualFold(c.Mode, ModeProduction) {
		return strings.TrimSpace(c.RPCURL)
	}
	if u := strings.TrimSpace(c.LocalRPCURL); u != "" {
		return u
	}
	return "http://127.0.0.1:8545"
}

type Stats struct {
	Network       string `json:"network"`
	ChainID       int64  `json:"chainId"`
	TokenContract string `json:"tokenContract"`
	NFTContract   string `json:"nftContract"`
	TotalTokens   string `json:"totalTokens"`
	TotalNFTs     int64  `json:"totalNfts"`
}

type PlayerBalances struct {
	Address      string `json:"address"`
	TokenBalance string `json:"tokenBalance"`
	NFTBalance   int64  `json:"nftBalance"`
}

type MintResult struct {
	Kind     string `json:"kind"`
	To       string `json:"to"`
	TxHash   string `json:"txHash"`
	Amount   int64  `json:"amount,omitempty"`
	TokenURI string `json:"tokenUri,omitempty"`
}

type Wallet struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
}

// Bridge mirrors in-game rewards onto the LearnToken and Badge contracts.
// It is built with NewBridge and must be initialized with Init before use.
// A failed Init is sticky: every later call returns the same error.
type Bridge struct {
	log   *logger.Logger
	cfg   Config
	cache cache.Cache

	mu       sync.RWMutex
	ready    bool
	initErr  error
	client   *ethclient.Client
	token    Contract
	nft      Contract
	decimals uint8
	opts     *bind.TransactOpts

	// waitMined is bind.WaitMined against the live client; tests swap it.
	waitMined func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewBridge(log *logger.Logger, cfg Config, c cache.Cache) *Bridge {
	if cfg.MintSpacing < 0 {
		cfg.MintSpacing = 0
	}
	if cfg.StatsTTL <= 0 {
		cfg.StatsTTL = 60 * time.Second
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &Bridge{
		log:   log.With("service", "RewardBridge"),
		cfg:   cfg,
		cache: c,
		sleep: sleepCtx,
	}
}

// Init dials the RPC node, loads the admin key and binds both contracts.
func (b *Bridge) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ready || b.initErr != nil {
		return b.initErr
	}
	b.initErr = b.initLocked(ctx)
	if b.initErr != nil {
		b.log.Error("Blockchain bridge init failed", "error", b.initErr, "mode", b.cfg.Mode)
		return b.initErr
	}
	b.ready = true
	b.log.Info("Blockchain bridge ready",
		"mode", b.cfg.Mode,
		"chain_id", b.cfg.ChainID,
		"token_contract", b.cfg.TokenAddress,
		"nft_contract", b.cfg.NFTAddress,
	)
	return nil
}

func (b *Bridge) initLocked(ctx context.Context) error {
	endpoint := b.cfg.endpoint()
	if endpoint == "" {
		return fmt.Errorf("missing RPC_URL for %s mode", b.cfg.Mode)
	}
	if !common.IsHexAddress(b.cfg.TokenAddress) {
		return fmt.Errorf("invalid TOKEN_CONTRACT_ADDRESS %q", b.cfg.TokenAddress)
	}
	if !common.IsHexAddress(b.cfg.NFTAddress) {
		return fmt.Errorf("invalid NFT_CONTRACT_ADDRESS %q", b.cfg.NFTAddress)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(b.cfg.AdminPrivateKey), "0x"))
	if err != nil {
		return fmt.Errorf("parse ADMIN_PRIVATE_KEY: %w", err)
	}

	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("dial rpc: %w", err)
	}
	chainID := big.NewInt(b.cfg.ChainID)
	if b.cfg.ChainID == 0 {
		id, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return fmt.Errorf("read chain id: %w", err)
		}
		chainID = id
		b.cfg.ChainID = id.Int64()
	}

	tokenABI, nftABI, err := parseABIs()
	if err != nil {
		client.Close()
		return fmt.Errorf("parse contract abi: %w", err)
	}
	token := bind.NewBoundContract(common.HexToAddress(b.cfg.TokenAddress), tokenABI, client, client, client)
	nft := bind.NewBoundContract(common.HexToAddress(b.cfg.NFTAddress), nftABI, client, client, client)

	opts, err := transactorFor(key, chainID)
	if err != nil {
		client.Close()
		return err
	}

	b.client = client
	b.token = token
	b.nft = nft
	b.opts = opts
	b.waitMined = func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
		return bind.WaitMined(ctx, client, tx)
	}
	return b.loadDecimalsLocked(ctx)
}

func transactorFor(key *ecdsa.PrivateKey, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	return opts, nil
}

func (b *Bridge) loadDecimalsLocked(ctx context.Context) error {
	var out []interface{}
	if err := b.token.Call(&bind.CallOpts{Context: ctx}, &out, "decimals"); err != nil {
		return fmt.Errorf("read token decimals: %w", err)
	}
	if len(out) == 0 {
		return fmt.Errorf("read token decimals: empty result")
	}
	d, ok := out[0].(uint8)
	if !ok {
		return fmt.Errorf("read token decimals: unexpected type %T", out[0])
	}
	b.decimals = d
	return nil
}

func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		b.client.Close()
		b.client = nil
	}
	b.ready = false
}

// Ready reports the init outcome.
func (b *Bridge) Ready() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.initErr != nil {
		return fmt.Errorf("blockchain bridge unavailable: %w", b.initErr)
	}
	if !b.ready {
		return ErrNotInitialized
	}
	return nil
}

func (b *Bridge) NFTBaseURI() string { return b.cfg.NFTBaseURI }

// IsValidAddress reports whether addr is a syntactically valid 0x-prefixed address.
func IsValidAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	return strings.HasPrefix(addr, "0x") && common.IsHexAddress(addr)
}

func (b *Bridge) Stats(ctx context.Context) (Stats, error) {
	var cached Stats
	if ok, err := b.cache.Get(ctx, statsCacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	if err := b.Ready(); err != nil {
		return Stats{}, err
	}

	var (
		tokens *big.Int
		nfts   *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := b.callBig(gctx, b.token, "totalSupply")
		tokens = v
		return err
	})
	g.Go(func() error {
		v, err := b.callBig(gctx, b.nft, "totalSupply")
		nfts = v
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Network:       b.networkName(),
		ChainID:       b.cfg.ChainID,
		TokenContract: b.cfg.TokenAddress,
		NFTContract:   b.cfg.NFTAddress,
		TotalTokens:   FormatUnits(tokens, b.decimals),
		TotalNFTs:     nfts.Int64(),
	}
	if err := b.cache.Set(ctx, statsCacheKey, stats, b.cfg.StatsTTL); err != nil {
		b.log.Warn("Failed to cache blockchain stats", "error", err)
	}
	return stats, nil
}

func (b *Bridge) TotalTokens(ctx context.Context) (string, error) {
	if err := b.Ready(); err != nil {
		return "", err
	}
	v, err := b.callBig(ctx, b.token, "totalSupply")
	if err != nil {
		return "", err
	}
	return FormatUnits(v, b.decimals), nil
}

func (b *Bridge) TotalNFTs(ctx context.Context) (int64, error) {
	if err := b.Ready(); err != nil {
		return 0, err
	}
	v, err := b.callBig(ctx, b.nft, "totalSupply")
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}

func (b *Bridge) PlayerBalances(ctx context.Context, address string) (PlayerBalances, error) {
	if !IsValidAddress(address) {
		return PlayerBalances{}, fmt.Errorf("invalid address %q", address)
	}
	if err := b.Ready(); err != nil {
		return PlayerBalances{}, err
	}
	addr := common.HexToAddress(address)
	tokens, err := b.callBig(ctx, b.token, "balanceOf", addr)
	if err != nil {
		return PlayerBalances{}, err
	}
	nfts, err := b.callBig(ctx, b.nft, "balanceOf", addr)
	if err != nil {
		return PlayerBalances{}, err
	}
	return PlayerBalances{
		Address:      addr.Hex(),
		TokenBalance: FormatUnits(tokens, b.decimals),
		NFTBalance:   nfts.Int64(),
	}, nil
}

// MintTokens mints amount whole tokens to the address and waits for the receipt.
func (b *Bridge) MintTokens(ctx context.Context, to string, amount int64) (MintResult, error) {
	if !IsValidAddress(to) {
		return MintResult{}, fmt.Errorf("invalid address %q", to)
	}
	if amount <= 0 {
		return MintResult{}, fmt.Errorf("amount must be positive")
	}
	if err := b.Ready(); err != nil {
		return MintResult{}, err
	}
	units := new(big.Int).Mul(big.NewInt(amount), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(b.decimals)), nil))
	tx, err := b.transact(ctx, b.token, "mint", common.HexToAddress(to), units)
	if err != nil {
		return MintResult{}, fmt.Errorf("mint tokens: %w", err)
	}
	b.log.Info("Minted tokens", "to", to, "amount", amount, "tx", tx.Hash().Hex())
	_ = b.cache.Delete(ctx, statsCacheKey)
	return MintResult{Kind: "tokens", To: to, TxHash: tx.Hash().Hex(), Amount: amount}, nil
}

func (b *Bridge) MintNFT(ctx context.Context, to string, tokenURI string) (MintResult, error) {
	if !IsValidAddress(to) {
		return MintResult{}, fmt.Errorf("invalid address %q", to)
	}
	if err := b.Ready(); err != nil {
		return MintResult{}, err
	}
	tx, err := b.transact(ctx, b.nft, "safeMint", common.HexToAddress(to), tokenURI)
	if err != nil {
		return MintResult{}, fmt.Errorf("mint nft: %w", err)
	}
	b.log.Info("Minted badge NFT", "to", to, "uri", tokenURI, "tx", tx.Hash().Hex())
	_ = b.cache.Delete(ctx, statsCacheKey)
	return MintResult{Kind: "nft", To: to, TxHash: tx.Hash().Hex(), TokenURI: tokenURI}, nil
}

// MintTokensAndNFT mints tokens, waits the configured spacing, then mints the badge.
// The spacing keeps a single-signer dev chain from seeing two txs with the same nonce.
func (b *Bridge) MintTokensAndNFT(ctx context.Context, to string, amount int64, tokenURI string) ([]MintResult, error) {
	first, err := b.MintTokens(ctx, to, amount)
	if err != nil {
		return nil, err
	}
	results := []MintResult{first}
	if err := b.sleep(ctx, b.cfg.MintSpacing); err != nil {
		return results, err
	}
	second, err := b.MintNFT(ctx, to, tokenURI)
	if err != nil {
		return results, err
	}
	return append(results, second), nil
}

// GenerateWallet creates a fresh keypair. It needs no RPC connection.
func GenerateWallet() (Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return Wallet{}, err
	}
	return Wallet{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}, nil
}

func (b *Bridge) transact(ctx context.Context, c Contract, method string, params ...interface{}) (*types.Transaction, error) {
	b.mu.RLock()
	base := b.opts
	wait := b.waitMined
	b.mu.RUnlock()

	opts := *base
	opts.Context = ctx
	tx, err := c.Transact(&opts, method, params...)
	if err != nil {
		return nil, err
	}
	if wait != nil {
		receipt, err := wait(ctx, tx)
		if err != nil {
			return tx, fmt.Errorf("wait for %s: %w", method, err)
		}
		if receipt != nil && receipt.Status != types.ReceiptStatusSuccessful {
			return tx, fmt.Errorf("%s reverted in tx %s", method, tx.Hash().Hex())
		}
	}
	return tx, nil
}

func (b *Bridge) callBig(ctx context.Context, c Contract, method string, params ...interface{}) (*big.Int, error) {
	var out []interface{}
	if err := c.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("call %s: empty result", method)
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("call %s: unexpected type %T", method, out[0])
	}
	return v, nil
}

func (b *Bridge) networkName() string {
	if strings.EqualFold(b.cfg.Mode, ModeProduction) {
		return ModeProduction
	}
	return ModeLocal
}

// FormatUnits renders v scaled down by 10^decimals, trimming trailing zeros.
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	if decimals == 0 {
		return v.String()
	}
	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(v, base, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}
	fs := frac.String()
	if pad := int(decimals) - len(fs); pad > 0 {
		fs = strings.Repeat("0", pad) + fs
	}
	fs = strings.TrimRight(fs, "0")
	return whole.String() + "." + fs
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
