package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/kon-rad/juego-sub000/internal/platform/cache"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

const testAddr = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

type fakeContract struct {
	mu       sync.Mutex
	name     string
	supply   *big.Int
	calls    map[string]int
	sent     []string
	log      *[]string
	failSend error
}

func newFakeContract(name string, supply int64, log *[]string) *fakeContract {
	return &fakeContract{name: name, supply: big.NewInt(supply), calls: map[string]int{}, log: log}
}

func (f *fakeContract) Call(_ *bind.CallOpts, results *[]interface{}, method string, _ ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	switch method {
	case "decimals":
		*results = []interface{}{uint8(18)}
	case "totalSupply", "balanceOf":
		*results = []interface{}{new(big.Int).Set(f.supply)}
	default:
		return errors.New("unknown method " + method)
	}
	return nil
}

func (f *fakeContract) Transact(opts *bind.TransactOpts, method string, _ ...interface{}) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend != nil {
		return nil, f.failSend
	}
	f.sent = append(f.sent, method)
	if f.log != nil {
		*f.log = append(*f.log, f.name+"."+method)
	}
	return types.NewTx(&types.LegacyTx{Nonce: uint64(len(f.sent)), Gas: 21000, GasPrice: big.NewInt(1)}), nil
}

func newTestBridge(t *testing.T, token, nft *fakeContract) *Bridge {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	opts, err := transactorFor(key, big.NewInt(31337))
	if err != nil {
		t.Fatalf("transactorFor: %v", err)
	}
	b := NewBridge(logger.Nop(), Config{
		Mode:         ModeLocal,
		ChainID:      31337,
		TokenAddress: testAddr,
		NFTAddress:   testAddr,
		MintSpacing:  time.Second,
	}, cache.NewMemory())
	b.token = token
	b.nft = nft
	b.opts = opts
	b.decimals = 18
	b.ready = true
	b.waitMined = func(context.Context, *types.Transaction) (*types.Receipt, error) {
		return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
	}
	return b
}

func TestStatsAreCached(t *testing.T) {
	token := newFakeContract("token", 0, nil)
	token.supply = new(big.Int).Mul(big.NewInt(150), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	nft := newFakeContract("nft", 4, nil)
	b := newTestBridge(t, token, nft)

	ctx := context.Background()
	s1, err := b.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s1.TotalTokens != "150" || s1.TotalNFTs != 4 {
		t.Fatalf("unexpected stats %+v", s1)
	}
	if _, err := b.Stats(ctx); err != nil {
		t.Fatalf("Stats (cached): %v", err)
	}
	if token.calls["totalSupply"] != 1 || nft.calls["totalSupply"] != 1 {
		t.Fatalf("expected one supply read each, got token=%d nft=%d", token.calls["totalSupply"], nft.calls["totalSupply"])
	}
}

func TestMintTokensAndNFTIsSequentialWithSpacing(t *testing.T) {
	var order []string
	token := newFakeContract("token", 0, &order)
	nft := newFakeContract("nft", 0, &order)
	b := newTestBridge(t, token, nft)

	var slept []time.Duration
	b.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		order = append(order, "sleep")
		return nil
	}

	results, err := b.MintTokensAndNFT(context.Background(), testAddr, 10, "ipfs://badge/1")
	if err != nil {
		t.Fatalf("MintTokensAndNFT: %v", err)
	}
	if len(results) != 2 || results[0].Kind != "tokens" || results[1].Kind != "nft" {
		t.Fatalf("unexpected results %+v", results)
	}
	if strings.Join(order, ",") != "token.mint,sleep,nft.safeMint" {
		t.Fatalf("unexpected order %v", order)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected one 1s spacing, got %v", slept)
	}
}

func TestMintRejectsInvalidAddress(t *testing.T) {
	b := newTestBridge(t, newFakeContract("token", 0, nil), newFakeContract("nft", 0, nil))
	if _, err := b.MintTokens(context.Background(), "not-an-address", 5); err == nil {
		t.Fatalf("expected invalid address error")
	}
}

func TestUninitializedBridgeFails(t *testing.T) {
	b := NewBridge(logger.Nop(), Config{}, nil)
	if _, err := b.TotalNFTs(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("err=%v, want ErrNotInitialized", err)
	}
}

func TestInitFailureIsSticky(t *testing.T) {
	b := NewBridge(logger.Nop(), Config{Mode: ModeLocal, TokenAddress: "bad"}, nil)
	first := b.Init(context.Background())
	if first == nil {
		t.Fatalf("expected init error")
	}
	if err := b.Init(context.Background()); err != first {
		t.Fatalf("second Init=%v, want %v", err, first)
	}
	if _, err := b.TotalTokens(context.Background()); err == nil || !errors.Is(err, first) {
		t.Fatalf("TotalTokens err=%v, want wrapped init error", err)
	}
}

func TestGenerateWallet(t *testing.T) {
	w, err := GenerateWallet()
	if err != nil {
		t.Fatalf("GenerateWallet: %v", err)
	}
	if !IsValidAddress(w.Address) {
		t.Fatalf("invalid address %q", w.Address)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(w.PrivateKey, "0x"))
	if err != nil {
		t.Fatalf("HexToECDSA: %v", err)
	}
	if crypto.PubkeyToAddress(key.PublicKey) != common.HexToAddress(w.Address) {
		t.Fatalf("private key does not match address")
	}
}

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		v    *big.Int
		d    uint8
		want string
	}{
		{big.NewInt(0), 18, "0"},
		{new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), 18, "1"},
		{big.NewInt(1500000000000000000), 18, "1.5"},
		{big.NewInt(5), 2, "0.05"},
		{big.NewInt(42), 0, "42"},
	}
	for _, tc := range cases {
		if got := FormatUnits(tc.v, tc.d); got != tc.want {
			t.Fatalf("FormatUnits(%s,%d)=%q, want %q", tc.v, tc.d, got, tc.want)
		}
	}
}

func TestIsValidAddress(t *testing.T) {
	if !IsValidAddress(testAddr) {
		t.Fatalf("expected valid")
	}
	for _, bad := range []string{"", "0x123", "742d35Cc6634C0532925a3b844Bc454e4438f44e", "0xZZ2d35Cc6634C0532925a3b844Bc454e4438f44e"} {
		if IsValidAddress(bad) {
			t.Fatalf("IsValidAddress(%q)=true", bad)
		}
	}
}
