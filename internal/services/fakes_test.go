package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	"github.com/kon-rad/juego-sub000/internal/data/repos/testutil"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	chatdomain "github.com/kon-rad/juego-sub000/internal/domain/chat"
	"github.com/kon-rad/juego-sub000/internal/platform/chain"
	"github.com/kon-rad/juego-sub000/internal/platform/llm"
	"github.com/kon-rad/juego-sub000/internal/platform/vapi"
)

// testTx returns a rolled-back transaction that services use as their db.
func testTx(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.Tx(t, testutil.DB(t))
}

type fakeLLM struct {
	mu    sync.Mutex
	tools bool
	queue []fakeReply
	reqs  []llm.Request
}

type fakeReply struct {
	resp llm.Response
	err  error
}

func (f *fakeLLM) Provider() string {
	if f.tools {
		return "openai"
	}
	return "compat"
}

func (f *fakeLLM) SupportsTools() bool { return f.tools }

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if len(f.queue) == 0 {
		return llm.Response{}, llm.ErrEmptyResponse
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next.resp, next.err
}

func (f *fakeLLM) text(s string) *fakeLLM {
	f.queue = append(f.queue, fakeReply{resp: llm.Response{Text: s}})
	return f
}

func (f *fakeLLM) fail(err error) *fakeLLM {
	f.queue = append(f.queue, fakeReply{err: err})
	return f
}

func (f *fakeLLM) toolCall(name string, args any) *fakeLLM {
	raw, _ := json.Marshal(args)
	f.queue = append(f.queue, fakeReply{resp: llm.Response{ToolCalls: []llm.ToolCall{{Name: name, Arguments: raw}}}})
	return f
}

type fakeMinter struct {
	mu      sync.Mutex
	tokens  []int64
	nftURIs []string
	err     error
	ready   error
}

func (m *fakeMinter) MintTokens(_ context.Context, to string, amount int64) (chain.MintResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return chain.MintResult{}, m.err
	}
	m.tokens = append(m.tokens, amount)
	return chain.MintResult{Kind: "tokens", To: to, Amount: amount, TxHash: fmt.Sprintf("0xtok%d", len(m.tokens))}, nil
}

func (m *fakeMinter) MintNFT(_ context.Context, to, uri string) (chain.MintResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return chain.MintResult{}, m.err
	}
	m.nftURIs = append(m.nftURIs, uri)
	return chain.MintResult{Kind: "nft", To: to, TokenURI: uri, TxHash: fmt.Sprintf("0xnft%d", len(m.nftURIs))}, nil
}

func (m *fakeMinter) MintTokensAndNFT(ctx context.Context, to string, amount int64, uri string) ([]chain.MintResult, error) {
	t, err := m.MintTokens(ctx, to, amount)
	if err != nil {
		return nil, err
	}
	n, err := m.MintNFT(ctx, to, uri)
	if err != nil {
		return []chain.MintResult{t}, err
	}
	return []chain.MintResult{t, n}, nil
}

func (m *fakeMinter) NFTBaseURI() string { return "ipfs://badges/" }
func (m *fakeMinter) Ready() error       { return m.ready }

func (m *fakeMinter) Stats(context.Context) (chain.Stats, error) {
	return chain.Stats{Network: "local", TotalTokens: "10", TotalNFTs: 1}, nil
}
func (m *fakeMinter) TotalTokens(context.Context) (string, error) { return "10", nil }
func (m *fakeMinter) TotalNFTs(context.Context) (int64, error)    { return 1, nil }
func (m *fakeMinter) PlayerBalances(_ context.Context, addr string) (chain.PlayerBalances, error) {
	return chain.PlayerBalances{Address: addr, TokenBalance: "10", NFTBalance: 1}, nil
}

// memChatRepo mirrors the mongo repo's pair-key semantics in memory.
type memChatRepo struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]*types.Chat
	byPair map[string]primitive.ObjectID
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{byID: map[primitive.ObjectID]*types.Chat{}, byPair: map[string]primitive.ObjectID{}}
}

func (r *memChatRepo) UpsertPair(_ context.Context, a, b string, info map[string]types.ParticipantInfo) (*types.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := chatdomain.PairKey(a, b)
	now := time.Now().UTC()
	if id, ok := r.byPair[key]; ok {
		c := r.byID[id]
		if len(info) > 0 {
			c.ParticipantInfo = info
		}
		c.UpdatedAt = now
		cp := *c
		return &cp, nil
	}
	pair := chatdomain.SortedPair(a, b)
	c := &types.Chat{ID: primitive.NewObjectID(), Participants: pair, PairKey: key, ParticipantInfo: info, CreatedAt: now, UpdatedAt: now}
	r.byID[c.ID] = c
	r.byPair[key] = c.ID
	cp := *c
	return &cp, nil
}

func (r *memChatRepo) GetByID(_ context.Context, id primitive.ObjectID) (*types.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memChatRepo) ListForPlayer(_ context.Context, playerID string) ([]*types.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*types.Chat{}
	for _, c := range r.byID {
		if c.HasParticipant(playerID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memChatRepo) TouchLastMessage(_ context.Context, id primitive.ObjectID, content string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.LastMessage = content
		c.LastMessageAt = &at
		c.UpdatedAt = at
	}
	return nil
}

type memMessageRepo struct {
	mu   sync.Mutex
	msgs []*types.ChatMessage
}

func (r *memMessageRepo) Insert(_ context.Context, m *types.ChatMessage) (*types.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = primitive.NewObjectID()
	r.msgs = append(r.msgs, m)
	return m, nil
}

func (r *memMessageRepo) ListByChat(_ context.Context, chatID primitive.ObjectID, limit int64) ([]*types.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*types.ChatMessage{}
	for _, m := range r.msgs {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	if int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

type sentEvent struct {
	playerID string
	event    string
	data     any
}

type recordingEmitter struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (e *recordingEmitter) SendTo(_ context.Context, playerID, event string, data any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, sentEvent{playerID: playerID, event: event, data: data})
	return nil
}

type fakeVapi struct {
	created []vapi.CreateCallRequest
	ended   []string
	remote  *vapi.Call
	err     error
}

func (f *fakeVapi) CreateCall(_ context.Context, req vapi.CreateCallRequest) (*vapi.Call, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	return &vapi.Call{ID: "prov-1", Status: "queued"}, nil
}

func (f *fakeVapi) GetCall(_ context.Context, id string) (*vapi.Call, error) {
	if f.remote == nil {
		return &vapi.Call{ID: id, Status: "queued"}, nil
	}
	return f.remote, nil
}

func (f *fakeVapi) EndCall(_ context.Context, id string) error {
	f.ended = append(f.ended, id)
	return nil
}

func (f *fakeVapi) PublicKey() string     { return "pub-key" }
func (f *fakeVapi) WebhookURL() string    { return "https://example.test/api/vapi/webhook" }
func (f *fakeVapi) PhoneNumberID() string { return "phone-1" }

var (
	_ repos.ChatRepo        = (*memChatRepo)(nil)
	_ repos.ChatMessageRepo = (*memMessageRepo)(nil)
	_ RewardBridge          = (*fakeMinter)(nil)
	_ RewardBridge          = (*chain.Bridge)(nil)
	_ vapi.Client           = (*fakeVapi)(nil)
)
