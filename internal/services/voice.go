package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/platform/vapi"
)

type VoiceConfig struct {
	OrgID      string
	PrivateKey string
	TokenTTL   time.Duration
}

type InitiateCallInput struct {
	PlayerID    string
	CharacterID string
	PhoneNumber string
}

type WebTokenResult struct {
	PublicKey string             `json:"publicKey"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	Assistant vapi.Assistant     `json:"assistant"`
	Character *types.AICharacter `json:"character"`
}

type VoiceService interface {
	Initiate(ctx context.Context, in InitiateCallInput) (*types.VapiCall, error)
	WebToken(ctx context.Context, playerID, characterID string) (*WebTokenResult, error)
	GetCall(ctx context.Context, id string) (*types.VapiCall, error)
	EndCall(ctx context.Context, id string) (*types.VapiCall, error)
	HandleWebhook(ctx context.Context, body []byte) error
}

type voiceService struct {
	db     *gorm.DB
	log    *logger.Logger
	cfg    VoiceConfig
	chars  repos.AICharacterRepo
	calls  repos.VapiCallRepo
	client vapi.Client
	now    func() time.Time
}

func NewVoiceService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg VoiceConfig,
	charRepo repos.AICharacterRepo,
	callRepo repos.VapiCallRepo,
	client vapi.Client,
) VoiceService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &voiceService{
		db:     db,
		log:    baseLog.With("service", "VoiceService"),
		cfg:    cfg,
		chars:  charRepo,
		calls:  callRepo,
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var errVoiceUnavailable = apierr.New(http.StatusServiceUnavailable, "voice_unavailable", fmt.Errorf("voice calls are not configured"))

func (s *voiceService) character(ctx context.Context, id string) (*types.AICharacter, error) {
	cid, err := parseCharacterID(id)
	if err != nil {
		return nil, err
	}
	c, err := s.chars.GetByID(ctx, s.db, cid)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apierr.NotFound("character_not_found", "character not found")
	}
	if !c.IsActive {
		return nil, apierr.BadRequest("character_inactive", "character is not available for calls")
	}
	return c, nil
}

func (s *voiceService) assistantFor(c *types.AICharacter, playerID string, callID uuid.UUID) vapi.Assistant {
	meta := map[string]any{"characterId": c.ID.String()}
	if playerID != "" {
		meta["playerId"] = playerID
	}
	if callID != uuid.Nil {
		meta["callId"] = callID.String()
	}
	a := vapi.Assistant{
		Name:         c.Name,
		FirstMessage: c.FirstMessage,
		Model: vapi.Model{
			Provider: "openai",
			Model:    orDefault(c.Model, defaultVoiceModel),
			Messages: []vapi.Message{{Role: "system", Content: c.SystemPrompt}},
		},
		Voice:    vapi.Voice{Provider: orDefault(c.VoiceProvider, defaultVoiceProvider), VoiceID: c.VoiceID},
		Metadata: meta,
	}
	if s.client != nil {
		a.ServerURL = s.client.WebhookURL()
	}
	return a
}

func (s *voiceService) Initiate(ctx context.Context, in InitiateCallInput) (*types.VapiCall, error) {
	if s.client == nil {
		return nil, errVoiceUnavailable
	}
	playerID := strings.TrimSpace(in.PlayerID)
	phone := strings.TrimSpace(in.PhoneNumber)
	if playerID == "" {
		return nil, apierr.BadRequest("missing_player_id", "playerId is required")
	}
	if phone == "" {
		return nil, apierr.BadRequest("missing_phone_number", "phoneNumber is required for phone calls")
	}
	if s.client.PhoneNumberID() == "" {
		return nil, errVoiceUnavailable
	}
	c, err := s.character(ctx, in.CharacterID)
	if err != nil {
		return nil, err
	}

	call, err := s.calls.Create(ctx, s.db, &types.VapiCall{
		PlayerID:    playerID,
		CharacterID: c.ID,
		PhoneNumber: phone,
	})
	if err != nil {
		return nil, err
	}

	remote, err := s.client.CreateCall(ctx, vapi.CreateCallRequest{
		Assistant:     s.assistantFor(c, playerID, call.ID),
		PhoneNumberID: s.client.PhoneNumberID(),
		Customer:      &vapi.Customer{Number: phone},
	})
	if err != nil {
		s.log.Error("provider call creation failed", "call_id", call.ID, "error", err)
		s.advance(call, types.CallFailed)
		call.EndedReason = "provider-error"
		if serr := s.calls.Save(ctx, s.db, call); serr != nil {
			s.log.Error("save failed call", "call_id", call.ID, "error", serr)
		}
		return nil, apierr.New(http.StatusBadGateway, "provider_error", fmt.Errorf("failed to start call: %w", err))
	}

	call.ProviderCallID = remote.ID
	s.advance(call, types.CallRinging)
	if next, ok := mapProviderStatus(remote.Status); ok {
		s.advance(call, next)
	}
	if err := s.calls.Save(ctx, s.db, call); err != nil {
		return nil, err
	}
	s.log.Info("call initiated", "call_id", call.ID, "provider_call_id", call.ProviderCallID, "character", c.Name)
	return call, nil
}

func (s *voiceService) WebToken(ctx context.Context, playerID, characterID string) (*WebTokenResult, error) {
	if s.client == nil || s.client.PublicKey() == "" {
		return nil, errVoiceUnavailable
	}
	c, err := s.character(ctx, characterID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	res := &WebTokenResult{
		PublicKey: s.client.PublicKey(),
		Assistant: s.assistantFor(c, strings.TrimSpace(playerID), uuid.Nil),
		Character: c,
	}
	if s.cfg.PrivateKey != "" && s.cfg.OrgID != "" {
		tok, err := vapi.SignWebToken(s.cfg.OrgID, s.cfg.PrivateKey, strings.TrimSpace(playerID), s.cfg.TokenTTL, now)
		if err != nil {
			return nil, err
		}
		res.Token = tok
		res.ExpiresAt = now.Add(s.cfg.TokenTTL)
	}
	return res, nil
}

func (s *voiceService) load(ctx context.Context, id string) (*types.VapiCall, error) {
	cid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apierr.BadRequest("invalid_call_id", "invalid call id")
	}
	call, err := s.calls.GetByID(ctx, s.db, cid)
	if err != nil {
		return nil, err
	}
	if call == nil {
		return nil, apierr.NotFound("call_not_found", "call not found")
	}
	return call, nil
}

// GetCall returns the stored call, refreshed from the provider while it is live.
func (s *voiceService) GetCall(ctx context.Context, id string) (*types.VapiCall, error) {
	call, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.client == nil || call.ProviderCallID == "" || call.Status.Terminal() {
		return call, nil
	}
	remote, err := s.client.GetCall(ctx, call.ProviderCallID)
	if err != nil {
		s.log.Warn("provider call refresh failed", "call_id", call.ID, "error", err)
		return call, nil
	}
	if s.applyRemote(call, remote) {
		if err := s.calls.Save(ctx, s.db, call); err != nil {
			return nil, err
		}
	}
	return call, nil
}

func (s *voiceService) EndCall(ctx context.Context, id string) (*types.VapiCall, error) {
	call, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if call.Status.Terminal() {
		return call, nil
	}
	if s.client != nil && call.ProviderCallID != "" {
		if err := s.client.EndCall(ctx, call.ProviderCallID); err != nil {
			return nil, apierr.New(http.StatusBadGateway, "provider_error", fmt.Errorf("failed to end call: %w", err))
		}
	}
	s.advance(call, types.CallEnded)
	call.EndedReason = "ended-by-player"
	if err := s.calls.Save(ctx, s.db, call); err != nil {
		return nil, err
	}
	return call, nil
}

type webhookEnvelope struct {
	Message webhookMessage `json:"message"`
}

type webhookMessage struct {
	Type        string       `json:"type"`
	Status      string       `json:"status"`
	EndedReason string       `json:"endedReason"`
	Transcript  string       `json:"transcript"`
	Summary     string       `json:"summary"`
	Cost        float64      `json:"cost"`
	Call        *webhookCall `json:"call"`
}

type webhookCall struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata"`
}

// HandleWebhook applies a provider event. Unknown calls and event types are ignored.
func (s *voiceService) HandleWebhook(ctx context.Context, body []byte) error {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode webhook: %w", err)
	}
	m := env.Message
	if m.Call == nil || m.Call.ID == "" {
		s.log.Debug("webhook without call id", "type", m.Type)
		return nil
	}
	call, err := s.findByProvider(ctx, m.Call.ID, m.Call.Metadata)
	if err != nil {
		return err
	}
	if call == nil {
		s.log.Debug("webhook for unknown call", "provider_call_id", m.Call.ID, "type", m.Type)
		return nil
	}

	changed := false
	switch m.Type {
	case "status-update":
		if next, ok := mapProviderStatus(m.Status); ok {
			changed = s.advance(call, next)
		}
		if m.EndedReason != "" && call.EndedReason == "" {
			call.EndedReason = m.EndedReason
			changed = true
		}
	case "end-of-call-report":
		next := types.CallEnded
		if isFailureReason(m.EndedReason) {
			next = types.CallFailed
		}
		changed = s.advance(call, next)
		if m.EndedReason != "" {
			call.EndedReason = m.EndedReason
		}
		if m.Transcript != "" {
			call.Transcript = m.Transcript
		}
		if m.Summary != "" {
			call.Summary = m.Summary
		}
		if m.Cost > 0 {
			call.Cost = m.Cost
		}
		changed = true
	default:
		return nil
	}
	if call.ProviderCallID == "" {
		call.ProviderCallID = m.Call.ID
		changed = true
	}
	if !changed {
		return nil
	}
	return s.calls.Save(ctx, s.db, call)
}

func (s *voiceService) findByProvider(ctx context.Context, providerID string, meta map[string]any) (*types.VapiCall, error) {
	call, err := s.calls.GetByProviderCallID(ctx, s.db, providerID)
	if err != nil || call != nil {
		return call, err
	}
	raw, _ := meta["callId"].(string)
	cid, perr := uuid.Parse(raw)
	if perr != nil {
		return nil, nil
	}
	return s.calls.GetByID(ctx, s.db, cid)
}

func (s *voiceService) applyRemote(call *types.VapiCall, remote *vapi.Call) bool {
	if remote == nil {
		return false
	}
	next, ok := mapProviderStatus(remote.Status)
	if !ok {
		return false
	}
	if next == types.CallEnded && isFailureReason(remote.EndedReason) {
		next = types.CallFailed
	}
	changed := s.advance(call, next)
	if changed && remote.EndedReason != "" {
		call.EndedReason = remote.EndedReason
	}
	if remote.Transcript != "" && call.Transcript != remote.Transcript {
		call.Transcript = remote.Transcript
		changed = true
	}
	if remote.Summary != "" && call.Summary != remote.Summary {
		call.Summary = remote.Summary
		changed = true
	}
	if remote.Cost > 0 && call.Cost != remote.Cost {
		call.Cost = remote.Cost
		changed = true
	}
	return changed
}

// advance moves call forward to next and stamps lifecycle times. Backward or
// post-terminal transitions are ignored.
func (s *voiceService) advance(call *types.VapiCall, next types.CallStatus) bool {
	if !call.Status.CanAdvanceTo(next) {
		return false
	}
	now := s.now()
	call.Status = next
	if next == types.CallInProgress && call.StartedAt == nil {
		call.StartedAt = &now
	}
	if next.Terminal() && call.EndedAt == nil {
		call.EndedAt = &now
	}
	return true
}

func mapProviderStatus(status string) (types.CallStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "queued", "ringing":
		return types.CallRinging, true
	case "in-progress", "forwarding":
		return types.CallInProgress, true
	case "ended":
		return types.CallEnded, true
	case "failed":
		return types.CallFailed, true
	}
	return "", false
}

func isFailureReason(reason string) bool {
	r := strings.ToLower(reason)
	return strings.Contains(r, "error") || strings.Contains(r, "failed")
}
