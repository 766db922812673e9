package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/platform/vapi"
)

type voiceFixture struct {
	svc   VoiceService
	calls repos.VapiCallRepo
	vapi  *fakeVapi
	char  *types.AICharacter
}

func newVoiceFixture(t *testing.T, cfg VoiceConfig) *voiceFixture {
	t.Helper()
	tx := testTx(t)
	log := logger.Nop()
	chars := repos.NewAICharacterRepo(tx, log)
	created, err := chars.Create(context.Background(), tx, []*types.AICharacter{{
		Name:         "Professor Sage",
		SystemPrompt: "You are wise.",
		FirstMessage: "Hello!",
		IsActive:     true,
	}})
	if err != nil {
		t.Fatalf("seed character: %v", err)
	}
	f := &voiceFixture{calls: repos.NewVapiCallRepo(tx, log), vapi: &fakeVapi{}, char: created[0]}
	f.svc = NewVoiceService(tx, log, cfg, chars, f.calls, f.vapi)
	return f
}

func TestInitiateCallIsRinging(t *testing.T) {
	f := newVoiceFixture(t, VoiceConfig{})
	ctx := context.Background()

	call, err := f.svc.Initiate(ctx, InitiateCallInput{PlayerID: "p1", CharacterID: f.char.ID.String(), PhoneNumber: "+15550100"})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if call.Status != types.CallRinging || call.ProviderCallID != "prov-1" {
		t.Fatalf("call=%+v, want ringing with provider id", call)
	}
	if len(f.vapi.created) != 1 {
		t.Fatalf("provider calls=%d, want 1", len(f.vapi.created))
	}
	req := f.vapi.created[0]
	if req.Customer == nil || req.Customer.Number != "+15550100" || req.Assistant.Metadata["callId"] != call.ID.String() {
		t.Fatalf("request=%+v", req)
	}

	if _, err := f.svc.Initiate(ctx, InitiateCallInput{PlayerID: "p1", CharacterID: f.char.ID.String()}); apierr.StatusOf(err) != 400 {
		t.Fatalf("Initiate without phone=%v, want 400", err)
	}
}

func TestInitiateProviderFailureMarksCallFailed(t *testing.T) {
	f := newVoiceFixture(t, VoiceConfig{})
	f.vapi.err = errors.New("boom")
	ctx := context.Background()

	_, err := f.svc.Initiate(ctx, InitiateCallInput{PlayerID: "p1", CharacterID: f.char.ID.String(), PhoneNumber: "+15550100"})
	if apierr.StatusOf(err) != 502 {
		t.Fatalf("Initiate=%v, want 502", err)
	}
}

func TestWebhookIsForwardOnly(t *testing.T) {
	f := newVoiceFixture(t, VoiceConfig{})
	ctx := context.Background()
	call, err := f.svc.Initiate(ctx, InitiateCallInput{PlayerID: "p1", CharacterID: f.char.ID.String(), PhoneNumber: "+15550100"})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	status := func(s string) []byte {
		return []byte(fmt.Sprintf(`{"message":{"type":"status-update","status":%q,"call":{"id":"prov-1"}}}`, s))
	}
	if err := f.svc.HandleWebhook(ctx, status("in-progress")); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if err := f.svc.HandleWebhook(ctx, status("ringing")); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	got, _ := f.calls.GetByID(ctx, nil, call.ID)
	if got.Status != types.CallInProgress || got.StartedAt == nil {
		t.Fatalf("call=%+v, want in-progress with start time", got)
	}

	report := []byte(`{"message":{"type":"end-of-call-report","endedReason":"customer-ended-call","transcript":"hi","summary":"short chat","cost":0.12,"call":{"id":"prov-1"}}}`)
	if err := f.svc.HandleWebhook(ctx, report); err != nil {
		t.Fatalf("HandleWebhook report: %v", err)
	}
	got, _ = f.calls.GetByID(ctx, nil, call.ID)
	if got.Status != types.CallEnded || got.EndedAt == nil || got.Transcript != "hi" || got.Summary != "short chat" {
		t.Fatalf("call=%+v, want ended with report", got)
	}

	if err := f.svc.HandleWebhook(ctx, status("in-progress")); err != nil {
		t.Fatalf("HandleWebhook after end: %v", err)
	}
	got, _ = f.calls.GetByID(ctx, nil, call.ID)
	if got.Status != types.CallEnded {
		t.Fatalf("status=%s, want ended to stick", got.Status)
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	f := newVoiceFixture(t, VoiceConfig{})
	if err := f.svc.HandleWebhook(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
	unknown := []byte(`{"message":{"type":"status-update","status":"ended","call":{"id":"nobody"}}}`)
	if err := f.svc.HandleWebhook(context.Background(), unknown); err != nil {
		t.Fatalf("unknown call err=%v, want nil", err)
	}
}

func TestEndCallAndRefresh(t *testing.T) {
	f := newVoiceFixture(t, VoiceConfig{})
	ctx := context.Background()
	call, _ := f.svc.Initiate(ctx, InitiateCallInput{PlayerID: "p1", CharacterID: f.char.ID.String(), PhoneNumber: "+15550100"})

	f.vapi.remote = &vapi.Call{ID: "prov-1", Status: "in-progress"}
	got, err := f.svc.GetCall(ctx, call.ID.String())
	if err != nil || got.Status != types.CallInProgress {
		t.Fatalf("GetCall=%+v err=%v, want in-progress", got, err)
	}

	ended, err := f.svc.EndCall(ctx, call.ID.String())
	if err != nil {
		t.Fatalf("EndCall: %v", err)
	}
	if ended.Status != types.CallEnded || len(f.vapi.ended) != 1 {
		t.Fatalf("EndCall=%+v ended=%v", ended, f.vapi.ended)
	}
	if _, err := f.svc.GetCall(ctx, "nope"); apierr.StatusOf(err) != 400 {
		t.Fatalf("GetCall(bad id)=%v, want 400", err)
	}
}

func TestWebTokenSignsWhenConfigured(t *testing.T) {
	f := newVoiceFixture(t, VoiceConfig{OrgID: "org-1", PrivateKey: "secret", TokenTTL: time.Minute})
	res, err := f.svc.WebToken(context.Background(), "p1", f.char.ID.String())
	if err != nil {
		t.Fatalf("WebToken: %v", err)
	}
	if res.PublicKey != "pub-key" || res.Token == "" || res.Assistant.Name != "Professor Sage" {
		t.Fatalf("WebToken=%+v", res)
	}
	claims, err := vapi.ParseWebToken(res.Token, "secret")
	if err != nil || claims.OrgID != "org-1" || claims.Subject != "p1" {
		t.Fatalf("claims=%+v err=%v", claims, err)
	}
}
