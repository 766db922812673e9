package vapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

func TestCreateAndGetCall(t *testing.T) {
	var gotCreate CreateCallRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/call":
			_ = json.NewDecoder(r.Body).Decode(&gotCreate)
			_ = json.NewEncoder(w).Encode(Call{ID: "call-1", Status: "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/call/call-1":
			_ = json.NewEncoder(w).Encode(Call{ID: "call-1", Status: "in-progress"})
		case r.Method == http.MethodDelete && r.URL.Path == "/call/gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{BaseURL: srv.URL, APIKey: "key"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	call, err := c.CreateCall(ctx, CreateCallRequest{Assistant: Assistant{Name: "Ada", Model: Model{Provider: "openai", Model: "gpt-4o-mini"}}})
	if err != nil {
		t.Fatalf("CreateCall: %v", err)
	}
	if call.ID != "call-1" || gotCreate.Assistant.Name != "Ada" {
		t.Fatalf("CreateCall=%+v, sent=%+v", call, gotCreate)
	}

	got, err := c.GetCall(ctx, "call-1")
	if err != nil || got.Status != "in-progress" {
		t.Fatalf("GetCall=%+v,%v", got, err)
	}

	if err := c.EndCall(ctx, "gone"); err != nil {
		t.Fatalf("EndCall on missing call: %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Config{}, nil); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestWebTokenRoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := SignWebToken("org-1", "secret", "player-1", time.Minute, now)
	if err != nil {
		t.Fatalf("SignWebToken: %v", err)
	}
	claims, err := ParseWebToken(tok, "secret")
	if err != nil {
		t.Fatalf("ParseWebToken: %v", err)
	}
	if claims.OrgID != "org-1" || claims.Token.Tag != "public" || claims.Subject != "player-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := ParseWebToken(tok, "other"); err == nil {
		t.Fatalf("expected signature mismatch")
	}
	if _, err := SignWebToken("", "secret", "p", time.Minute, now); err == nil {
		t.Fatalf("expected missing org error")
	}
}
