// Package vapi talks to the voice-call provider's REST API.
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kon-rad/juego-sub000/internal/platform/httpx"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

type Config struct {
	BaseURL       string
	APIKey        string
	PublicKey     string
	PrivateKey    string
	OrgID         string
	PhoneNumberID string
	WebhookURL    string
	Timeout       time.Duration
}

type Voice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

type Model struct {
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
	Messages []Message `json:"messages,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Assistant is the transient assistant definition sent with each call.
type Assistant struct {
	Name         string         `json:"name"`
	FirstMessage string         `json:"firstMessage,omitempty"`
	Model        Model          `json:"model"`
	Voice        Voice          `json:"voice"`
	ServerURL    string         `json:"serverUrl,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type Customer struct {
	Number string `json:"number"`
}

type CreateCallRequest struct {
	Assistant     Assistant `json:"assistant"`
	PhoneNumberID string    `json:"phoneNumberId,omitempty"`
	Customer      *Customer `json:"customer,omitempty"`
}

type Call struct {
	ID          string  `json:"id"`
	Type        string  `json:"type,omitempty"`
	Status      string  `json:"status"`
	EndedReason string  `json:"endedReason,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	StartedAt   string  `json:"startedAt,omitempty"`
	EndedAt     string  `json:"endedAt,omitempty"`
	Transcript  string  `json:"transcript,omitempty"`
	Summary     string  `json:"summary,omitempty"`
}

// Client is the subset of the provider API the voice service uses.
type Client interface {
	CreateCall(ctx context.Context, req CreateCallRequest) (*Call, error)
	GetCall(ctx context.Context, id string) (*Call, error)
	EndCall(ctx context.Context, id string) error
	PublicKey() string
	WebhookURL() string
	PhoneNumberID() string
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	retry      httpx.Policy
}

func NewClient(log *logger.Logger, cfg Config, retry httpx.Policy) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing VAPI_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.vapi.ai"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if retry == nil {
		retry = httpx.NoRetry()
	}
	return &client{
		log:        log.With("service", "VapiClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      retry,
	}, nil
}

func (c *client) PublicKey() string     { return c.cfg.PublicKey }
func (c *client) WebhookURL() string    { return c.cfg.WebhookURL }
func (c *client) PhoneNumberID() string { return c.cfg.PhoneNumberID }

func (c *client) CreateCall(ctx context.Context, req CreateCallRequest) (*Call, error) {
	var out Call
	// Creating a call is not idempotent, so it is never retried.
	if err := c.do(ctx, http.MethodPost, "/call", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) GetCall(ctx context.Context, id string) (*Call, error) {
	var out Call
	err := c.retry.Do(ctx, "vapi.get_call", func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, "/call/"+url.PathEscape(id), nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) EndCall(ctx context.Context, id string) error {
	return c.retry.Do(ctx, "vapi.end_call", func(ctx context.Context) error {
		err := c.do(ctx, http.MethodDelete, "/call/"+url.PathEscape(id), nil, nil)
		var se *httpx.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil
		}
		return err
	})
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
		rdr = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpx.NewStatusError("vapi", resp, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("vapi decode error: %w", err)
	}
	return nil
}
