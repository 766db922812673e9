package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kon-rad/juego-sub000/internal/platform/httpx"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

// compatClient speaks the plain /v1/chat/completions dialect offered by most
// hosted and local model servers. Structured output is requested in the prompt.
type compatClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	temp       *float64
	httpClient *http.Client
	retry      httpx.Policy
}

func NewCompat(log *logger.Logger, cfg Config, retry httpx.Policy) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing COMPAT_BASE_URL")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("missing COMPAT_MODEL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if retry == nil {
		retry = httpx.NoRetry()
	}
	return &compatClient{
		log:        log.With("service", "CompatLLMClient"),
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      strings.TrimSpace(cfg.Model),
		temp:       cfg.Temperature,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}, nil
}

func (c *compatClient) Provider() string    { return "compat" }
func (c *compatClient) SupportsTools() bool { return false }

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *compatClient) Complete(ctx context.Context, req Request) (Response, error) {
	body := chatCompletionRequest{
		Model:       c.model,
		Temperature: c.temp,
		MaxTokens:   req.MaxOutputTokens,
	}
	if strings.TrimSpace(req.System) != "" {
		body.Messages = append(body.Messages, Message{Role: RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		body.Messages = append(body.Messages, m)
	}

	var resp chatCompletionResponse
	err := c.retry.Do(ctx, "compat.chat_completions", func(ctx context.Context) error {
		return c.doOnce(ctx, body, &resp)
	})
	if err != nil {
		return Response{}, err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Response{}, ErrEmptyResponse
	}
	return Response{Text: resp.Choices[0].Message.Content}, nil
}

func (c *compatClient) doOnce(ctx context.Context, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpx.NewStatusError("compat", resp, payload)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("compat decode error: %w", err)
	}
	return nil
}

// New picks the provider named in cfg.Provider.
func New(log *logger.Logger, cfg Config, retry httpx.Policy) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		return NewOpenAI(log, cfg, retry)
	case "compat", "groq", "ollama", "openrouter":
		return NewCompat(log, cfg, retry)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}
}
