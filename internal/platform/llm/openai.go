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

type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature *float64
	Timeout     time.Duration
}

type openAIClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	temp       *float64
	httpClient *http.Client
	retry      httpx.Policy
}

// NewOpenAI returns a Responses API client. It supports function tools and
// json_schema structured output.
func NewOpenAI(log *logger.Logger, cfg Config, retry httpx.Policy) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if retry == nil {
		retry = httpx.NoRetry()
	}
	return &openAIClient{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		temp:       cfg.Temperature,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}, nil
}

func (c *openAIClient) Provider() string    { return "openai" }
func (c *openAIClient) SupportsTools() bool { return true }

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesTool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
	Strict      bool           `json:"strict"`
}

type responsesRequest struct {
	Model        string           `json:"model"`
	Instructions string           `json:"instructions,omitempty"`
	Input        []responsesInput `json:"input"`
	Tools        []responsesTool  `json:"tools,omitempty"`
	ToolChoice   any              `json:"tool_choice,omitempty"`
	Text         *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"max_output_tokens,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type      string `json:"type"`
		Role      string `json:"role,omitempty"`
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
		Content   []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func (c *openAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	body := responsesRequest{
		Model:           c.model,
		Instructions:    req.System,
		Temperature:     c.temp,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	for _, m := range req.Messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		body.Input = append(body.Input, responsesInput{Role: m.Role, Content: m.Content})
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, responsesTool{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
			Strict:      true,
		})
	}
	if req.ForceTool != "" {
		body.ToolChoice = map[string]any{"type": "function", "name": req.ForceTool}
	}
	if req.Schema != nil {
		body.Text = &struct {
			Format map[string]any `json:"format,omitempty"`
		}{Format: map[string]any{
			"type":   "json_schema",
			"name":   req.Schema.Name,
			"schema": req.Schema.Schema,
			"strict": true,
		}}
	}

	var resp responsesResponse
	err := c.retry.Do(ctx, "openai.responses", func(ctx context.Context) error {
		return c.doOnce(ctx, "/v1/responses", body, &resp)
	})
	if err != nil {
		return Response{}, err
	}
	if resp.Refusal != "" {
		return Response{}, fmt.Errorf("model refused: %s", resp.Refusal)
	}

	var out Response
	var text strings.Builder
	for _, item := range resp.Output {
		switch item.Type {
		case "message":
			for _, part := range item.Content {
				if part.Type == "output_text" {
					text.WriteString(part.Text)
				}
			}
		case "function_call":
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				Name:      item.Name,
				Arguments: json.RawMessage(item.Arguments),
			})
		}
	}
	out.Text = text.String()
	if strings.TrimSpace(out.Text) == "" && len(out.ToolCalls) == 0 {
		return Response{}, ErrEmptyResponse
	}
	return out, nil
}

func (c *openAIClient) doOnce(ctx context.Context, path string, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

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
		return httpx.NewStatusError("openai", resp, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("openai decode error: %w", err)
	}
	return nil
}
