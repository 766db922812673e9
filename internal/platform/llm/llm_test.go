package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

func TestExtractFencedJSON(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{name: "fenced", text: "Here:\n```json\n{\"score\": 7}\n```\nthanks", want: `{"score": 7}`, ok: true},
		{name: "fenced_nested", text: "```json\n{\"a\": {\"b\": 1}}\n```", want: `{"a": {"b": 1}}`, ok: true},
		{name: "bare", text: "result {\"score\": 3} done", want: `{"score": 3}`, ok: true},
		{name: "none", text: "no json here", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractFencedJSON(tc.text)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ExtractFencedJSON(%q)=(%q,%v), want (%q,%v)", tc.text, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestOpenAICompleteParsesFunctionCall(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing auth header")
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = io.WriteString(w, `{"output":[
			{"type":"message","role":"assistant","content":[{"type":"output_text","text":"Nice."}]},
			{"type":"function_call","name":"submit_evaluation","arguments":"{\"score\":8,\"feedback\":\"good\"}"}
		]}`)
	}))
	defer srv.Close()

	c, err := NewOpenAI(logger.Nop(), Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "m"}, nil)
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	resp, err := c.Complete(context.Background(), Request{
		System:    "sys",
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		Tools:     []Tool{{Name: "submit_evaluation", Parameters: map[string]any{"type": "object"}}},
		ForceTool: "submit_evaluation",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "Nice." {
		t.Fatalf("Text=%q", resp.Text)
	}
	call, ok := resp.FindToolCall("submit_evaluation")
	if !ok {
		t.Fatalf("expected tool call")
	}
	if !strings.Contains(string(call.Arguments), `"score":8`) {
		t.Fatalf("unexpected arguments %s", call.Arguments)
	}
	if gotBody["instructions"] != "sys" {
		t.Fatalf("instructions not forwarded: %v", gotBody["instructions"])
	}
	choice, _ := gotBody["tool_choice"].(map[string]any)
	if choice["name"] != "submit_evaluation" {
		t.Fatalf("tool_choice not forwarded: %v", gotBody["tool_choice"])
	}
}

func TestCompatGenerateJSONUsesFencedBlock(t *testing.T) {
	var sawInstruction bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 && strings.Contains(req.Messages[0].Content, "```json") {
			sawInstruction = true
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{"content": "Sure!\n```json\n{\"name\":\"Ada\"}\n```"},
			}},
		})
	}))
	defer srv.Close()

	c, err := NewCompat(logger.Nop(), Config{BaseURL: srv.URL, Model: "llama"}, nil)
	if err != nil {
		t.Fatalf("NewCompat: %v", err)
	}
	obj, err := GenerateJSON(context.Background(), c, "sys", "make a persona", JSONSchema{
		Name:   "persona",
		Schema: map[string]any{"type": "object"},
	})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if obj["name"] != "Ada" {
		t.Fatalf("name=%v", obj["name"])
	}
	if !sawInstruction {
		t.Fatalf("expected fenced-block instruction in system prompt")
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(logger.Nop(), Config{Provider: "carrier-pigeon"}, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
