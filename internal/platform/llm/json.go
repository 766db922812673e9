package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

// ExtractFencedJSON pulls the first JSON object out of a ```json fenced block.
// A bare object in the text is accepted when no fence is present.
func ExtractFencedJSON(text string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(text); len(m) == 2 {
		return m[1], true
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1], true
	}
	return "", false
}

// FencedJSONInstruction asks a model without structured output for a fenced JSON object.
const FencedJSONInstruction = "\n\nRespond ONLY with a single ```json fenced code block containing an object that matches this JSON schema:\n"

// GenerateJSON asks for a JSON object, using native structured output when the
// client supports it and a fenced block otherwise.
func GenerateJSON(ctx context.Context, c Client, system, user string, schema JSONSchema) (map[string]any, error) {
	req := Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
	}
	if c.SupportsTools() {
		req.Schema = &schema
	} else {
		raw, err := json.Marshal(schema.Schema)
		if err != nil {
			return nil, err
		}
		req.System = system + FencedJSONInstruction + string(raw)
	}

	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	if !c.SupportsTools() {
		body, ok := ExtractFencedJSON(text)
		if !ok {
			return nil, fmt.Errorf("no JSON block in model output")
		}
		text = body
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return obj, nil
}
