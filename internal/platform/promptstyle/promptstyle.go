// Package promptstyle adds the shared in-game guidance block to character
// system prompts.
package promptstyle

import "strings"

const marker = "JUEGO_PROMPT_STYLE_V1"

const (
	ModeChat = "chat"
	ModeJSON = "json"
)

// ApplySystem prepends the guidance block to system. It is idempotent and
// leaves an empty prompt empty.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou are a character in a 2D multiplayer learning game.")
	b.WriteString("\nStay in character and never mention being an AI model.")
	b.WriteString("\nDo not invent facts; say so when you are unsure.")
	if mode == ModeJSON {
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
	} else {
		b.WriteString("\nReplies appear in a chat bubble: keep them under 120 words and plain text.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}
