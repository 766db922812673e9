package promptstyle

import (
	"strings"
	"testing"
)

func TestApplySystem(t *testing.T) {
	if got := ApplySystem("   ", ModeChat); got != "" {
		t.Fatalf("ApplySystem(blank)=%q, want empty", got)
	}

	got := ApplySystem("You teach chess.", ModeChat)
	if !strings.HasPrefix(got, marker) || !strings.HasSuffix(got, "You teach chess.") {
		t.Fatalf("ApplySystem=%q, want marker prefix and original suffix", got)
	}
	if !strings.Contains(got, "chat bubble") {
		t.Fatalf("chat mode missing reply guidance: %q", got)
	}
	if again := ApplySystem(got, ModeChat); again != got {
		t.Fatalf("ApplySystem is not idempotent")
	}

	if js := ApplySystem("Grade the answer.", ModeJSON); !strings.Contains(js, "single JSON object") {
		t.Fatalf("json mode missing schema guidance: %q", js)
	}
}
