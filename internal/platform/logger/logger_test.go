package logger

import "testing"

func TestSanitizeValue(t *testing.T) {
	key := "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	cases := []struct {
		name string
		key  string
		val  interface{}
		want interface{}
	}{
		{name: "api_key", key: "openai_api_key", val: "sk-123", want: "[REDACTED]"},
		{name: "private_key_field", key: "private_key", val: "abc", want: "[REDACTED]"},
		{name: "hex_secret_value", key: "value", val: key, want: "[REDACTED]"},
		{name: "address_passes", key: "wallet", val: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", want: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"},
		{name: "plain", key: "topic", val: "Python", want: "Python"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := sanitizeValue(tc.key, tc.val)
			if got != tc.want {
				t.Fatalf("sanitizeValue(%q)=%v, want %v", tc.key, got, tc.want)
			}
		})
	}
}

func TestSanitizeValueHashesPhone(t *testing.T) {
	got, ok := sanitizeValue("phone_number", "+15551234567").(string)
	if !ok || len(got) != len("hash:")+12 {
		t.Fatalf("expected hashed phone, got %v", got)
	}
}
