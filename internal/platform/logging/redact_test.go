package logging

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/m-mizutani/masq"
	"github.com/stretchr/testify/assert"
)

func TestNewReplaceAttr(t *testing.T) {
	tests := []struct {
		name   string
		attr   slog.Attr
		secret string
	}{
		{"api key field", slog.String("api_key", "not-a-key-shape"), "not-a-key-shape"},
		{"env var name", slog.String("OPENAI_API_KEY", "plain-value"), "plain-value"},
		{"bearer header", slog.String("header", "Bearer sk-live-token"), "sk-live-token"},
		{"project key in any field", slog.String("value", "sk-proj-AbCdEfGhIjKlMnOpQrStUv"), "AbCdEfGhIjKlMnOpQrStUv"},
		{"legacy key in any field", slog.String("value", "sk-AbCdEfGhIjKlMnOpQrStUv"), "AbCdEfGhIjKlMnOpQrStUv"},
		{"jwt", slog.String("session_cookie", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig"), "eyJzdWIiOiIxIn0"},
		{"basic auth", slog.String("upstream", "Basic dXNlcjpwYXNz"), "dXNlcjpwYXNz"},
		{"secret prefix", slog.String("secret_schema_salt", "pepper"), "pepper"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: NewReplaceAttr()})).
				Info("test", tt.attr)

			assert.NotContains(t, buf.String(), tt.secret)
			assert.Contains(t, buf.String(), tt.attr.Key)
		})
	}
}

func TestNewReplaceAttr_KeepsGenerationFields(t *testing.T) {
	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: NewReplaceAttr()})).
		Info("generation finished",
			slog.String("project", "CRM for a bakery"),
			slog.String("model", "gpt-5-mini"),
			slog.String("short", "sk-short"),
		)

	assert.Contains(t, buf.String(), "CRM for a bakery")
	assert.Contains(t, buf.String(), "gpt-5-mini")
	assert.Contains(t, buf.String(), "sk-short", "too short to be a key")
}

func TestNewReplaceAttr_ExtraOptions(t *testing.T) {
	var buf bytes.Buffer
	replace := NewReplaceAttr(masq.WithRegex(regexp.MustCompile(`^org-[A-Za-z0-9]{8,}$`)))
	slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: replace})).
		Info("test", slog.String("organization", "org-AbCdEfGh12"))

	assert.NotContains(t, buf.String(), "org-AbCdEfGh12")
}
