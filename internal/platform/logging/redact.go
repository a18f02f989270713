package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// secretFields are attribute keys whose value is never logged, whatever it looks like.
var secretFields = []string{
	"api_key", "apiKey", "apikey", "APIKey", "OPENAI_API_KEY",
	"authorization", "Authorization", "cookie", "token", "password",
}

// secretValues match credentials that can end up in any attribute,
// e.g. an error message echoing a request header.
var secretValues = []*regexp.Regexp{
	regexp.MustCompile(`^sk-[A-Za-z0-9_-]{16,}$`),                              // OpenAI key, legacy and sk-proj-
	regexp.MustCompile(`(?i)^(bearer|basic)\s+.+$`),                            // Authorization header value
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
}

// NewReplaceAttr returns a slog ReplaceAttr that masks the OpenAI credential
// and similar secrets. Extra masq options extend the built-in rules.
func NewReplaceAttr(extra ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	opts := make([]masq.Option, 0, len(secretFields)+len(secretValues)+1+len(extra))

	for _, name := range secretFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	opts = append(opts, masq.WithFieldPrefix("secret"))

	for _, re := range secretValues {
		opts = append(opts, masq.WithRegex(re))
	}

	return masq.New(append(opts, extra...)...)
}
