// Package content holds the user-facing copy and fixed payloads: the model
// instruction, the server fallback quote, the demonstration result shown when
// the endpoint is unreachable, and the page strings.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jsamuelsen/neuroboss/internal/domain"
)

//go:embed content.yaml
var defaultYAML []byte

var validate = validator.New(validator.WithRequiredStructEnabled())

// Content is the full set of copy.
type Content struct {
	Model         Model  `koanf:"model"          validate:"required"`
	FallbackQuote Quote  `koanf:"fallback_quote" validate:"required"`
	Demo          Result `koanf:"demo"           validate:"required"`
	UI            UI     `koanf:"ui"             validate:"required"`
}

// Model holds text sent to the model.
type Model struct {
	Instruction string `koanf:"instruction" validate:"required"`
}

// Quote is a quotation.
type Quote struct {
	Text   string `koanf:"text"   validate:"required"`
	Author string `koanf:"author" validate:"required"`
}

// Framework is one suggested technique.
type Framework struct {
	Name  string   `koanf:"name"  validate:"required"`
	Steps []string `koanf:"steps" validate:"required,min=1"`
	Why   string   `koanf:"why"   validate:"required"`
}

// Result is a complete generation payload.
type Result struct {
	Frameworks []Framework `koanf:"frameworks" validate:"required,min=1,dive"`
	Quote      Quote       `koanf:"quote"      validate:"required"`
}

// UI holds page strings.
type UI struct {
	Title         string `koanf:"title"          validate:"required"`
	Description   string `koanf:"description"`
	Heading       string `koanf:"heading"        validate:"required"`
	Subtitle      string `koanf:"subtitle"`
	Label         string `koanf:"label"          validate:"required"`
	Placeholder   string `koanf:"placeholder"`
	Submit        string `koanf:"submit"         validate:"required"`
	SubmitLoading string `koanf:"submit_loading" validate:"required"`
	QuoteLabel    string `koanf:"quote_label"`
	EmptyProject  string `koanf:"empty_project"  validate:"required"`
	DemoNotice    string `koanf:"demo_notice"    validate:"required"`
	Footer        string `koanf:"footer"`
}

// Default returns the bundled copy. It panics if the embedded document is invalid.
func Default() *Content {
	c, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("content: embedded document invalid: %v", err))
	}

	return c
}

// Load reads the bundled copy and, when overridePath is set, merges the YAML
// file at that path over it. A missing override file is an error.
func Load(overridePath string) (*Content, error) {
	k := koanf.New(".")

	base, err := yaml.Parser().Unmarshal(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded content: %w", err)
	}

	if err := k.Load(confmap.Provider(base, ""), nil); err != nil {
		return nil, fmt.Errorf("loading embedded content: %w", err)
	}

	if overridePath != "" {
		if _, err := os.Stat(overridePath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("content override %q: %w", overridePath, err)
		}

		if err := k.Load(file.Provider(overridePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading content override %q: %w", overridePath, err)
		}
	}

	var c Content
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("unmarshalling content: %w", err)
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validating content: %w", err)
	}

	return &c, nil
}

// FallbackResult is returned by the endpoint when the model output cannot be used.
func (c *Content) FallbackResult() domain.GenerationResult {
	return domain.GenerationResult{
		Frameworks: []domain.Framework{},
		Quote:      domain.Quote{Text: c.FallbackQuote.Text, Author: c.FallbackQuote.Author},
	}
}

// DemoResult is shown by the page when the endpoint call fails.
func (c *Content) DemoResult() domain.GenerationResult {
	frameworks := make([]domain.Framework, 0, len(c.Demo.Frameworks))
	for _, f := range c.Demo.Frameworks {
		frameworks = append(frameworks, domain.Framework{
			Name:  f.Name,
			Steps: append([]string(nil), f.Steps...),
			Why:   f.Why,
		})
	}

	return domain.GenerationResult{
		Frameworks: frameworks,
		Quote:      domain.Quote{Text: c.Demo.Quote.Text, Author: c.Demo.Quote.Author},
	}
}
