// Package web serves the HTML form that collects a project description,
// calls the generation endpoint and renders the result as cards.
package web

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/neuroboss/internal/domain"
	"github.com/jsamuelsen/neuroboss/internal/platform/logging"
)

// State is the lifecycle of one form submission.
type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateSuccess  State = "success"
	StateFallback State = "fallback"
)

// Generator calls the generation endpoint.
type Generator interface {
	Generate(ctx context.Context, project string) (domain.GenerationResult, error)
}

// Form holds the state of the page form. The page renders after Submit
// returns, so StateLoading is only visible to code running during the call;
// static/app.js shows the in-flight state in the browser.
type Form struct {
	Project string
	State   State
	Error   string
	Result  *domain.GenerationResult
}

// NewForm returns an idle, empty form.
func NewForm() *Form {
	return &Form{State: StateIdle}
}

// Messages are the user-facing strings the form sets.
type Messages struct {
	EmptyProject string
	DemoNotice   string
}

// Controller drives form submissions.
type Controller struct {
	generator Generator
	demo      domain.GenerationResult
	messages  Messages
}

// NewController creates a controller. demo is shown whenever the endpoint call fails.
func NewController(generator Generator, demo domain.GenerationResult, messages Messages) *Controller {
	return &Controller{generator: generator, demo: demo, messages: messages}
}

// Submit runs one submission of input through the form.
//
// Blank input sets the empty-project message and leaves the form idle with no
// call made. Otherwise the form goes through loading to success, or to
// fallback with the demo result and notice when the call fails for any reason.
func (c *Controller) Submit(ctx context.Context, form *Form, input string) {
	form.Project = input
	form.Error = ""
	form.Result = nil

	req := domain.GenerationRequest{Project: strings.TrimSpace(input)}
	if req.IsBlank() {
		form.State = StateIdle
		form.Error = c.messages.EmptyProject

		return
	}

	form.State = StateLoading

	result, err := c.generator.Generate(ctx, req.Project)
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "generation request failed, showing demo",
			slog.Any("error", err))

		demo := copyResult(c.demo)
		form.State = StateFallback
		form.Error = c.messages.DemoNotice
		form.Result = &demo

		return
	}

	form.State = StateSuccess
	form.Result = &result
}

func copyResult(r domain.GenerationResult) domain.GenerationResult {
	frameworks := make([]domain.Framework, len(r.Frameworks))
	for i, f := range r.Frameworks {
		frameworks[i] = domain.Framework{Name: f.Name, Steps: append([]string(nil), f.Steps...), Why: f.Why}
	}

	return domain.GenerationResult{Frameworks: frameworks, Quote: r.Quote}
}
