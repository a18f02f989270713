package dto

import "github.com/jsamuelsen/neuroboss/internal/domain"

// HeaderFallback is set to "true" when the endpoint returns the fixed fallback
// result instead of model output.
const HeaderFallback = "X-Neuroboss-Fallback"

// NoProjectMessage is the body of the 400 returned for a missing project.
const NoProjectMessage = "No project"

// GenerateRequest is the body of POST /api/neuroboss.
// A nil Project means the field was absent or null.
type GenerateRequest struct {
	Project *string `json:"project"`
}

// ToDomain converts the request to a domain request.
func (r GenerateRequest) ToDomain() domain.GenerationRequest {
	if r.Project == nil {
		return domain.GenerationRequest{}
	}

	return domain.GenerationRequest{Project: *r.Project}
}

// SimpleError is the flat error body used by the generation endpoint.
type SimpleError struct {
	Error string `json:"error"`
}

// FrameworkResponse is one suggested framework.
type FrameworkResponse struct {
	Name  string   `json:"name"`
	Steps []string `json:"steps"`
	Why   string   `json:"why"`
}

// QuoteResponse is the inspirational quote.
type QuoteResponse struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// GenerateResponse is the body of a successful POST /api/neuroboss.
type GenerateResponse struct {
	Frameworks []FrameworkResponse `json:"frameworks"`
	Quote      QuoteResponse       `json:"quote"`
}

// NewGenerateResponse converts a domain result. Frameworks and steps are
// never encoded as null.
func NewGenerateResponse(r domain.GenerationResult) GenerateResponse {
	frameworks := make([]FrameworkResponse, 0, len(r.Frameworks))
	for _, f := range r.Frameworks {
		steps := f.Steps
		if steps == nil {
			steps = []string{}
		}

		frameworks = append(frameworks, FrameworkResponse{Name: f.Name, Steps: steps, Why: f.Why})
	}

	return GenerateResponse{
		Frameworks: frameworks,
		Quote:      QuoteResponse{Text: r.Quote.Text, Author: r.Quote.Author},
	}
}

// ToDomain converts the response back to a domain result.
func (r GenerateResponse) ToDomain() domain.GenerationResult {
	frameworks := make([]domain.Framework, 0, len(r.Frameworks))
	for _, f := range r.Frameworks {
		frameworks = append(frameworks, domain.Framework{Name: f.Name, Steps: f.Steps, Why: f.Why})
	}

	return domain.GenerationResult{
		Frameworks: frameworks,
		Quote:      domain.Quote{Text: r.Quote.Text, Author: r.Quote.Author},
	}
}
