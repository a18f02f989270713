package domain

import "strings"

// Framework is a named content-structuring technique suggested for a project.
type Framework struct {
	Name  string
	Steps []string
	Why   string
}

// Quote is an inspirational quotation.
type Quote struct {
	Text   string
	Author string
}

// GenerationResult is what the model returns for one project description.
// The instruction asks for three frameworks; the count is not enforced.
type GenerationResult struct {
	Frameworks []Framework
	Quote      Quote
}

// GenerationRequest carries the user's project description.
type GenerationRequest struct {
	Project string
}

// Validate rejects only an empty project. Whitespace is not trimmed here;
// blank input is intercepted by the presentation layer.
func (r GenerationRequest) Validate() error {
	if r.Project == "" {
		return NewValidationError("project", "No project")
	}

	return nil
}

// IsBlank reports whether the project is empty after trimming whitespace.
func (r GenerationRequest) IsBlank() bool {
	return strings.TrimSpace(r.Project) == ""
}
