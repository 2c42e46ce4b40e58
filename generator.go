package harvest

import "context"

// Generator turns a prompt into text using an external text generation service.
type Generator interface {
	// Generate returns the generated text. Quota, network and format
	// problems are returned as errors.
	Generate(ctx context.Context, prompt string) (string, error)
}

// PromptInput carries everything a prompt builder may use for one job.
type PromptInput struct {
	Job
	Title       string
	Description string

	// Content is the page content, as markdown when a Converter is
	// configured and as HTML otherwise.
	Content string
}

// PromptFunc builds a generation prompt for a job.
type PromptFunc func(in PromptInput) string

// Practice is one stored artifact fed into a category integration prompt.
type Practice struct {
	Module  string
	Content string
}

// IntegrationInput carries the artifacts of one category.
type IntegrationInput struct {
	CategoryName string
	CategoryDir  string
	Practices    []Practice
}

// IntegrationPromptFunc builds the prompt that consolidates a category.
type IntegrationPromptFunc func(in IntegrationInput) string
