// Package gemini implements text generation and token counting with
// Google Gemini.
package gemini

import (
	"context"
	"strings"

	"github.com/fwojciec/harvest"
	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultTemperature is the sampling temperature used when none is configured.
const DefaultTemperature = float32(0.7)

// Ensure Generator implements harvest.Generator at compile time.
var _ harvest.Generator = (*Generator)(nil)

// Generator implements harvest.Generator using Google Gemini.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
	system      string
}

// Option configures a Generator.
type Option func(*Generator)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *Generator) {
		g.temperature = t
	}
}

// WithSystemInstruction sets the system instruction sent with every prompt.
func WithSystemInstruction(s string) Option {
	return func(g *Generator) {
		g.system = s
	}
}

// NewGenerator creates a new Generator.
func NewGenerator(client *genai.Client, opts ...Option) *Generator {
	g := &Generator{
		client:      client,
		model:       DefaultModel,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewClient creates a Gemini API client from cfg. The API key is read from
// the environment variable cfg.APIKeyEnv through getenv.
func NewClient(ctx context.Context, cfg harvest.Gemini, getenv func(string) string) (*genai.Client, error) {
	apiKey := getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, harvest.Errorf(harvest.ECONFIG, "%s environment variable not set", cfg.APIKeyEnv)
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: "v1beta",
		}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, harvest.Errorf(harvest.ECONFIG, "create gemini client: %v", err)
	}
	return client, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}

// Generate sends the prompt to Gemini and returns the response text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", harvest.Errorf(harvest.EINVALID, "prompt required")
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		g.Config(),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", harvest.Errorf(harvest.EINTERNAL, "gemini returned nil result")
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", harvest.Errorf(harvest.EINTERNAL, "gemini returned an empty response")
	}
	return text, nil
}

// Config returns the GenerateContentConfig for Gemini API calls.
func (g *Generator) Config() *genai.GenerateContentConfig {
	temp := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if g.system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: g.system}},
		}
	}
	return config
}
