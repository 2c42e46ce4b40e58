package gemini

import (
	"context"

	"github.com/fwojciec/harvest"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ harvest.TokenCounter = (*TokenCounter)(nil)

// TokenCounter sizes artifacts with the model's local tokenizer. No API
// call is made per count.
type TokenCounter struct {
	model string
	local *tokenizer.LocalTokenizer
}

// NewTokenCounter loads the tokenizer of model. An unsupported model is a
// configuration error.
func NewTokenCounter(model string) (*TokenCounter, error) {
	local, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, harvest.Errorf(harvest.ECONFIG, "load tokenizer for %s: %v", model, err)
	}
	return &TokenCounter{model: model, local: local}, nil
}

func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if text == "" {
		return 0, nil
	}
	res, err := tc.local.CountTokens([]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
	if err != nil {
		return 0, harvest.Errorf(harvest.ETRANSFORM, "count tokens with %s: %v", tc.model, err)
	}
	return int(res.TotalTokens), nil
}
