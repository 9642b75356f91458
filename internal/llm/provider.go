// Package llm turns recent headlines into a short written analysis using
// Google's Gemini models.
package llm

import (
	"context"
	"errors"
)

// Provider names for configuration.
const (
	ProviderGemini = "gemini"
)

// Common errors returned by LLM providers.
var (
	ErrNoAPIKey      = errors.New("llm: API key not configured")
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Options tunes a single generation. Zero values use the provider default.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Generator produces text for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts *Options) (string, error)
}
