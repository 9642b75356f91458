package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements Generator on the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

type geminiSettings struct {
	model      string
	httpClient *http.Client
	baseURL    string
}

// GeminiOption configures the Gemini provider.
type GeminiOption func(*geminiSettings)

// WithGeminiModel sets the default model.
func WithGeminiModel(model string) GeminiOption {
	return func(s *geminiSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithGeminiHTTPClient sets a custom HTTP client.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(s *geminiSettings) { s.httpClient = client }
}

// WithGeminiBaseURL points the client at another endpoint, e.g. a test server.
func WithGeminiBaseURL(u string) GeminiOption {
	return func(s *geminiSettings) { s.baseURL = u }
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	s := geminiSettings{
		model:      DefaultGeminiModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(&s)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	}
	if s.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: init client: %w", err)
	}
	return &GeminiProvider{client: client, model: s.model}, nil
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

// Model returns the default model name.
func (p *GeminiProvider) Model() string { return p.model }

// Generate sends a single-turn prompt and returns the concatenated text of
// the first candidate.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string, opts *Options) (string, error) {
	model := p.model
	config := &genai.GenerateContentConfig{}
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		if opts.Temperature > 0 {
			config.Temperature = genai.Ptr(float32(opts.Temperature))
		}
		if opts.MaxTokens > 0 {
			config.MaxOutputTokens = int32(opts.MaxTokens)
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
