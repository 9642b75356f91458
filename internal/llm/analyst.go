package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/seenimoa/equitylens/pkg/models"
)

// NewsAnalyst asks a Generator to summarize the news flow for a ticker.
// It always returns text meant for the reader, never an error: missing news,
// an empty answer and API failures become explanatory messages.
type NewsAnalyst struct {
	gen      Generator
	opts     *Options
	maxItems int
	log      zerolog.Logger
}

// NewNewsAnalyst creates an analyst using at most maxItems headlines.
func NewNewsAnalyst(gen Generator, opts *Options, maxItems int, log zerolog.Logger) *NewsAnalyst {
	if maxItems <= 0 {
		maxItems = 10
	}
	return &NewsAnalyst{gen: gen, opts: opts, maxItems: maxItems, log: log.With().Str("component", "llm").Logger()}
}

// Analyze returns the model's analysis of items.
func (a *NewsAnalyst) Analyze(ctx context.Context, ticker string, items []models.NewsItem) string {
	headlines := headlineLines(items, a.maxItems)
	if len(headlines) == 0 {
		return fmt.Sprintf("Could not retrieve sufficient news for %s to perform analysis.", ticker)
	}

	text, err := a.gen.Generate(ctx, BuildPrompt(ticker, headlines), a.opts)
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return fmt.Sprintf("Gemini returned an empty response for %s analysis.", ticker)
	case err != nil:
		a.log.Error().Err(err).Str("ticker", ticker).Msg("news analysis failed")
		return fmt.Sprintf("An error occurred while calling the Gemini API for %s: %v", ticker, err)
	}
	return text
}

func headlineLines(items []models.NewsItem, limit int) []string {
	var out []string
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		line := title
		if s := strings.TrimSpace(it.Summary); s != "" {
			line += ": " + s
		}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}

// BuildPrompt renders the analysis prompt for a list of headlines.
func BuildPrompt(ticker string, headlines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following recent news articles for the stock ticker %s.\n", ticker)
	b.WriteString("Provide a concise summary of the key developments, identify potential positive impacts,\n")
	b.WriteString("and potential negative impacts on the stock price or company's future prospects.\n\n")
	fmt.Fprintf(&b, "News Articles for %s:\n", ticker)
	for _, h := range headlines {
		b.WriteString("- ")
		b.WriteString(h)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nAnalysis for %s:\n", ticker)
	return b.String()
}
