// Package sentiment scores news headlines with an offline keyword lexicon.
package sentiment

import (
	"strings"
	"unicode"

	"github.com/seenimoa/equitylens/pkg/models"
)

// Labels for an aggregate polarity.
const (
	Positive = "Positive"
	Negative = "Negative"
	Neutral  = "Neutral"
)

// labelThreshold is the absolute polarity beyond which a set of headlines is
// no longer Neutral.
const labelThreshold = 0.1

// Lexicon entries are lowercase words or phrases with a signed polarity in
// [-1, 1].
var lexicon = map[string]float64{
	// bullish
	"bullish": 0.7, "rally": 0.6, "rallies": 0.6, "surge": 0.7, "surges": 0.7,
	"soar": 0.7, "soars": 0.7, "jump": 0.5, "jumps": 0.5, "gain": 0.4, "gains": 0.4,
	"upbeat": 0.5, "positive": 0.4, "growth": 0.4, "upgrade": 0.6, "upgrades": 0.6,
	"outperform": 0.6, "buy": 0.5, "strong": 0.4, "recovery": 0.5, "breakout": 0.6,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5, "beats": 0.5,
	"beats estimates": 0.6, "exceeds": 0.5, "expansion": 0.4, "profit": 0.3,
	"dividend": 0.4, "raises guidance": 0.6, "best": 0.6, "win": 0.5, "wins": 0.5,
	// bearish
	"bearish": -0.7, "crash": -0.8, "crashes": -0.8, "plunge": -0.7, "plunges": -0.7,
	"slump": -0.6, "slumps": -0.6, "tumble": -0.6, "tumbles": -0.6, "drop": -0.4,
	"drops": -0.4, "negative": -0.4, "downgrade": -0.6, "downgrades": -0.6,
	"underperform": -0.6, "sell": -0.5, "weak": -0.4, "decline": -0.5, "declines": -0.5,
	"loss": -0.4, "losses": -0.4, "selloff": -0.7, "sell-off": -0.7, "fall": -0.4,
	"falls": -0.4, "correction": -0.5, "default": -0.7, "fraud": -0.8, "lawsuit": -0.5,
	"investigation": -0.5, "cut": -0.3, "cuts": -0.3, "miss": -0.5, "misses": -0.5,
	"warning": -0.5, "concern": -0.3, "concerns": -0.3, "layoffs": -0.5, "worst": -0.7,
}

// Polarity scores one headline as the mean polarity of the lexicon entries it
// contains, matched on whole words. A headline with no matches scores 0.
func Polarity(headline string) float64 {
	text := " " + normalize(headline) + " "

	sum := 0.0
	matches := 0
	for term, weight := range lexicon {
		if strings.Contains(text, " "+term+" ") {
			sum += weight
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	return sum / float64(matches)
}

// normalize lowercases s and turns everything except letters, digits and
// hyphens into single spaces.
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// Result is the aggregate sentiment over a set of headlines.
type Result struct {
	Polarity float64 `json:"polarity"`
	Label    string  `json:"label"`
	Scored   int     `json:"scored"` // headlines with a non-empty title
}

// Analyze averages Polarity over every item with a title. No titled items
// yields polarity 0 and Neutral.
func Analyze(items []models.NewsItem) Result {
	sum := 0.0
	n := 0
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		sum += Polarity(it.Title)
		n++
	}
	if n == 0 {
		return Result{Label: Neutral}
	}
	avg := sum / float64(n)
	return Result{Polarity: avg, Label: Label(avg), Scored: n}
}

// Label classifies an average polarity.
func Label(polarity float64) string {
	switch {
	case polarity > labelThreshold:
		return Positive
	case polarity < -labelThreshold:
		return Negative
	default:
		return Neutral
	}
}
