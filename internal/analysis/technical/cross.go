// Package technical implements the technical signal engine: moving-average
// crossovers, a simple-mean RSI and Fibonacci retracement levels. All
// functions operate on ascending []models.OHLCV series and never mutate them.
package technical

import (
	"errors"
	"time"

	"github.com/seenimoa/equitylens/pkg/models"
)

// ErrInsufficientHistory is returned when a series is too short for the
// requested window.
var ErrInsufficientHistory = errors.New("technical: insufficient price history")

// CrossStatus classifies the moving-average regime at the end of a series.
type CrossStatus string

const (
	StatusInsufficient CrossStatus = "Insufficient"
	StatusBullish      CrossStatus = "Bullish"
	StatusBearish      CrossStatus = "Bearish"
)

// CrossSignal is the outcome of GoldenCross. CrossDate is only meaningful
// when HasCross is set.
type CrossSignal struct {
	Status    CrossStatus `json:"status"`
	CrossDate time.Time   `json:"cross_date,omitempty"`
	HasCross  bool        `json:"has_cross"`
	Bullish   bool        `json:"bullish"`
}

// GoldenCross finds the most recent session where the short SMA closed
// strictly above the long SMA after being at or below it the session
// before. Bullish reflects only the last session (short > long) and holds
// whether or not a cross was found in the series. A series shorter than long
// yields StatusInsufficient rather than an error.
func GoldenCross(candles []models.OHLCV, short, long int) CrossSignal {
	if short <= 0 || long <= 0 || len(candles) < long || len(candles) < short {
		return CrossSignal{Status: StatusInsufficient}
	}

	closes := models.Closes(candles)
	s := SMA(closes, short)
	l := SMA(closes, long)

	// Both averages must be defined at t-1.
	first := max(short, long)

	sig := CrossSignal{}
	for t := len(closes) - 1; t >= first; t-- {
		if s[t] > l[t] && s[t-1] <= l[t-1] {
			sig.HasCross = true
			sig.CrossDate = candles[t].Timestamp
			break
		}
	}

	last := len(closes) - 1
	sig.Bullish = s[last] > l[last]
	if sig.Bullish {
		sig.Status = StatusBullish
	} else {
		sig.Status = StatusBearish
	}
	return sig
}
