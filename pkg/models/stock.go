// Package models defines the core data structures used throughout equitylens.
package models

import "time"

// OHLCV represents a single candlestick bar of price data.
type OHLCV struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Closes extracts the close prices of a candle series.
func Closes(candles []OHLCV) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Timeframe represents the bar interval of a price series.
type Timeframe string

const (
	Timeframe1Hour Timeframe = "1h"
	Timeframe1Day  Timeframe = "1d"
	Timeframe1Week Timeframe = "1wk"
)

// Period is a lookback window understood by the data provider, e.g. "2y".
type Period string

const (
	Period1Day   Period = "1d"
	Period1Month Period = "1mo"
	Period6Month Period = "6mo"
	Period1Year  Period = "1y"
	Period2Year  Period = "2y"
	Period5Year  Period = "5y"
)

// Dividend is a single dividend payment keyed by ex-date.
type Dividend struct {
	ExDate time.Time `json:"ex_date"`
	Amount float64   `json:"amount"`
}

// CompanyFacts holds point-in-time company data. A nil numeric field means
// the provider did not report it; it is never silently zero.
type CompanyFacts struct {
	Ticker            string   `json:"ticker"`
	Name              string   `json:"name"`
	Sector            string   `json:"sector,omitempty"`
	Industry          string   `json:"industry,omitempty"`
	Summary           string   `json:"summary,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	MarketCap         *float64 `json:"market_cap,omitempty"`
	SharesOutstanding *float64 `json:"shares_outstanding,omitempty"`
	TotalDebt         *float64 `json:"total_debt,omitempty"`
	TotalCash         *float64 `json:"total_cash,omitempty"`
	TrailingPE        *float64 `json:"trailing_pe,omitempty"`
	Beta              *float64 `json:"beta,omitempty"`
	TargetMean        *float64 `json:"target_mean,omitempty"`
	TargetHigh        *float64 `json:"target_high,omitempty"`
	TargetLow         *float64 `json:"target_low,omitempty"`
	Recommendation    string   `json:"recommendation,omitempty"`
}

// Float returns a pointer to v. Handy for building facts in tests and parsers.
func Float(v float64) *float64 { return &v }

// Deref returns the pointed-to value and whether it was present.
func Deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
