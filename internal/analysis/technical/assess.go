package technical

import (
	"fmt"

	"github.com/seenimoa/equitylens/pkg/models"
)

// Moving-average regime labels used by Assess.
const (
	SignalGoldenCross = "GOLDEN CROSS"
	SignalDeathCross  = "DEATH CROSS"
	SignalNeutral     = "NEUTRAL"
)

// Params are the windows used by the signal engine.
type Params struct {
	ShortWindow int `json:"short_window" mapstructure:"short_window" yaml:"short_window"`
	LongWindow  int `json:"long_window" mapstructure:"long_window" yaml:"long_window"`
	RSIPeriod   int `json:"rsi_period" mapstructure:"rsi_period" yaml:"rsi_period"`
	FibLookback int `json:"fib_lookback" mapstructure:"fib_lookback" yaml:"fib_lookback"`
}

// DefaultParams returns the conventional 50/200 SMA, RSI(14) and one trading
// year of Fibonacci lookback.
func DefaultParams() Params {
	return Params{ShortWindow: 50, LongWindow: 200, RSIPeriod: 14, FibLookback: 252}
}

// Assessment is a point-in-time technical snapshot of a series.
type Assessment struct {
	Price       float64     `json:"price"`
	SMAShort    float64     `json:"sma_short"`
	SMALong     float64     `json:"sma_long"`
	MASignal    string      `json:"ma_signal"`
	Cross       CrossSignal `json:"cross"`
	RSI         float64     `json:"rsi"`
	RSIZone     string      `json:"rsi_zone"`
	FibLevels   []FibLevel  `json:"fib_levels"`
	NearestFib  FibLevel    `json:"nearest_fib"`
	FibPosition string      `json:"fib_position"` // "above" or "below"
}

// Assess computes the moving-average regime, RSI zone and Fibonacci position
// at the end of candles. price is the quote to position against the levels;
// a non-positive price falls back to the last close. The series must hold at
// least p.LongWindow sessions.
func Assess(candles []models.OHLCV, price float64, p Params) (*Assessment, error) {
	if len(candles) < p.LongWindow || p.LongWindow <= 0 {
		return nil, fmt.Errorf("%w: need %d sessions, have %d", ErrInsufficientHistory, p.LongWindow, len(candles))
	}
	if price <= 0 {
		price = candles[len(candles)-1].Close
	}

	closes := models.Closes(candles)
	a := &Assessment{
		Price:    price,
		SMAShort: SMALatest(closes, p.ShortWindow),
		SMALong:  SMALatest(closes, p.LongWindow),
		Cross:    GoldenCross(candles, p.ShortWindow, p.LongWindow),
	}
	switch {
	case a.SMAShort > a.SMALong:
		a.MASignal = SignalGoldenCross
	case a.SMAShort < a.SMALong:
		a.MASignal = SignalDeathCross
	default:
		a.MASignal = SignalNeutral
	}

	rsi, err := RSI(candles, p.RSIPeriod)
	if err != nil {
		return nil, err
	}
	a.RSI = rsi
	a.RSIZone = RSIZone(rsi)

	window := candles
	if p.FibLookback > 0 && len(window) > p.FibLookback {
		window = window[len(window)-p.FibLookback:]
	}
	a.FibLevels = FibLevels(window)
	a.NearestFib, _ = NearestFibLevel(a.FibLevels, price)
	if price > a.NearestFib.Price {
		a.FibPosition = "above"
	} else {
		a.FibPosition = "below"
	}
	return a, nil
}
