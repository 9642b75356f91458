package technical

import (
	"math"

	"github.com/seenimoa/equitylens/pkg/models"
)

// FibLevel is one retracement level between the window high and low.
type FibLevel struct {
	Label string  `json:"label"`
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
}

var fibRatios = []struct {
	label string
	ratio float64
}{
	{"0% (High)", 0},
	{"23.6%", 0.236},
	{"38.2%", 0.382},
	{"50%", 0.5},
	{"61.8%", 0.618},
	{"100% (Low)", 1},
}

// FibLevels computes retracement levels from the highest High and lowest Low
// of candles, ordered from the high (0%) down to the low (100%). Returns nil
// for an empty series.
func FibLevels(candles []models.OHLCV) []FibLevel {
	if len(candles) == 0 {
		return nil
	}
	high, low := candles[0].High, candles[0].Low
	for _, c := range candles[1:] {
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
	}
	diff := high - low

	levels := make([]FibLevel, len(fibRatios))
	for i, r := range fibRatios {
		levels[i] = FibLevel{Label: r.label, Ratio: r.ratio, Price: high - r.ratio*diff}
	}
	// Pin the endpoints so they are exact rather than high - 1*diff.
	levels[len(levels)-1].Price = low
	return levels
}

// NearestFibLevel returns the level closest to price. Ties go to the level
// that comes first in ratio order. ok is false when levels is empty.
func NearestFibLevel(levels []FibLevel, price float64) (nearest FibLevel, ok bool) {
	best := math.Inf(1)
	for _, l := range levels {
		if d := math.Abs(l.Price - price); d < best {
			best = d
			nearest = l
			ok = true
		}
	}
	return nearest, ok
}
