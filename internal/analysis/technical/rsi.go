package technical

import (
	"fmt"
	"math"

	"github.com/seenimoa/equitylens/pkg/models"
)

// RSI zone thresholds.
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

// RSISeries computes the Relative Strength Index with simple (unsmoothed)
// means of the last period up and down moves at every index. Entries before
// index period are NaN. A window with no losses scores 100, and a completely
// flat window scores 50.
func RSISeries(candles []models.OHLCV, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("technical: RSI period must be positive, got %d", period)
	}
	n := len(candles)
	if n < period+1 {
		return nil, fmt.Errorf("%w: RSI(%d) needs %d closes, have %d", ErrInsufficientHistory, period, period+1, n)
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	out := make([]float64, n)
	var sumGain, sumLoss float64
	for i := 0; i < n; i++ {
		sumGain += gains[i]
		sumLoss += losses[i]
		if i > period {
			sumGain -= gains[i-period]
			sumLoss -= losses[i-period]
		}
		if i < period {
			out[i] = math.NaN()
			continue
		}
		out[i] = rsiValue(sumGain/float64(period), sumLoss/float64(period))
	}
	return out, nil
}

// RSI returns the latest simple-mean RSI.
func RSI(candles []models.OHLCV, period int) (float64, error) {
	series, err := RSISeries(candles, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	// Rolling subtraction can leave tiny negative residue on flat windows.
	const eps = 1e-12
	if avgLoss <= eps {
		if avgGain <= eps {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// RSIZone labels an RSI reading.
func RSIZone(rsi float64) string {
	switch {
	case rsi < RSIOversold:
		return "OVERSOLD"
	case rsi > RSIOverbought:
		return "OVERBOUGHT"
	default:
		return "NEUTRAL"
	}
}
