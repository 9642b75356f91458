package technical

import (
	"math/rand"
	"testing"
	"time"

	"github.com/seenimoa/equitylens/pkg/models"
)

// benchCandles creates synthetic OHLCV data for benchmarks.
func benchCandles(n int) []models.OHLCV {
	candles := make([]models.OHLCV, n)
	rng := rand.New(rand.NewSource(42))
	price := 250.0
	t := time.Date(2023, 1, 3, 14, 30, 0, 0, time.UTC)

	for i := range candles {
		change := (rng.Float64() - 0.48) * 5 // slight upward bias
		open := price
		close := price + change
		high := max(open, close) + rng.Float64()*3
		low := min(open, close) - rng.Float64()*3

		candles[i] = models.OHLCV{
			Timestamp: t,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    int64(rng.Intn(5_000_000) + 100_000),
		}
		price = close
		t = t.Add(24 * time.Hour)
	}
	return candles
}

func BenchmarkSMA200_500(b *testing.B) {
	data := models.Closes(benchCandles(500))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SMA(data, 200)
	}
}

// A 2y daily series is what the scanner feeds per ticker.
func BenchmarkGoldenCross_504(b *testing.B) {
	candles := benchCandles(504)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GoldenCross(candles, 50, 200)
	}
}

func BenchmarkRSISeries14_500(b *testing.B) {
	candles := benchCandles(500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = RSISeries(candles, 14)
	}
}

func BenchmarkFibLevels_252(b *testing.B) {
	candles := benchCandles(252)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FibLevels(candles)
	}
}

func BenchmarkAssess(b *testing.B) {
	candles := benchCandles(504)
	p := DefaultParams()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Assess(candles, 0, p)
	}
}
