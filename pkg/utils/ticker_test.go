package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeTicker("  aapl "))
	assert.Equal(t, "MSFT", NormalizeTicker("$msft"))
}

func TestToYahooTicker(t *testing.T) {
	assert.Equal(t, "BRK-B", ToYahooTicker("BRK.B"))
	assert.Equal(t, "BF-B", ToYahooTicker("bf.b"))
	assert.Equal(t, "NVDA", ToYahooTicker("NVDA"))
}

func TestSplitTickers(t *testing.T) {
	got := SplitTickers("aapl, msft  brk.b,AAPL\n")
	assert.Equal(t, []string{"AAPL", "MSFT", "BRK-B"}, got)
	assert.Empty(t, SplitTickers(" , "))
}
