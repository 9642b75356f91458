package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarketOpenClose(t *testing.T) {
	date := time.Date(2026, 3, 11, 12, 0, 0, 0, ET)

	open := MarketOpenTime(date)
	assert.Equal(t, 9, open.Hour())
	assert.Equal(t, 30, open.Minute())

	close := MarketCloseTime(date)
	assert.Equal(t, 16, close.Hour())
	assert.Equal(t, 0, close.Minute())
}

func TestIsMarketOpenAt(t *testing.T) {
	// Wednesday 10:00 ET
	assert.True(t, IsMarketOpenAt(time.Date(2026, 3, 11, 10, 0, 0, 0, ET)))
	// Closing bell is exclusive
	assert.False(t, IsMarketOpenAt(time.Date(2026, 3, 11, 16, 0, 0, 0, ET)))
	// Saturday
	assert.False(t, IsMarketOpenAt(time.Date(2026, 3, 14, 10, 0, 0, 0, ET)))
	// Good Friday
	assert.False(t, IsMarketOpenAt(time.Date(2026, 4, 3, 10, 0, 0, 0, ET)))
}

func TestNextTradingDay(t *testing.T) {
	// Thursday before Good Friday rolls over the long weekend.
	next := NextTradingDay(time.Date(2026, 4, 2, 12, 0, 0, 0, ET))
	assert.Equal(t, "2026-04-06", next.Format("2006-01-02"))
}

func TestMarketStatusAt(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2026, 3, 11, 3, 0, 0, 0, ET), "CLOSED"},
		{time.Date(2026, 3, 11, 8, 0, 0, 0, ET), "PRE-MARKET"},
		{time.Date(2026, 3, 11, 11, 0, 0, 0, ET), "OPEN"},
		{time.Date(2026, 3, 11, 17, 0, 0, 0, ET), "AFTER-HOURS"},
		{time.Date(2026, 3, 14, 11, 0, 0, 0, ET), "CLOSED (Weekend)"},
		{time.Date(2026, 12, 25, 11, 0, 0, 0, ET), "CLOSED (Christmas Day)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MarketStatusAt(tt.at), tt.at.String())
	}
}
