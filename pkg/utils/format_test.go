package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatLargeNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.5e12, "1.50T"},
		{2500e12, "2,500.00T"},
		{7.5e9, "7.50B"},
		{3.25e6, "3.25M"},
		{1234.5, "1,234.50"},
		{0, "0.00"},
		{-7.5e9, "-7.50B"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatLargeNumber(tt.in), "FormatLargeNumber(%v)", tt.in)
	}
}

func TestFormatLargeNumberNonFinite(t *testing.T) {
	assert.Equal(t, "N/A", FormatLargeNumber(math.NaN()))
	assert.Equal(t, "N/A", FormatLargeNumber(math.Inf(1)))
}

func TestFormatOptional(t *testing.T) {
	assert.Equal(t, "N/A", FormatOptional(nil))
	v := 4e9
	assert.Equal(t, "4.00B", FormatOptional(&v))
}

func TestFormatMoneyAndPct(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatMoney(1234.5))
	assert.Equal(t, "-$12.25", FormatMoney(-12.25))
	assert.Equal(t, "+12.50%", FormatPct(0.125))
	assert.Equal(t, "-2.50%", FormatPct(-0.025))
}
