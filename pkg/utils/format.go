// Package utils provides formatting, ticker and market-clock helpers shared by
// the CLI, the dashboard API and the sinks.
package utils

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// FormatLargeNumber renders n with a T/B/M suffix and two decimals once its
// magnitude reaches a million, e.g. 1.5e12 -> "1.50T". Smaller values are
// rendered with thousands separators ("1,234.50").
func FormatLargeNumber(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "N/A"
	}
	abs := math.Abs(n)
	switch {
	case abs >= 1e12:
		return humanize.FormatFloat("#,###.##", n/1e12) + "T"
	case abs >= 1e9:
		return humanize.FormatFloat("#,###.##", n/1e9) + "B"
	case abs >= 1e6:
		return humanize.FormatFloat("#,###.##", n/1e6) + "M"
	default:
		return humanize.FormatFloat("#,###.##", n)
	}
}

// FormatOptional formats a possibly-unknown value, returning "N/A" for nil.
func FormatOptional(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return FormatLargeNumber(*p)
}

// FormatMoney formats a per-share amount as "$1,234.56".
func FormatMoney(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// FormatPct formats a ratio (0.12) as a signed percentage ("+12.00%").
func FormatPct(ratio float64) string {
	return fmt.Sprintf("%+.2f%%", ratio*100)
}
