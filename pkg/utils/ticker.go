package utils

import "strings"

// NormalizeTicker uppercases a user-supplied ticker and strips whitespace and
// a leading "$" (common when pasted from chat).
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	return strings.TrimPrefix(ticker, "$")
}

// ToYahooTicker converts a listing symbol to Yahoo Finance form. Share-class
// separators are dashes on Yahoo ("BRK.B" -> "BRK-B").
func ToYahooTicker(ticker string) string {
	return strings.ReplaceAll(NormalizeTicker(ticker), ".", "-")
}

// NormalizeTickers normalizes a list, dropping blanks and duplicates while
// keeping first-seen order.
func NormalizeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = ToYahooTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// SplitTickers parses a comma or whitespace separated ticker list.
func SplitTickers(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	return NormalizeTickers(fields)
}
