package models

import (
	"strconv"
	"time"
)

// NotAvailable is the placeholder rendered for missing values.
const NotAvailable = "N/A"

// ScanRow is one ticker's Golden Cross scan outcome.
type ScanRow struct {
	Ticker          string   `json:"ticker"`
	Name            string   `json:"name"`
	MarketCap       *float64 `json:"market_cap,omitempty"`
	DailyCrossDate  string   `json:"daily_cross_date"`
	Status          string   `json:"status"` // "Bullish", "Bearish" or "Insufficient Data"
	HourlyCrossDate string   `json:"hourly_cross_date"`
}

// ScanColumns are the column headers of a scan table.
var ScanColumns = []string{
	"Ticker",
	"Name",
	"Market Cap",
	"Daily Golden Cross Date",
	"Status",
	"Hourly Golden Cross Date (if Bullish)",
}

// Values renders the row as strings in ScanColumns order.
func (r ScanRow) Values() []string {
	mc := NotAvailable
	if r.MarketCap != nil {
		mc = strconv.FormatFloat(*r.MarketCap, 'f', 0, 64)
	}
	return []string{r.Ticker, r.Name, mc, r.DailyCrossDate, r.Status, r.HourlyCrossDate}
}

// Table is the tabular contract handed to sinks: a header and rows of
// string cells of equal width.
type Table struct {
	Title       string     `json:"title,omitempty"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// ScanTable builds a Table from scan rows, preserving their order.
func ScanTable(rows []ScanRow, at time.Time) Table {
	t := Table{
		Title:       "S&P 500 Golden Cross Master Report",
		Columns:     ScanColumns,
		Rows:        make([][]string, 0, len(rows)),
		GeneratedAt: at,
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, r.Values())
	}
	return t
}

// Records returns the header followed by all rows.
func (t Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Columns)
	return append(out, t.Rows...)
}
