package datasource

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/equitylens/pkg/utils"
)

// DefaultSP500URL lists the S&P 500 constituents.
const DefaultSP500URL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// Constituent is one index member.
type Constituent struct {
	Symbol string `json:"symbol"` // Yahoo form, e.g. "BRK-B"
	Name   string `json:"name"`
	Sector string `json:"sector,omitempty"`
}

// SP500 scrapes the constituents table from Wikipedia.
type SP500 struct {
	URL        string
	HTTPClient *http.Client
}

// NewSP500 returns a scraper for the default Wikipedia page.
func NewSP500() *SP500 {
	return &SP500{URL: DefaultSP500URL, HTTPClient: &http.Client{Timeout: DefaultTimeout}}
}

// Constituents fetches and parses the current member list.
func (s *SP500) Constituents(ctx context.Context) ([]Constituent, error) {
	body, err := doGet(ctx, s.HTTPClient, s.URL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, fmt.Errorf("fetch s&p 500 list: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse s&p 500 list: %w", ErrProviderFailure, err)
	}
	cs := parseConstituents(doc)
	if len(cs) == 0 {
		return nil, fmt.Errorf("%w: s&p 500 constituents table not found", ErrProviderFailure)
	}
	return cs, nil
}

// parseConstituents reads the table with id "constituents", falling back to
// the first wikitable. Columns are located by header text.
func parseConstituents(doc *goquery.Document) []Constituent {
	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		table = doc.Find("table.wikitable").First()
	}

	symCol, nameCol, sectorCol := 0, 1, -1
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		switch h := strings.ToLower(strings.TrimSpace(th.Text())); {
		case h == "symbol" || h == "ticker":
			symCol = i
		case h == "security" || h == "company":
			nameCol = i
		case strings.Contains(h, "sector"):
			sectorCol = i
		}
	})

	var out []Constituent
	seen := make(map[string]bool)
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() <= max(symCol, nameCol) {
			return
		}
		sym := utils.ToYahooTicker(cells.Eq(symCol).Text())
		if sym == "" || seen[sym] {
			return
		}
		seen[sym] = true
		c := Constituent{Symbol: sym, Name: strings.TrimSpace(cells.Eq(nameCol).Text())}
		if sectorCol >= 0 && sectorCol < cells.Length() {
			c.Sector = strings.TrimSpace(cells.Eq(sectorCol).Text())
		}
		out = append(out, c)
	})
	return out
}

// Symbols returns the tickers of cs in order.
func Symbols(cs []Constituent) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Symbol
	}
	return out
}

// Names maps ticker to security name.
func Names(cs []Constituent) map[string]string {
	out := make(map[string]string, len(cs))
	for _, c := range cs {
		out[c.Symbol] = c.Name
	}
	return out
}
