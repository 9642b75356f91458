package datasource

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/seenimoa/equitylens/pkg/models"
)

// --- Yahoo Finance v8 chart types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Events     yfEvents     `json:"events"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol               string  `json:"symbol"`
	Currency             string  `json:"currency"`
	ExchangeTimezoneName string  `json:"exchangeTimezoneName"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
}

type yfEvents struct {
	Dividends map[string]yfDividend `json:"dividends"`
}

type yfDividend struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// History returns OHLCV bars for ticker covering period at interval tf.
func (y *Yahoo) History(ctx context.Context, ticker string, period models.Period, tf models.Timeframe) ([]models.OHLCV, error) {
	res, err := y.chart(ctx, ticker, string(period), yfInterval(tf))
	if err != nil {
		return nil, err
	}
	return parseYFCandles(res), nil
}

// Dividends returns the full dividend history of ticker, ascending by
// ex-date. A non-payer yields an empty slice and no error.
func (y *Yahoo) Dividends(ctx context.Context, ticker string) ([]models.Dividend, error) {
	// Monthly bars keep the max-range payload small; dividend events are
	// reported regardless of bar size.
	res, err := y.chart(ctx, ticker, "max", "1mo")
	if err != nil {
		return nil, err
	}
	return parseYFDividends(res), nil
}

func (y *Yahoo) chart(ctx context.Context, ticker, rng, interval string) (*yfChartResult, error) {
	cacheKey := fmt.Sprintf("chart:%s:%s:%s", ticker, rng, interval)
	if cached, ok := y.charts.Get(cacheKey); ok {
		return cached, nil
	}

	q := url.Values{}
	q.Set("range", rng)
	q.Set("interval", interval)
	q.Set("events", "div")
	q.Set("includePrePost", "false")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, symbolPath(ticker), q.Encode())

	var resp yfChartResponse
	if err := y.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}
	if resp.Chart.Error != nil {
		return nil, resp.Chart.Error.asError(ticker)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	res := &resp.Chart.Result[0]
	y.charts.Set(cacheKey, res)
	return res, nil
}

// --- Helpers ---

// parseYFCandles converts the columnar chart payload into bars in the
// exchange's time zone. Bars without a close (halts, partial sessions) are
// dropped.
func parseYFCandles(result *yfChartResult) []models.OHLCV {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	loc := exchangeLocation(result.Meta.ExchangeTimezoneName)

	q := result.Indicators.Quote[0]
	candles := make([]models.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		c := models.OHLCV{
			Timestamp: time.Unix(ts, 0).In(loc),
			Close:     *q.Close[i],
		}
		c.Open = valueAt(q.Open, i, c.Close)
		c.High = valueAt(q.High, i, c.Close)
		c.Low = valueAt(q.Low, i, c.Close)
		if i < len(q.Volume) && q.Volume[i] != nil {
			c.Volume = *q.Volume[i]
		}
		candles = append(candles, c)
	}
	return candles
}

func valueAt(col []*float64, i int, fallback float64) float64 {
	if i < len(col) && col[i] != nil {
		return *col[i]
	}
	return fallback
}

func parseYFDividends(result *yfChartResult) []models.Dividend {
	loc := exchangeLocation(result.Meta.ExchangeTimezoneName)
	divs := make([]models.Dividend, 0, len(result.Events.Dividends))
	for _, d := range result.Events.Dividends {
		divs = append(divs, models.Dividend{
			ExDate: time.Unix(d.Date, 0).In(loc),
			Amount: d.Amount,
		})
	}
	sort.Slice(divs, func(i, j int) bool { return divs[i].ExDate.Before(divs[j].ExDate) })
	return divs
}

func exchangeLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func yfInterval(tf models.Timeframe) string {
	switch tf {
	case models.Timeframe1Hour:
		return "1h"
	case models.Timeframe1Day:
		return "1d"
	case models.Timeframe1Week:
		return "1wk"
	default:
		return "1d"
	}
}
