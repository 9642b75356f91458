// Package datasource fetches market data for the valuation and signal
// engines. The Yahoo Finance client implements Provider; the S&P 500
// universe is scraped from Wikipedia.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seenimoa/equitylens/pkg/models"
)

// Provider is the series accessor consumed by the analyzer, the scanner and
// the dashboard API. Series are returned ascending by time; statements most
// recent first.
type Provider interface {
	// History returns OHLCV bars covering period at the given bar interval.
	History(ctx context.Context, ticker string, period models.Period, tf models.Timeframe) ([]models.OHLCV, error)

	// Dividends returns the full dividend history, ascending by ex-date.
	Dividends(ctx context.Context, ticker string) ([]models.Dividend, error)

	// CashFlow returns annual cash flow statements, most recent first.
	CashFlow(ctx context.Context, ticker string) ([]models.CashFlow, error)

	// Facts returns point-in-time company data.
	Facts(ctx context.Context, ticker string) (*models.CompanyFacts, error)

	// News returns recent headlines, newest first.
	News(ctx context.Context, ticker string) ([]models.NewsItem, error)

	// EarningsDates returns announced or estimated earnings dates, ascending.
	EarningsDates(ctx context.Context, ticker string) ([]time.Time, error)
}

// --- Sentinel errors ---

// ErrProviderFailure wraps every network, remote or decode failure.
var ErrProviderFailure = errors.New("data provider failure")

// ErrTickerNotFound is returned when the provider does not know a ticker.
var ErrTickerNotFound = fmt.Errorf("%w: ticker not found", ErrProviderFailure)

// HTTPError carries a non-2xx response.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s from %s: %s", e.Status, e.URL, e.Body)
}

// Unwrap makes every HTTPError a provider failure.
func (e *HTTPError) Unwrap() error { return ErrProviderFailure }

// IsNotFound reports whether err means the ticker is unknown upstream.
// Such errors do not count against the circuit breaker.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTickerNotFound)
}

// --- Shared HTTP helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests. Yahoo
// rejects the Go default.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// doGet performs a GET request and returns the full body. A 404 is reported
// as ErrTickerNotFound, any other status >= 400 as *HTTPError.
func doGet(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: GET %s: %w", ErrProviderFailure, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		herr := &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        url,
			Body:       string(body),
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", ErrTickerNotFound, herr)
		}
		return nil, herr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrProviderFailure, url, err)
	}
	return body, nil
}
