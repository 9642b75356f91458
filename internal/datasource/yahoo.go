package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/seenimoa/equitylens/internal/infra"
	"github.com/seenimoa/equitylens/pkg/utils"
)

const (
	// DefaultYahooBaseURL serves the chart, quoteSummary, search and crumb endpoints.
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

	// DefaultYahooRSSURL is the per-ticker headline feed.
	DefaultYahooRSSURL = "https://feeds.finance.yahoo.com/rss/2.0/headline"

	// DefaultYahooCookieURL hands out the session cookie a crumb is bound to.
	DefaultYahooCookieURL = "https://fc.yahoo.com"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second
)

// summaryModules are the quoteSummary modules fetched in one call and shared
// by Facts, CashFlow and EarningsDates.
var summaryModules = []string{
	"price",
	"summaryDetail",
	"defaultKeyStatistics",
	"financialData",
	"assetProfile",
	"cashflowStatementHistory",
	"calendarEvents",
}

// Yahoo implements Provider against the unofficial Yahoo Finance endpoints.
// It is safe for concurrent use; all requests share one rate limiter and one
// circuit breaker.
type Yahoo struct {
	baseURL   string
	rssURL    string
	cookieURL string
	newsLimit int

	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *infra.Breaker
	logger     zerolog.Logger
	parser     *gofeed.Parser

	charts    *infra.Cache[*yfChartResult]
	summaries *infra.Cache[*yfSummaryResult]

	crumbMu sync.Mutex
	crumb   string

	breakerCfg infra.BreakerConfig
}

// YahooOption configures the Yahoo client.
type YahooOption func(*Yahoo)

// WithBaseURL sets a custom API base URL.
func WithBaseURL(baseURL string) YahooOption {
	return func(y *Yahoo) { y.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithRSSURL sets a custom headline feed URL.
func WithRSSURL(rssURL string) YahooOption {
	return func(y *Yahoo) { y.rssURL = rssURL }
}

// WithCookieURL sets the URL used to obtain a session cookie before fetching
// a crumb. An empty URL skips the crumb handshake.
func WithCookieURL(cookieURL string) YahooOption {
	return func(y *Yahoo) { y.cookieURL = cookieURL }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(y *Yahoo) { y.httpClient = c }
}

// WithRateLimit sets the client-side request budget.
func WithRateLimit(requestsPerSecond float64, burst int) YahooOption {
	return func(y *Yahoo) { y.limiter = infra.NewLimiter(requestsPerSecond, burst) }
}

// WithBreaker opens the circuit after maxFailures consecutive failures and
// keeps it open for cooldown. maxFailures 0 disables the breaker.
func WithBreaker(maxFailures uint32, cooldown time.Duration) YahooOption {
	return func(y *Yahoo) {
		y.breakerCfg.MaxFailures = maxFailures
		y.breakerCfg.Cooldown = cooldown
	}
}

// WithCacheTTL sets how long chart and summary responses are reused.
func WithCacheTTL(ttl time.Duration) YahooOption {
	return func(y *Yahoo) {
		y.charts = infra.NewCache[*yfChartResult](ttl)
		y.summaries = infra.NewCache[*yfSummaryResult](ttl)
	}
}

// WithNewsLimit caps the number of headlines returned by News.
func WithNewsLimit(n int) YahooOption {
	return func(y *Yahoo) { y.newsLimit = n }
}

// WithLogger sets a logger.
func WithLogger(l zerolog.Logger) YahooOption {
	return func(y *Yahoo) { y.logger = l }
}

// NewYahoo creates a Yahoo Finance provider.
func NewYahoo(opts ...YahooOption) *Yahoo {
	jar, _ := cookiejar.New(nil)
	y := &Yahoo{
		baseURL:    DefaultYahooBaseURL,
		rssURL:     DefaultYahooRSSURL,
		cookieURL:  DefaultYahooCookieURL,
		newsLimit:  20,
		httpClient: &http.Client{Timeout: DefaultTimeout, Jar: jar},
		limiter:    infra.NewLimiter(5, 5),
		logger:     zerolog.Nop(),
		parser:     gofeed.NewParser(),
		charts:     infra.NewCache[*yfChartResult](5 * time.Minute),
		summaries:  infra.NewCache[*yfSummaryResult](15 * time.Minute),
		breakerCfg: infra.BreakerConfig{
			Name:        "yahoo",
			MaxFailures: 5,
			Cooldown:    30 * time.Second,
			Benign:      IsNotFound,
		},
	}
	for _, opt := range opts {
		opt(y)
	}
	y.breaker = infra.NewBreaker(y.breakerCfg, y.logger)
	y.logger = y.logger.With().Str("component", "yahoo").Logger()
	return y
}

// Name returns the data source name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// BreakerState reports the circuit breaker state.
func (y *Yahoo) BreakerState() string { return y.breaker.State() }

// get fetches url through the rate limiter and the circuit breaker.
func (y *Yahoo) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	err := y.breaker.Do(func() error {
		var err error
		body, err = doGet(ctx, y.httpClient, rawURL, headers)
		return err
	})
	if errors.Is(err, infra.ErrCircuitOpen) {
		return nil, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	return body, err
}

// getJSON fetches url and decodes the body into v.
func (y *Yahoo) getJSON(ctx context.Context, rawURL string, v any) error {
	body, err := y.get(ctx, rawURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrProviderFailure, rawURL, err)
	}
	return nil
}

// ensureCrumb obtains the anti-CSRF crumb quoteSummary expects. Failures are
// logged and the request goes out without a crumb.
func (y *Yahoo) ensureCrumb(ctx context.Context) string {
	if y.cookieURL == "" {
		return ""
	}
	y.crumbMu.Lock()
	defer y.crumbMu.Unlock()
	if y.crumb != "" {
		return y.crumb
	}

	// The cookie endpoint answers 404 but still sets the session cookie.
	if _, err := y.get(ctx, y.cookieURL, nil); err != nil && !IsNotFound(err) {
		y.logger.Debug().Err(err).Msg("yahoo cookie handshake failed")
	}
	body, err := y.get(ctx, y.baseURL+"/v1/test/getcrumb", map[string]string{"Accept": "text/plain"})
	if err != nil {
		y.logger.Warn().Err(err).Msg("yahoo crumb unavailable")
		return ""
	}
	y.crumb = strings.TrimSpace(string(body))
	return y.crumb
}

// yfError is the error object embedded in Yahoo JSON envelopes.
type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *yfError) asError(ticker string) error {
	if strings.EqualFold(e.Code, "Not Found") {
		return fmt.Errorf("%w: %s: %s", ErrTickerNotFound, ticker, e.Description)
	}
	return fmt.Errorf("%w: %s: %s %s", ErrProviderFailure, ticker, e.Code, e.Description)
}

// yfRaw is Yahoo's {"raw": 1.5, "fmt": "1.50"} number wrapper. Missing
// values arrive as {} and decode to a nil Raw.
type yfRaw struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (r *yfRaw) ptr() *float64 {
	if r == nil || r.Raw == nil {
		return nil
	}
	v := *r.Raw
	return &v
}

func symbolPath(ticker string) string {
	return url.PathEscape(utils.ToYahooTicker(ticker))
}
