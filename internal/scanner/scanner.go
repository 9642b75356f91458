// Package scanner runs the Golden Cross detector across a ticker universe
// with a bounded worker pool. A failing ticker never aborts the scan.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/equitylens/internal/analysis/technical"
	"github.com/seenimoa/equitylens/pkg/models"
)

// DefaultWorkers is the pool width used when none is configured.
const DefaultWorkers = 10

// Status values written to the Status column.
const (
	StatusBullish      = "Bullish"
	StatusBearish      = "Bearish"
	StatusInsufficient = "Insufficient Data"
)

const (
	dailyLayout  = "2006-01-02"
	hourlyLayout = "2006-01-02 15:04"
)

// Source is the part of datasource.Provider the scanner needs.
type Source interface {
	History(ctx context.Context, ticker string, period models.Period, tf models.Timeframe) ([]models.OHLCV, error)
	Facts(ctx context.Context, ticker string) (*models.CompanyFacts, error)
}

// Options configures a Scanner. Zero values fall back to the defaults.
type Options struct {
	Workers      int
	ShortWindow  int
	LongWindow   int
	DailyPeriod  models.Period
	HourlyPeriod models.Period
	// Names maps ticker to display name. Tickers missing from it use the
	// provider's company name.
	Names map[string]string
}

// Scanner applies the cross detector to every ticker of a universe.
type Scanner struct {
	source  Source
	opts    Options
	log     zerolog.Logger
	metrics *Metrics
}

// New creates a scanner. metrics may be nil.
func New(src Source, opts Options, log zerolog.Logger, metrics *Metrics) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.ShortWindow <= 0 {
		opts.ShortWindow = 50
	}
	if opts.LongWindow <= 0 {
		opts.LongWindow = 200
	}
	if opts.DailyPeriod == "" {
		opts.DailyPeriod = models.Period2Year
	}
	if opts.HourlyPeriod == "" {
		opts.HourlyPeriod = models.Period1Month
	}
	return &Scanner{
		source:  src,
		opts:    opts,
		log:     log.With().Str("component", "scanner").Logger(),
		metrics: metrics,
	}
}

// Result is the outcome of one scan. Rows are in completion order until
// sorted; Failed holds the error of every excluded ticker.
type Result struct {
	RunID    string
	Rows     []models.ScanRow
	Failed   map[string]error
	Started  time.Time
	Finished time.Time
}

// Table renders the rows for the sinks.
func (r *Result) Table() models.Table {
	return models.ScanTable(r.Rows, r.Finished)
}

type outcome struct {
	ticker string
	row    models.ScanRow
	err    error
}

// Scan processes tickers concurrently and waits for all of them. It never
// returns an error: per-ticker failures are logged and recorded in
// Result.Failed. A cancelled context shows up as failures for the tickers
// that had not finished.
func (s *Scanner) Scan(ctx context.Context, tickers []string) *Result {
	res := &Result{
		RunID:   uuid.NewString(),
		Failed:  make(map[string]error),
		Started: time.Now().UTC(),
	}
	if s.metrics != nil {
		s.metrics.TotalScans.Inc()
	}
	s.log.Info().Str("run_id", res.RunID).Int("tickers", len(tickers)).
		Int("workers", s.opts.Workers).Msg("scan started")

	results := make(chan outcome, len(tickers))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for _, ticker := range tickers {
		g.Go(func() error {
			if s.metrics != nil {
				s.metrics.ActiveWorkers.Inc()
				defer s.metrics.ActiveWorkers.Dec()
			}
			row, err := s.scanTicker(ctx, ticker)
			results <- outcome{ticker: ticker, row: row, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for o := range results {
		if o.err != nil {
			s.log.Warn().Err(o.err).Str("ticker", o.ticker).Msg("ticker skipped")
			res.Failed[o.ticker] = o.err
			s.count("failed")
			continue
		}
		res.Rows = append(res.Rows, o.row)
		s.count("ok")
	}

	res.Finished = time.Now().UTC()
	if s.metrics != nil {
		s.metrics.ScanDuration.Observe(res.Finished.Sub(res.Started).Seconds())
	}
	s.log.Info().Str("run_id", res.RunID).Int("rows", len(res.Rows)).
		Int("failed", len(res.Failed)).Dur("took", res.Finished.Sub(res.Started)).
		Msg("scan finished")
	return res
}

func (s *Scanner) count(outcome string) {
	if s.metrics != nil {
		s.metrics.TickersScanned.WithLabelValues(outcome).Inc()
	}
}

func (s *Scanner) scanTicker(ctx context.Context, ticker string) (models.ScanRow, error) {
	if err := ctx.Err(); err != nil {
		return models.ScanRow{}, err
	}

	row := models.ScanRow{
		Ticker:          ticker,
		Name:            s.opts.Names[ticker],
		DailyCrossDate:  models.NotAvailable,
		HourlyCrossDate: models.NotAvailable,
	}

	facts, err := s.source.Facts(ctx, ticker)
	if err != nil {
		return row, fmt.Errorf("facts: %w", err)
	}
	row.MarketCap = facts.MarketCap
	if row.Name == "" {
		row.Name = facts.Name
	}

	daily, err := s.source.History(ctx, ticker, s.opts.DailyPeriod, models.Timeframe1Day)
	if err != nil {
		return row, fmt.Errorf("daily history: %w", err)
	}
	sig := technical.GoldenCross(daily, s.opts.ShortWindow, s.opts.LongWindow)
	switch {
	case sig.Status == technical.StatusInsufficient:
		row.Status = StatusInsufficient
		return row, nil
	case sig.Bullish:
		row.Status = StatusBullish
	default:
		row.Status = StatusBearish
	}
	if sig.HasCross {
		row.DailyCrossDate = sig.CrossDate.Format(dailyLayout)
	}
	if !sig.Bullish {
		return row, nil
	}

	hourly, err := s.source.History(ctx, ticker, s.opts.HourlyPeriod, models.Timeframe1Hour)
	if err != nil {
		return row, fmt.Errorf("hourly history: %w", err)
	}
	if hsig := technical.GoldenCross(hourly, s.opts.ShortWindow, s.opts.LongWindow); hsig.HasCross {
		row.HourlyCrossDate = hsig.CrossDate.Format(hourlyLayout)
	}
	return row, nil
}

// SortByMarketCap orders rows by market cap descending. Rows with an unknown
// cap go last; ties are broken by ticker. The sort is stable.
func SortByMarketCap(rows []models.ScanRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].MarketCap, rows[j].MarketCap
		switch {
		case a == nil && b == nil:
			return rows[i].Ticker < rows[j].Ticker
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		default:
			return rows[i].Ticker < rows[j].Ticker
		}
	})
}
