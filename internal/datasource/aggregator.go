package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/equitylens/pkg/models"
	"github.com/seenimoa/equitylens/pkg/utils"
)

// Profile bundles everything the dashboard shows for one ticker. Sections
// that failed to load are nil and their errors are kept in Errors.
type Profile struct {
	Ticker    string               `json:"ticker"`
	Facts     *models.CompanyFacts `json:"facts,omitempty"`
	Daily     []models.OHLCV       `json:"-"`
	Dividends []models.Dividend    `json:"dividends,omitempty"`
	CashFlows []models.CashFlow    `json:"cash_flows,omitempty"`
	News      []models.NewsItem    `json:"news,omitempty"`
	Errors    map[string]error     `json:"-"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// Err returns the error recorded for a section, if any.
func (p *Profile) Err(section string) error { return p.Errors[section] }

// Aggregator fetches the sections of a Profile concurrently.
type Aggregator struct {
	provider      Provider
	historyPeriod models.Period
}

// NewAggregator creates an aggregator. historyPeriod is the daily lookback
// loaded for technicals, e.g. "2y" so a 200-session average is defined.
func NewAggregator(p Provider, historyPeriod models.Period) *Aggregator {
	if historyPeriod == "" {
		historyPeriod = models.Period2Year
	}
	return &Aggregator{provider: p, historyPeriod: historyPeriod}
}

// FetchProfile loads facts, daily history, dividends, cash flow and news in
// parallel. Only a failure to load facts fails the whole profile; the
// other sections degrade to nil.
func (a *Aggregator) FetchProfile(ctx context.Context, ticker string) (*Profile, error) {
	symbol := utils.ToYahooTicker(ticker)
	profile := &Profile{
		Ticker:    symbol,
		Errors:    make(map[string]error),
		FetchedAt: time.Now().UTC(),
	}

	var mu sync.Mutex
	record := func(section string, err error) {
		mu.Lock()
		profile.Errors[section] = err
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f, err := a.provider.Facts(gctx, symbol)
		if err != nil {
			record("facts", err)
			return nil
		}
		mu.Lock()
		profile.Facts = f
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		candles, err := a.provider.History(gctx, symbol, a.historyPeriod, models.Timeframe1Day)
		if err != nil {
			record("history", err)
			return nil
		}
		mu.Lock()
		profile.Daily = candles
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		divs, err := a.provider.Dividends(gctx, symbol)
		if err != nil {
			record("dividends", err)
			return nil
		}
		mu.Lock()
		profile.Dividends = divs
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		cfs, err := a.provider.CashFlow(gctx, symbol)
		if err != nil {
			record("cashflow", err)
			return nil
		}
		mu.Lock()
		profile.CashFlows = cfs
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		news, err := a.provider.News(gctx, symbol)
		if err != nil {
			record("news", err)
			return nil
		}
		mu.Lock()
		profile.News = news
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if profile.Facts == nil {
		err := profile.Errors["facts"]
		if err == nil {
			err = errors.New("no facts returned")
		}
		return nil, fmt.Errorf("profile %s: %w", symbol, err)
	}
	return profile, nil
}
