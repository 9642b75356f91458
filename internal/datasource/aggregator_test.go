package datasource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/equitylens/pkg/models"
)

// stubProvider returns canned data; a non-nil err field fails that call.
type stubProvider struct {
	facts    *models.CompanyFacts
	factsErr error
	newsErr  error
}

func (s *stubProvider) History(context.Context, string, models.Period, models.Timeframe) ([]models.OHLCV, error) {
	return []models.OHLCV{{Close: 1}, {Close: 2}}, nil
}

func (s *stubProvider) Dividends(context.Context, string) ([]models.Dividend, error) {
	return []models.Dividend{{Amount: 0.5}}, nil
}

func (s *stubProvider) CashFlow(context.Context, string) ([]models.CashFlow, error) {
	return []models.CashFlow{{Period: "2025-09-27", FreeCashFlow: models.Float(10)}}, nil
}

func (s *stubProvider) Facts(context.Context, string) (*models.CompanyFacts, error) {
	return s.facts, s.factsErr
}

func (s *stubProvider) News(context.Context, string) ([]models.NewsItem, error) {
	if s.newsErr != nil {
		return nil, s.newsErr
	}
	return []models.NewsItem{{Title: "headline"}}, nil
}

func (s *stubProvider) EarningsDates(context.Context, string) ([]time.Time, error) {
	return nil, nil
}

func TestFetchProfile(t *testing.T) {
	p := &stubProvider{
		facts:   &models.CompanyFacts{Ticker: "BRK-B", Name: "Berkshire"},
		newsErr: ErrProviderFailure,
	}
	prof, err := NewAggregator(p, "").FetchProfile(context.Background(), "brk.b")
	require.NoError(t, err)

	assert.Equal(t, "BRK-B", prof.Ticker)
	assert.Equal(t, "Berkshire", prof.Facts.Name)
	assert.Len(t, prof.Daily, 2)
	assert.Len(t, prof.Dividends, 1)
	assert.Len(t, prof.CashFlows, 1)
	assert.Nil(t, prof.News)
	assert.ErrorIs(t, prof.Err("news"), ErrProviderFailure)
	assert.NoError(t, prof.Err("history"))
}

func TestFetchProfileFailsWithoutFacts(t *testing.T) {
	p := &stubProvider{factsErr: ErrTickerNotFound}
	_, err := NewAggregator(p, models.Period1Year).FetchProfile(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTickerNotFound))
}
