// Package analyzer composes the data provider with the valuation, signal and
// sentiment engines into per-ticker reports. Engine errors never escape as
// failures: a section that cannot be computed carries the reason in its
// Unavailable field, the way the dashboard shows "N/A".
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/equitylens/internal/analysis/fundamental"
	"github.com/seenimoa/equitylens/internal/analysis/sentiment"
	"github.com/seenimoa/equitylens/internal/analysis/technical"
	"github.com/seenimoa/equitylens/internal/datasource"
	"github.com/seenimoa/equitylens/pkg/models"
	"github.com/seenimoa/equitylens/pkg/utils"
)

// DefaultHeadlines is the number of headlines kept in a news report.
const DefaultHeadlines = 5

// Settings are the default assumptions used when a call passes none.
type Settings struct {
	DCF           fundamental.DCFAssumptions
	DDM           fundamental.DDMAssumptions
	Technical     technical.Params
	HistoryPeriod models.Period
	Headlines     int
}

// Analyzer builds reports for single tickers.
type Analyzer struct {
	provider datasource.Provider
	agg      *datasource.Aggregator
	settings Settings
	log      zerolog.Logger
}

// New creates an analyzer.
func New(p datasource.Provider, s Settings, log zerolog.Logger) *Analyzer {
	if s.HistoryPeriod == "" {
		s.HistoryPeriod = models.Period2Year
	}
	if s.Technical.LongWindow == 0 {
		s.Technical = technical.DefaultParams()
	}
	if s.Headlines <= 0 {
		s.Headlines = DefaultHeadlines
	}
	return &Analyzer{
		provider: p,
		agg:      datasource.NewAggregator(p, s.HistoryPeriod),
		settings: s,
		log:      log.With().Str("component", "analyzer").Logger(),
	}
}

// Settings returns the defaults in effect.
func (a *Analyzer) Settings() Settings { return a.settings }

// --- Reports ---

// DCFReport is the outcome of a DCF run with every intermediate.
type DCFReport struct {
	Ticker          string                      `json:"ticker"`
	Name            string                      `json:"name"`
	Assumptions     fundamental.DCFAssumptions  `json:"assumptions"`
	CurrentFCF      float64                     `json:"current_fcf"`
	FCFApproximated bool                        `json:"fcf_approximated"`
	Defaults        fundamental.BalanceDefaults `json:"defaults"`
	TotalDebt       float64                     `json:"total_debt"`
	TotalCash       float64                     `json:"total_cash"`
	Shares          float64                     `json:"shares_outstanding"`
	Result          *fundamental.DCFResult      `json:"result,omitempty"`
	Price           *float64                    `json:"price,omitempty"`
	Verdict         string                      `json:"verdict"`
	MarginOfSafety  *float64                    `json:"margin_of_safety,omitempty"`
	Unavailable     string                      `json:"unavailable,omitempty"`
}

// DDMReport is the outcome of a Gordon growth valuation.
type DDMReport struct {
	Ticker         string                     `json:"ticker"`
	Name           string                     `json:"name"`
	Assumptions    fundamental.DDMAssumptions `json:"assumptions"`
	LatestDividend *models.Dividend           `json:"latest_dividend,omitempty"`
	IntrinsicValue *float64                   `json:"intrinsic_value,omitempty"`
	Price          *float64                   `json:"price,omitempty"`
	Verdict        string                     `json:"verdict"`
	Unavailable    string                     `json:"unavailable,omitempty"`
}

// TechnicalReport wraps a technical assessment.
type TechnicalReport struct {
	Ticker      string                `json:"ticker"`
	Assessment  *technical.Assessment `json:"assessment,omitempty"`
	Params      technical.Params      `json:"params"`
	Unavailable string                `json:"unavailable,omitempty"`
}

// NewsReport carries aggregate headline sentiment and the top headlines.
type NewsReport struct {
	Ticker      string            `json:"ticker"`
	Sentiment   sentiment.Result  `json:"sentiment"`
	Headlines   []models.NewsItem `json:"headlines"`
	Unavailable string            `json:"unavailable,omitempty"`
}

// Consensus is the analyst view on a ticker.
type Consensus struct {
	Recommendation string   `json:"recommendation"`
	TargetMean     *float64 `json:"target_mean,omitempty"`
	TargetHigh     *float64 `json:"target_high,omitempty"`
	TargetLow      *float64 `json:"target_low,omitempty"`
	Upside         *float64 `json:"upside,omitempty"` // ratio, mean target vs price
}

// Overview is the header section of the dashboard.
type Overview struct {
	Facts        *models.CompanyFacts `json:"facts"`
	Consensus    Consensus            `json:"consensus"`
	MarketStatus string               `json:"market_status"`
}

// Dashboard bundles every section for one ticker.
type Dashboard struct {
	Ticker     string           `json:"ticker"`
	Overview   *Overview        `json:"overview"`
	DCF        *DCFReport       `json:"dcf"`
	DDM        *DDMReport       `json:"ddm"`
	Technicals *TechnicalReport `json:"technicals"`
	News       *NewsReport      `json:"news"`
	FetchedAt  time.Time        `json:"fetched_at"`
}

// --- Builders (pure) ---

// BuildDCF runs the DCF over fetched statements. facts must not be nil.
func BuildDCF(facts *models.CompanyFacts, cfs []models.CashFlow, a fundamental.DCFAssumptions) *DCFReport {
	r := &DCFReport{
		Ticker:      facts.Ticker,
		Name:        facts.Name,
		Assumptions: a,
		Price:       facts.Price,
		Verdict:     models.NotAvailable,
	}

	fcf, approx, err := fundamental.ResolveFreeCashFlow(cfs)
	if err != nil {
		r.Unavailable = reason(err)
		return r
	}
	r.CurrentFCF, r.FCFApproximated = fcf, approx

	in, defaults := fundamental.InputsFromFacts(fcf, *facts, a)
	r.Defaults = defaults
	r.TotalDebt, r.TotalCash, r.Shares = in.TotalDebt, in.TotalCash, in.SharesOutstanding

	res, err := fundamental.ProjectDCF(in)
	if err != nil {
		r.Unavailable = reason(err)
		return r
	}
	r.Result = res
	if price, ok := models.Deref(facts.Price); ok {
		r.Verdict = fundamental.Verdict(res.IntrinsicValue, price)
		r.MarginOfSafety = models.Float(fundamental.MarginOfSafety(res.IntrinsicValue, price))
	}
	return r
}

// BuildDDM values facts.Ticker from its dividend history.
func BuildDDM(facts *models.CompanyFacts, divs []models.Dividend, a fundamental.DDMAssumptions) *DDMReport {
	r := &DDMReport{
		Ticker:      facts.Ticker,
		Name:        facts.Name,
		Assumptions: a,
		Price:       facts.Price,
		Verdict:     models.NotAvailable,
	}
	value, latest, err := fundamental.DDMFromHistory(divs, a)
	if latest.Amount > 0 {
		r.LatestDividend = &latest
	}
	if err != nil {
		r.Unavailable = reason(err)
		return r
	}
	r.IntrinsicValue = models.Float(value)
	if price, ok := models.Deref(facts.Price); ok {
		r.Verdict = fundamental.Verdict(value, price)
	}
	return r
}

// BuildTechnical assesses a daily series. price may be nil.
func BuildTechnical(ticker string, daily []models.OHLCV, price *float64, p technical.Params) *TechnicalReport {
	r := &TechnicalReport{Ticker: ticker, Params: p}
	px, _ := models.Deref(price)
	a, err := technical.Assess(daily, px, p)
	if err != nil {
		r.Unavailable = reason(err)
		return r
	}
	r.Assessment = a
	return r
}

// BuildNews scores items and keeps the first limit headlines.
func BuildNews(ticker string, items []models.NewsItem, limit int) *NewsReport {
	r := &NewsReport{Ticker: ticker, Sentiment: sentiment.Analyze(items), Headlines: []models.NewsItem{}}
	if len(items) == 0 {
		r.Unavailable = "no recent news"
		return r
	}
	if limit > len(items) {
		limit = len(items)
	}
	r.Headlines = append(r.Headlines, items[:limit]...)
	return r
}

// BuildOverview derives the consensus and market clock at now.
func BuildOverview(facts *models.CompanyFacts, now time.Time) *Overview {
	c := Consensus{
		Recommendation: facts.Recommendation,
		TargetMean:     facts.TargetMean,
		TargetHigh:     facts.TargetHigh,
		TargetLow:      facts.TargetLow,
	}
	if c.Recommendation == "" {
		c.Recommendation = models.NotAvailable
	}
	price, okP := models.Deref(facts.Price)
	mean, okM := models.Deref(facts.TargetMean)
	if okP && okM && price > 0 {
		c.Upside = models.Float(mean/price - 1)
	}
	return &Overview{Facts: facts, Consensus: c, MarketStatus: utils.MarketStatusAt(now)}
}

// reason turns an engine error into the text shown in place of a value.
func reason(err error) string {
	switch {
	case errors.Is(err, fundamental.ErrNoDividendData):
		return "no dividend history (the company may not pay dividends)"
	case errors.Is(err, fundamental.ErrMissingShareCount):
		return "shares outstanding not reported"
	case errors.Is(err, fundamental.ErrMissingFinancialData):
		return "free cash flow not reported"
	case errors.Is(err, fundamental.ErrInvalidAssumption):
		return err.Error()
	case errors.Is(err, technical.ErrInsufficientHistory):
		return "not enough price history"
	default:
		return err.Error()
	}
}

// --- Fetching ---

func (a *Analyzer) facts(ctx context.Context, ticker string) (*models.CompanyFacts, error) {
	facts, err := a.provider.Facts(ctx, utils.ToYahooTicker(ticker))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	return facts, nil
}

// DCF fetches statements for ticker and runs the DCF. A nil a uses the
// configured defaults. Only a failure to load company facts is an error.
func (a *Analyzer) DCF(ctx context.Context, ticker string, assumptions *fundamental.DCFAssumptions) (*DCFReport, error) {
	facts, err := a.facts(ctx, ticker)
	if err != nil {
		return nil, err
	}
	as := a.settings.DCF
	if assumptions != nil {
		as = *assumptions
	}
	cfs, err := a.provider.CashFlow(ctx, facts.Ticker)
	if err != nil {
		a.log.Warn().Err(err).Str("ticker", ticker).Msg("cash flow unavailable")
		return &DCFReport{Ticker: facts.Ticker, Name: facts.Name, Assumptions: as, Price: facts.Price,
			Verdict: models.NotAvailable, Unavailable: "cash flow statement unavailable"}, nil
	}
	r := BuildDCF(facts, cfs, as)
	a.warnDefaults(r)
	return r, nil
}

func (a *Analyzer) warnDefaults(r *DCFReport) {
	if r.Defaults.DebtAssumed || r.Defaults.CashAssumed {
		a.log.Warn().Str("ticker", r.Ticker).
			Bool("debt_assumed_zero", r.Defaults.DebtAssumed).
			Bool("cash_assumed_zero", r.Defaults.CashAssumed).
			Msg("balance sheet items missing, treated as zero")
	}
	if r.Unavailable != "" {
		a.log.Info().Str("ticker", r.Ticker).Str("reason", r.Unavailable).Msg("dcf not computed")
	}
}

// DDM fetches dividends for ticker and runs the Gordon model.
func (a *Analyzer) DDM(ctx context.Context, ticker string, assumptions *fundamental.DDMAssumptions) (*DDMReport, error) {
	facts, err := a.facts(ctx, ticker)
	if err != nil {
		return nil, err
	}
	as := a.settings.DDM
	if assumptions != nil {
		as = *assumptions
	}
	divs, err := a.provider.Dividends(ctx, facts.Ticker)
	if err != nil {
		a.log.Warn().Err(err).Str("ticker", ticker).Msg("dividends unavailable")
		return dividendsUnavailable(facts, as), nil
	}
	return BuildDDM(facts, divs, as), nil
}

// dividendsUnavailable reports a failed dividend fetch, which says nothing
// about whether the company pays dividends.
func dividendsUnavailable(facts *models.CompanyFacts, a fundamental.DDMAssumptions) *DDMReport {
	return &DDMReport{Ticker: facts.Ticker, Name: facts.Name, Assumptions: a, Price: facts.Price,
		Verdict: models.NotAvailable, Unavailable: "dividend history unavailable"}
}

// Technicals fetches daily history and assesses it.
func (a *Analyzer) Technicals(ctx context.Context, ticker string, p *technical.Params) (*TechnicalReport, error) {
	symbol := utils.ToYahooTicker(ticker)
	params := a.settings.Technical
	if p != nil {
		params = *p
	}
	daily, err := a.provider.History(ctx, symbol, a.settings.HistoryPeriod, models.Timeframe1Day)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	return BuildTechnical(symbol, daily, nil, params), nil
}

// News fetches and scores recent headlines.
func (a *Analyzer) News(ctx context.Context, ticker string) (*NewsReport, error) {
	symbol := utils.ToYahooTicker(ticker)
	items, err := a.provider.News(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	return BuildNews(symbol, items, a.settings.Headlines), nil
}

// Overview fetches company facts and the analyst consensus.
func (a *Analyzer) Overview(ctx context.Context, ticker string) (*Overview, error) {
	facts, err := a.facts(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return BuildOverview(facts, time.Now()), nil
}

// Dashboard loads every section concurrently. Sections whose data failed to
// load are reported as unavailable; only missing facts fail the call.
func (a *Analyzer) Dashboard(ctx context.Context, ticker string) (*Dashboard, error) {
	p, err := a.agg.FetchProfile(ctx, ticker)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Ticker:    p.Ticker,
		Overview:  BuildOverview(p.Facts, p.FetchedAt),
		DDM:       BuildDDM(p.Facts, p.Dividends, a.settings.DDM),
		News:      BuildNews(p.Ticker, p.News, a.settings.Headlines),
		FetchedAt: p.FetchedAt,
	}

	if err := p.Err("cashflow"); err != nil {
		d.DCF = &DCFReport{Ticker: p.Ticker, Name: p.Facts.Name, Assumptions: a.settings.DCF,
			Price: p.Facts.Price, Verdict: models.NotAvailable, Unavailable: "cash flow statement unavailable"}
	} else {
		d.DCF = BuildDCF(p.Facts, p.CashFlows, a.settings.DCF)
		a.warnDefaults(d.DCF)
	}

	if err := p.Err("dividends"); err != nil {
		d.DDM = dividendsUnavailable(p.Facts, a.settings.DDM)
	}

	d.Technicals = BuildTechnical(p.Ticker, p.Daily, p.Facts.Price, a.settings.Technical)
	if err := p.Err("history"); err != nil {
		d.Technicals.Unavailable = "price history unavailable"
	}
	if err := p.Err("news"); err != nil {
		d.News.Unavailable = "news unavailable"
	}
	return d, nil
}
