package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/seenimoa/equitylens/pkg/models"
	"github.com/seenimoa/equitylens/pkg/utils"
)

// --- Yahoo Finance v10 quoteSummary types ---

type yfSummaryResponse struct {
	QuoteSummary struct {
		Result []yfSummaryResult `json:"result"`
		Error  *yfError          `json:"error"`
	} `json:"quoteSummary"`
}

type yfSummaryResult struct {
	Price *struct {
		LongName           string `json:"longName"`
		ShortName          string `json:"shortName"`
		RegularMarketPrice *yfRaw `json:"regularMarketPrice"`
		MarketCap          *yfRaw `json:"marketCap"`
	} `json:"price"`
	SummaryDetail *struct {
		TrailingPE *yfRaw `json:"trailingPE"`
		Beta       *yfRaw `json:"beta"`
		MarketCap  *yfRaw `json:"marketCap"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics *struct {
		SharesOutstanding *yfRaw `json:"sharesOutstanding"`
		Beta              *yfRaw `json:"beta"`
	} `json:"defaultKeyStatistics"`
	FinancialData *struct {
		CurrentPrice      *yfRaw `json:"currentPrice"`
		TotalDebt         *yfRaw `json:"totalDebt"`
		TotalCash         *yfRaw `json:"totalCash"`
		TargetMeanPrice   *yfRaw `json:"targetMeanPrice"`
		TargetHighPrice   *yfRaw `json:"targetHighPrice"`
		TargetLowPrice    *yfRaw `json:"targetLowPrice"`
		RecommendationKey string `json:"recommendationKey"`
	} `json:"financialData"`
	AssetProfile *struct {
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		LongBusinessSummary string `json:"longBusinessSummary"`
	} `json:"assetProfile"`
	CashflowStatementHistory *struct {
		Statements []yfCashflowStatement `json:"cashflowStatements"`
	} `json:"cashflowStatementHistory"`
	CalendarEvents *struct {
		Earnings struct {
			EarningsDate []yfRaw `json:"earningsDate"`
		} `json:"earnings"`
	} `json:"calendarEvents"`
}

type yfCashflowStatement struct {
	EndDate                          *yfRaw `json:"endDate"`
	TotalCashFromOperatingActivities *yfRaw `json:"totalCashFromOperatingActivities"`
	CapitalExpenditures              *yfRaw `json:"capitalExpenditures"`
	FreeCashFlow                     *yfRaw `json:"freeCashFlow"`
}

// Facts returns point-in-time company data. Values Yahoo does not report are
// left nil.
func (y *Yahoo) Facts(ctx context.Context, ticker string) (*models.CompanyFacts, error) {
	s, err := y.summary(ctx, ticker)
	if err != nil {
		return nil, err
	}

	f := &models.CompanyFacts{Ticker: utils.ToYahooTicker(ticker)}
	if p := s.Price; p != nil {
		f.Name = coalesce(p.LongName, p.ShortName)
		f.Price = p.RegularMarketPrice.ptr()
		f.MarketCap = p.MarketCap.ptr()
	}
	if d := s.SummaryDetail; d != nil {
		f.TrailingPE = d.TrailingPE.ptr()
		f.Beta = d.Beta.ptr()
		if f.MarketCap == nil {
			f.MarketCap = d.MarketCap.ptr()
		}
	}
	if k := s.DefaultKeyStatistics; k != nil {
		f.SharesOutstanding = k.SharesOutstanding.ptr()
		if f.Beta == nil {
			f.Beta = k.Beta.ptr()
		}
	}
	if fd := s.FinancialData; fd != nil {
		if f.Price == nil {
			f.Price = fd.CurrentPrice.ptr()
		}
		f.TotalDebt = fd.TotalDebt.ptr()
		f.TotalCash = fd.TotalCash.ptr()
		f.TargetMean = fd.TargetMeanPrice.ptr()
		f.TargetHigh = fd.TargetHighPrice.ptr()
		f.TargetLow = fd.TargetLowPrice.ptr()
		f.Recommendation = recommendationLabel(fd.RecommendationKey)
	}
	if a := s.AssetProfile; a != nil {
		f.Sector = a.Sector
		f.Industry = a.Industry
		f.Summary = a.LongBusinessSummary
	}
	if f.Name == "" {
		f.Name = f.Ticker
	}
	return f, nil
}

// CashFlow returns annual cash flow statements, most recent first.
func (y *Yahoo) CashFlow(ctx context.Context, ticker string) ([]models.CashFlow, error) {
	s, err := y.summary(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if s.CashflowStatementHistory == nil {
		return nil, nil
	}

	out := make([]models.CashFlow, 0, len(s.CashflowStatementHistory.Statements))
	for _, st := range s.CashflowStatementHistory.Statements {
		cf := models.CashFlow{
			FreeCashFlow:       st.FreeCashFlow.ptr(),
			OperatingCashFlow:  st.TotalCashFromOperatingActivities.ptr(),
			CapitalExpenditure: st.CapitalExpenditures.ptr(),
		}
		if st.EndDate != nil {
			cf.Period = st.EndDate.Fmt
		}
		out = append(out, cf)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out, nil
}

// EarningsDates returns the upcoming earnings date(s) Yahoo publishes,
// ascending. Yahoo often reports a two-day window as two dates.
func (y *Yahoo) EarningsDates(ctx context.Context, ticker string) ([]time.Time, error) {
	s, err := y.summary(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if s.CalendarEvents == nil {
		return nil, nil
	}

	var dates []time.Time
	for _, d := range s.CalendarEvents.Earnings.EarningsDate {
		if d.Raw != nil {
			dates = append(dates, time.Unix(int64(*d.Raw), 0).UTC())
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (y *Yahoo) summary(ctx context.Context, ticker string) (*yfSummaryResult, error) {
	cacheKey := "summary:" + ticker
	if cached, ok := y.summaries.Get(cacheKey); ok {
		return cached, nil
	}

	q := url.Values{}
	q.Set("modules", strings.Join(summaryModules, ","))
	if crumb := y.ensureCrumb(ctx); crumb != "" {
		q.Set("crumb", crumb)
	}
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", y.baseURL, symbolPath(ticker), q.Encode())

	var resp yfSummaryResponse
	if err := y.getJSON(ctx, u, &resp); err != nil {
		var herr *HTTPError
		if errors.As(err, &herr) && herr.StatusCode == http.StatusUnauthorized {
			y.resetCrumb()
		}
		return nil, fmt.Errorf("yahoo quoteSummary %s: %w", ticker, err)
	}
	if resp.QuoteSummary.Error != nil {
		return nil, resp.QuoteSummary.Error.asError(ticker)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	res := &resp.QuoteSummary.Result[0]
	y.summaries.Set(cacheKey, res)
	return res, nil
}

func (y *Yahoo) resetCrumb() {
	y.crumbMu.Lock()
	y.crumb = ""
	y.crumbMu.Unlock()
}

// recommendationLabel turns "strong_buy" into "Strong Buy".
func recommendationLabel(key string) string {
	if key == "" || key == "none" {
		return ""
	}
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
