package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/seenimoa/equitylens/internal/analysis/fundamental"
	"github.com/seenimoa/equitylens/internal/analyzer"
	"github.com/seenimoa/equitylens/internal/config"
	"github.com/seenimoa/equitylens/internal/datasource"
	"github.com/seenimoa/equitylens/internal/llm"
	"github.com/seenimoa/equitylens/internal/recorder"
	"github.com/seenimoa/equitylens/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

type stubProvider struct {
	factsErr error
}

func (s *stubProvider) History(context.Context, string, models.Period, models.Timeframe) ([]models.OHLCV, error) {
	day := time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)
	out := make([]models.OHLCV, 260)
	for i := range out {
		c := 50 + float64(i)*0.5
		out[i] = models.OHLCV{Timestamp: day.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return out, nil
}

func (s *stubProvider) Dividends(context.Context, string) ([]models.Dividend, error) {
	return []models.Dividend{{Amount: 1}}, nil
}

func (s *stubProvider) CashFlow(context.Context, string) ([]models.CashFlow, error) {
	return []models.CashFlow{{Period: "2025", FreeCashFlow: models.Float(100)}}, nil
}

func (s *stubProvider) Facts(_ context.Context, ticker string) (*models.CompanyFacts, error) {
	if s.factsErr != nil {
		return nil, s.factsErr
	}
	return &models.CompanyFacts{
		Ticker:            ticker,
		Name:              "Acme Corp",
		Price:             models.Float(100),
		SharesOutstanding: models.Float(10),
		TotalDebt:         models.Float(0),
		TotalCash:         models.Float(0),
	}, nil
}

func (s *stubProvider) News(context.Context, string) ([]models.NewsItem, error) {
	return []models.NewsItem{{Title: "Acme rallies"}, {Title: "Acme beats estimates"}}, nil
}

func (s *stubProvider) EarningsDates(context.Context, string) ([]time.Time, error) {
	return nil, nil
}

type stubGenerator struct{}

func (stubGenerator) Name() string { return "stub" }

func (stubGenerator) Generate(_ context.Context, prompt string, _ *llm.Options) (string, error) {
	return "Outlook: positive", nil
}

func testServer(t *testing.T, p datasource.Provider, opts ...Option) *Server {
	t.Helper()
	a := analyzer.New(p, analyzer.Settings{
		DCF: fundamental.DCFAssumptions{Years: 1, DiscountRate: 0.10},
		DDM: fundamental.DDMAssumptions{Growth: 0.05, RequiredReturn: 0.10},
	}, zerolog.Nop())
	return NewServer(&config.Config{}, a, zerolog.Nop(), opts...)
}

func get(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var resp APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return rec, resp
}

// ════════════════════════════════════════════════════════════════════
// Handler tests
// ════════════════════════════════════════════════════════════════════

func TestHandleHealth(t *testing.T) {
	rec, resp := get(t, testServer(t, &stubProvider{}), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatal("data should be a map")
	}
	if data["status"] != "ok" {
		t.Errorf("status: got %q", data["status"])
	}
	for _, key := range []string{"market_status", "time_et", "version"} {
		if _, ok := data[key]; !ok {
			t.Errorf("missing %s", key)
		}
	}
}

func TestHandleOverview(t *testing.T) {
	rec, resp := get(t, testServer(t, &stubProvider{}), "/api/v1/stocks/acme/overview")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]any)
	facts := data["facts"].(map[string]any)
	if facts["ticker"] != "ACME" {
		t.Errorf("ticker: got %v", facts["ticker"])
	}
}

func TestHandleOverview_NotFound(t *testing.T) {
	srv := testServer(t, &stubProvider{factsErr: datasource.ErrTickerNotFound})
	rec, resp := get(t, srv, "/api/v1/stocks/NOPE/overview")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
	if resp.Success || resp.Error == "" {
		t.Errorf("expected error envelope, got %+v", resp)
	}
}

func TestHandleOverview_ProviderFailure(t *testing.T) {
	srv := testServer(t, &stubProvider{factsErr: datasource.ErrProviderFailure})
	rec, _ := get(t, srv, "/api/v1/stocks/ACME/overview")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", rec.Code)
	}
}

func TestHandleValuation(t *testing.T) {
	srv := testServer(t, &stubProvider{})

	rec, resp := get(t, srv, "/api/v1/stocks/ACME/valuation")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]any)
	dcf := data["dcf"].(map[string]any)
	result := dcf["result"].(map[string]any)
	// FCF 100, one year at 10% with no growth: EV 1000, 10 shares.
	if iv := result["intrinsic_value"].(float64); iv < 99.99 || iv > 100.01 {
		t.Errorf("intrinsic value: got %v, want 100", iv)
	}
	ddm := data["ddm"].(map[string]any)
	if ddm["verdict"] != fundamental.Overvalued {
		t.Errorf("ddm verdict: got %v", ddm["verdict"])
	}

	_, resp = get(t, srv, "/api/v1/stocks/ACME/valuation?discount=0.2&years=2")
	dcf = resp.Data.(map[string]any)["dcf"].(map[string]any)
	as := dcf["assumptions"].(map[string]any)
	if as["discount_rate"] != 0.2 || as["years"] != float64(2) {
		t.Errorf("overrides not applied: %v", as)
	}
}

func TestHandleValuation_BadQuery(t *testing.T) {
	srv := testServer(t, &stubProvider{})
	tests := []struct {
		query string
		want  string
	}{
		{"growth=abc", "growth"},
		{"years=x", "years"},
		{"discount=NaN", "discount rate"},
		{"terminal=-Inf", "terminal growth"},
		{"required_return=NaN", "required return"},
		{"years=1000000000", "projection horizon"},
		{"years=0", "projection horizon"},
		{"discount=0.02&terminal=0.03", "must exceed"},
		{"div_growth=0.2&required_return=0.1", "must exceed"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec, resp := get(t, srv, "/api/v1/stocks/ACME/valuation?"+tt.query)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rec.Code)
			}
			if !strings.Contains(resp.Error, tt.want) {
				t.Errorf("error: got %q, want it to mention %q", resp.Error, tt.want)
			}
		})
	}
}

func TestHandleTechnicals(t *testing.T) {
	rec, resp := get(t, testServer(t, &stubProvider{}), "/api/v1/stocks/ACME/technicals")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	a := resp.Data.(map[string]any)["assessment"].(map[string]any)
	if a["ma_signal"] != "GOLDEN CROSS" {
		t.Errorf("ma_signal: got %v", a["ma_signal"])
	}
}

func TestHandleNews(t *testing.T) {
	srv := testServer(t, &stubProvider{})
	rec, resp := get(t, srv, "/api/v1/stocks/ACME/news")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	data := resp.Data.(map[string]any)
	if len(data["headlines"].([]any)) != 2 {
		t.Errorf("headlines: got %v", data["headlines"])
	}
	if _, ok := data["summary"]; ok {
		t.Error("summary should be omitted unless requested")
	}

	rec, _ = get(t, srv, "/api/v1/stocks/ACME/news?summary=true")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("summary without Gemini: got %d, want 503", rec.Code)
	}
}

func TestHandleNews_WithSummary(t *testing.T) {
	analyst := llm.NewNewsAnalyst(stubGenerator{}, &llm.Options{}, 10, zerolog.Nop())
	srv := testServer(t, &stubProvider{}, WithNewsAnalyst(analyst))
	_, resp := get(t, srv, "/api/v1/stocks/ACME/news?summary=true")
	if got := resp.Data.(map[string]any)["summary"]; got != "Outlook: positive" {
		t.Errorf("summary: got %v", got)
	}
}

func TestHandleDashboard(t *testing.T) {
	rec, resp := get(t, testServer(t, &stubProvider{}), "/api/v1/stocks/ACME/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	data := resp.Data.(map[string]any)
	for _, key := range []string{"overview", "dcf", "ddm", "technicals", "news"} {
		if data[key] == nil {
			t.Errorf("missing section %s", key)
		}
	}
}

type memRecorder struct {
	recorder.NoopRecorder
	runs []recorder.Run
}

func (m *memRecorder) LastRuns(limit int) ([]recorder.Run, error) {
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func TestHandleScans(t *testing.T) {
	rec, resp := get(t, testServer(t, &stubProvider{}), "/api/v1/scans")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if runs, ok := resp.Data.([]any); !ok || len(runs) != 0 {
		t.Errorf("expected empty list, got %v", resp.Data)
	}

	mem := &memRecorder{runs: []recorder.Run{{ID: "b"}, {ID: "a"}}}
	_, resp = get(t, testServer(t, &stubProvider{}, WithRecorder(mem)), "/api/v1/scans?limit=1")
	runs := resp.Data.([]any)
	if len(runs) != 1 || runs[0].(map[string]any)["id"] != "b" {
		t.Errorf("runs: got %v", runs)
	}

	rec, _ = get(t, testServer(t, &stubProvider{}), "/api/v1/scans?limit=0")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0: got %d, want 400", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "equitylens_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	rec, _ := get(t, testServer(t, &stubProvider{}, WithGatherer(reg)), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "equitylens_test_total 1") {
		t.Errorf("metrics body missing counter:\n%s", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t, &stubProvider{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/stocks/ACME/overview", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin: got %q", got)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusTeapot, " bad thing ")

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Error != "bad thing" {
		t.Errorf("got %+v", resp)
	}
}
