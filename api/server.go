// Package api provides the HTTP dashboard API for equitylens.
//
// It exposes per-ticker overview, valuation, technical and news endpoints,
// the recorded scan history, and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/seenimoa/equitylens/internal/analysis/fundamental"
	"github.com/seenimoa/equitylens/internal/analyzer"
	"github.com/seenimoa/equitylens/internal/config"
	"github.com/seenimoa/equitylens/internal/datasource"
	"github.com/seenimoa/equitylens/internal/llm"
	"github.com/seenimoa/equitylens/internal/recorder"
	"github.com/seenimoa/equitylens/pkg/utils"
)

// Version is reported by /health. It is set by the command at startup.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	analyzer *analyzer.Analyzer
	news     *llm.NewsAnalyst
	history  recorder.Recorder
	gatherer prometheus.Gatherer
	log      zerolog.Logger
}

// Option configures optional server dependencies.
type Option func(*Server)

// WithNewsAnalyst enables the Gemini summary on the news endpoint.
func WithNewsAnalyst(a *llm.NewsAnalyst) Option {
	return func(s *Server) { s.news = a }
}

// WithRecorder exposes recorded scan runs.
func WithRecorder(r recorder.Recorder) Option {
	return func(s *Server) { s.history = r }
}

// WithGatherer sets the registry served at /metrics. The default is the
// global Prometheus registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, a *analyzer.Analyzer, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		analyzer: a,
		history:  recorder.NewNoopRecorder(),
		gatherer: prometheus.DefaultGatherer,
		log:      log.With().Str("component", "api").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("dashboard API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/stocks/{ticker}", func(r chi.Router) {
			r.Get("/", s.handleDashboard)
			r.Get("/overview", s.handleOverview)
			r.Get("/valuation", s.handleValuation)
			r.Get("/technicals", s.handleTechnicals)
			r.Get("/news", s.handleNews)
		})

		r.Get("/scans", s.handleScans)
	})

	return r
}

// requestLogger logs one line per request through zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ValuationResponse pairs both valuation models.
type ValuationResponse struct {
	DCF *analyzer.DCFReport `json:"dcf"`
	DDM *analyzer.DDMReport `json:"ddm"`
}

// NewsResponse adds the optional Gemini summary to the sentiment report.
type NewsResponse struct {
	*analyzer.NewsReport
	Summary string `json:"summary,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":        "ok",
			"version":       Version,
			"market_status": utils.MarketStatus(),
			"time_et":       utils.NowET().Format("2006-01-02 15:04:05 MST"),
		},
	})
}

func tickerParam(r *http.Request) string {
	return utils.NormalizeTicker(chi.URLParam(r, "ticker"))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.analyzer.Dashboard(r.Context(), tickerParam(r))
	if err != nil {
		s.writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: d})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.analyzer.Overview(r.Context(), tickerParam(r))
	if err != nil {
		s.writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: o})
}

// handleValuation runs both models. Query parameters override the
// configured assumptions: years, growth, discount, terminal, div_growth,
// required_return.
func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	dcf, ddm, err := s.assumptionsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ticker := tickerParam(r)
	dcfReport, err := s.analyzer.DCF(r.Context(), ticker, &dcf)
	if err != nil {
		s.writeProviderError(w, err)
		return
	}
	ddmReport, err := s.analyzer.DDM(r.Context(), ticker, &ddm)
	if err != nil {
		s.writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    ValuationResponse{DCF: dcfReport, DDM: ddmReport},
	})
}

func (s *Server) assumptionsFromQuery(r *http.Request) (fundamental.DCFAssumptions, fundamental.DDMAssumptions, error) {
	settings := s.analyzer.Settings()
	dcf, ddm := settings.DCF, settings.DDM
	q := r.URL.Query()

	floats := []struct {
		key string
		dst *float64
	}{
		{"growth", &dcf.ShortTermGrowth},
		{"discount", &dcf.DiscountRate},
		{"terminal", &dcf.TerminalGrowth},
		{"div_growth", &ddm.Growth},
		{"required_return", &ddm.RequiredReturn},
	}
	for _, f := range floats {
		raw := q.Get(f.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return dcf, ddm, errors.New("invalid " + f.key + ": " + raw)
		}
		*f.dst = v
	}
	if raw := q.Get("years"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return dcf, ddm, errors.New("invalid years: " + raw)
		}
		dcf.Years = n
	}
	if err := dcf.Validate(); err != nil {
		return dcf, ddm, err
	}
	if err := ddm.Validate(); err != nil {
		return dcf, ddm, err
	}
	return dcf, ddm, nil
}

func (s *Server) handleTechnicals(w http.ResponseWriter, r *http.Request) {
	t, err := s.analyzer.Technicals(r.Context(), tickerParam(r), nil)
	if err != nil {
		s.writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: t})
}

// handleNews returns headline sentiment. With ?summary=true and Gemini
// configured it also asks the model for an outlook.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	report, err := s.analyzer.News(r.Context(), ticker)
	if err != nil {
		s.writeProviderError(w, err)
		return
	}
	resp := NewsResponse{NewsReport: report}
	if want, _ := strconv.ParseBool(r.URL.Query().Get("summary")); want {
		if s.news == nil {
			writeError(w, http.StatusServiceUnavailable, "news summaries need a Gemini API key")
			return
		}
		resp.Summary = s.news.Analyze(r.Context(), report.Ticker, report.Headlines)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := s.history.LastRuns(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("load scan history")
		writeError(w, http.StatusInternalServerError, "could not load scan history")
		return
	}
	if runs == nil {
		runs = []recorder.Run{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: runs})
}

// writeProviderError maps data provider failures to HTTP statuses: unknown
// tickers are 404, everything else is an upstream failure.
func (s *Server) writeProviderError(w http.ResponseWriter, err error) {
	switch {
	case datasource.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		s.log.Warn().Err(err).Msg("provider request failed")
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   strings.TrimSpace(msg),
	})
}
