// equitylens: equity valuation, signals and golden cross scanning.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/equitylens/internal/analyzer"
	"github.com/seenimoa/equitylens/internal/config"
	"github.com/seenimoa/equitylens/internal/datasource"
	"github.com/seenimoa/equitylens/internal/logging"
	"github.com/seenimoa/equitylens/pkg/models"
	"github.com/seenimoa/equitylens/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Loaded once per invocation by the root PersistentPreRunE.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "equitylens",
	Short: "equitylens: stock valuation, technical signals and S&P 500 golden cross scans",
	Long: `equitylens values US equities with a discounted cash flow and a dividend
discount model, reads moving-average, RSI and Fibonacci signals, scores news
sentiment, scans the S&P 500 for golden crosses and syncs earnings dates to
Google Calendar.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger = logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(dcfCmd)
	rootCmd.AddCommand(ddmCmd)
	rootCmd.AddCommand(technicalCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(earningsSyncCmd)
	rootCmd.AddCommand(serveCmd)
}

// --- Shared wiring ---

// newYahoo builds the provider from config. extra options are applied last.
func newYahoo(extra ...datasource.YahooOption) *datasource.Yahoo {
	p := cfg.Provider
	jar, _ := cookiejar.New(nil)
	opts := []datasource.YahooOption{
		datasource.WithBaseURL(p.BaseURL),
		datasource.WithHTTPClient(&http.Client{Timeout: p.Timeout(), Jar: jar}),
		datasource.WithRateLimit(p.RateLimit, p.Burst),
		datasource.WithBreaker(p.BreakerMaxFailures, p.BreakerCooldown()),
		datasource.WithCacheTTL(p.CacheDuration()),
		datasource.WithNewsLimit(p.NewsLimit),
		datasource.WithLogger(logger),
	}
	return datasource.NewYahoo(append(opts, extra...)...)
}

// newBatchYahoo builds the provider for per-ticker batch jobs (scans and
// earnings sync). It has no circuit breaker, so failing tickers cannot get
// requests for healthy ones rejected; the rate limiter still applies.
func newBatchYahoo() *datasource.Yahoo {
	return newYahoo(datasource.WithBreaker(0, 0))
}

func newAnalyzer(p datasource.Provider) *analyzer.Analyzer {
	return analyzer.New(p, analyzer.Settings{
		DCF:           cfg.Valuation.DCF,
		DDM:           cfg.Valuation.DDM,
		Technical:     cfg.Technical,
		HistoryPeriod: models.Period(cfg.Scanner.DailyPeriod),
	}, logger)
}

// reportLookupError prints a friendly message for an unknown ticker and
// returns nil so data absence exits 0. Other errors are returned.
func reportLookupError(ticker string, err error) error {
	if datasource.IsNotFound(err) {
		fmt.Printf("Could not find data for %s. Check the ticker symbol.\n", ticker)
		return nil
	}
	return err
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("equitylens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  equitylens: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Market Status: %s\n", utils.MarketStatus())
		fmt.Printf("  Time (ET):     %s\n", utils.NowET().Format("2006-01-02 15:04:05 MST"))
		fmt.Println()

		d := cfg.Valuation.DCF
		fmt.Println("  Configuration:")
		fmt.Printf("    DCF:           %d years, growth %.2f%%, WACC %.2f%%, terminal %.2f%%\n",
			d.Years, d.ShortTermGrowth*100, d.DiscountRate*100, d.TerminalGrowth*100)
		fmt.Printf("    DDM:           growth %.2f%%, required return %.2f%%\n",
			cfg.Valuation.DDM.Growth*100, cfg.Valuation.DDM.RequiredReturn*100)
		fmt.Printf("    Scanner:       %d workers, SMA %d/%d\n",
			cfg.Scanner.Workers, cfg.Technical.ShortWindow, cfg.Technical.LongWindow)
		fmt.Printf("    Gemini Model:  %s\n", cfg.LLM.Model)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
