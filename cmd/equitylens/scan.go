package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/equitylens/internal/datasource"
	"github.com/seenimoa/equitylens/internal/earnings"
	"github.com/seenimoa/equitylens/internal/recorder"
	"github.com/seenimoa/equitylens/internal/scanner"
	"github.com/seenimoa/equitylens/internal/scheduler"
	"github.com/seenimoa/equitylens/internal/sink"
	"github.com/seenimoa/equitylens/pkg/models"
	"github.com/seenimoa/equitylens/pkg/utils"
)

// --- Scan Command ---

var scanCmd = &cobra.Command{
	Use:   "scan [tickers...]",
	Short: "Scan the S&P 500 (or the given tickers) for golden crosses",
	Long: `Scan every S&P 500 constituent, or only the tickers given, for the most
recent daily 50/200 golden cross. Bullish tickers are also checked on hourly
bars. Results are sorted by market cap and uploaded to Google Sheets when
GOOGLE_CREDENTIALS is set, otherwise written to a timestamped CSV file.

With --schedule (or scanner.schedule) the scan repeats on a cron spec with a
seconds field, e.g. "0 30 16 * * MON-FRI".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		schedule := cfg.Scanner.Schedule
		if cmd.Flags().Changed("schedule") {
			schedule, _ = cmd.Flags().GetString("schedule")
		}

		job, err := newScanJob(ctx, utils.NormalizeTickers(args), scanner.NewMetrics())
		if err != nil {
			return err
		}
		defer job.close()

		if schedule == "" {
			return job.run(ctx)
		}

		s := scheduler.New(ctx, logger)
		if err := s.Register("golden-cross-scan", schedule, job.runLogged); err != nil {
			return err
		}
		fmt.Printf("Golden cross scan scheduled (%s). Press Ctrl+C to stop.\n", schedule)
		s.Run(ctx)
		return nil
	},
}

func init() {
	scanCmd.Flags().String("schedule", "", "cron spec (with seconds) to repeat the scan")
}

// scanJob wires the universe, scanner, publisher and history together for
// one or more runs.
type scanJob struct {
	yahoo     *datasource.Yahoo
	universe  *datasource.SP500
	tickers   []string // fixed list; empty means the S&P 500
	metrics   *scanner.Metrics
	publisher *sink.Publisher
	history   recorder.Recorder
	log       zerolog.Logger
}

func newScanJob(ctx context.Context, tickers []string, metrics *scanner.Metrics) (*scanJob, error) {
	universe := datasource.NewSP500()
	if cfg.Scanner.UniverseURL != "" {
		universe.URL = cfg.Scanner.UniverseURL
	}

	publisher := &sink.Publisher{
		SheetName: cfg.Sheets.SheetName,
		Dir:       cfg.Sheets.OutputDir,
		Log:       logger,
	}
	job := &scanJob{
		yahoo:     newBatchYahoo(),
		universe:  universe,
		tickers:   tickers,
		metrics:   metrics,
		publisher: publisher,
		history:   recorder.NewNoopRecorder(),
		log:       logger.With().Str("component", "scan").Logger(),
	}

	if cfg.Sheets.Credentials != "" {
		sheets, err := sink.NewSheets(ctx, []byte(cfg.Sheets.Credentials), sink.WithShareEmail(cfg.Sheets.UserEmail))
		if err != nil {
			job.log.Error().Err(err).Msg("google credentials unusable, falling back to CSV")
		} else {
			job.publisher.Remote = sheets
		}
	}

	if cfg.Recorder.Enabled {
		rec, err := recorder.NewSQLiteRecorder(cfg.Recorder.Path, logger)
		if err != nil {
			return nil, err
		}
		job.history = rec
	}
	return job, nil
}

func (j *scanJob) close() {
	if err := j.history.Close(); err != nil {
		j.log.Warn().Err(err).Msg("close scan history")
	}
}

// universeFor returns the tickers to scan and their display names.
func (j *scanJob) universeFor(ctx context.Context) ([]string, map[string]string, error) {
	if len(j.tickers) > 0 {
		return j.tickers, nil, nil
	}
	cs, err := j.universe.Constituents(ctx)
	if err != nil {
		return nil, nil, err
	}
	return datasource.Symbols(cs), datasource.Names(cs), nil
}

func (j *scanJob) run(ctx context.Context) error {
	tickers, names, err := j.universeFor(ctx)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	sc := scanner.New(j.yahoo, scanner.Options{
		Workers:      cfg.Scanner.Workers,
		ShortWindow:  cfg.Technical.ShortWindow,
		LongWindow:   cfg.Technical.LongWindow,
		DailyPeriod:  models.Period(cfg.Scanner.DailyPeriod),
		HourlyPeriod: models.Period(cfg.Scanner.HourlyPeriod),
		Names:        names,
	}, logger, j.metrics)

	fmt.Printf("Scanning %d tickers with %d workers...\n", len(tickers), cfg.Scanner.Workers)
	res := sc.Scan(ctx, tickers)
	scanner.SortByMarketCap(res.Rows)

	loc, err := j.publisher.Publish(ctx, res.Table())
	if err != nil {
		return fmt.Errorf("publish results: %w", err)
	}

	if err := j.history.RecordScan(&recorder.Run{
		ID:       res.RunID,
		Started:  res.Started,
		Finished: res.Finished,
		Rows:     res.Rows,
		Failed:   len(res.Failed),
	}); err != nil {
		j.log.Warn().Err(err).Msg("record scan history")
	}

	if path := cfg.Scanner.MetricsTextfile; path != "" {
		if err := j.metrics.WriteToTextfile(path); err != nil {
			j.log.Warn().Err(err).Str("path", path).Msg("write metrics textfile")
		}
	}

	bullish := 0
	for _, r := range res.Rows {
		if r.Status == scanner.StatusBullish {
			bullish++
		}
	}
	fmt.Printf("Scan complete: %d rows (%d bullish), %d skipped, took %s\n",
		len(res.Rows), bullish, len(res.Failed), res.Finished.Sub(res.Started).Round(time.Second))
	switch loc.Target {
	case "sheets":
		fmt.Printf("Uploaded to Google Sheets: %s\n", loc.Path)
	case "backup":
		fmt.Printf("Upload failed; results saved to %s\n", loc.Path)
	default:
		fmt.Printf("Results saved to %s\n", loc.Path)
	}
	return nil
}

// runLogged is the scheduler form of run: errors are logged, not returned.
func (j *scanJob) runLogged(ctx context.Context) {
	if err := j.run(ctx); err != nil {
		j.log.Error().Err(err).Msg("scheduled scan failed")
	}
}

// --- Earnings Sync Command ---

var earningsSyncCmd = &cobra.Command{
	Use:   "earnings-sync [tickers...]",
	Short: "Add upcoming estimated earnings dates to Google Calendar",
	Long: `Fetch upcoming earnings dates for the configured tickers (or the tickers
given) and create one calendar event per date at 16:15 market time, with an
email reminder a day ahead and a popup an hour ahead. Events that already
exist are skipped, so the command is safe to re-run.

The first run opens an OAuth consent flow and caches the token in
calendar.token_file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tickers := utils.NormalizeTickers(args)
		if len(tickers) == 0 {
			tickers = utils.NormalizeTickers(cfg.Calendar.Tickers)
		}

		loc, err := time.LoadLocation(cfg.Calendar.Timezone)
		if err != nil {
			return fmt.Errorf("calendar timezone %q: %w", cfg.Calendar.Timezone, err)
		}

		client, err := earnings.AuthorizedClient(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile, os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		store := earnings.NewGoogleCalendar(client, cfg.Calendar.CalendarID, "")
		rep := earnings.NewSyncer(newBatchYahoo(), store, loc, cfg.Calendar.MaxEvents, logger).Sync(ctx, tickers)

		for _, ev := range rep.Created {
			fmt.Printf("  + %s  %s\n", ev.Start.Format("2006-01-02 15:04 MST"), ev.Summary)
		}
		for _, ev := range rep.Skipped {
			fmt.Printf("  = %s  %s (already in calendar)\n", ev.Start.Format("2006-01-02 15:04 MST"), ev.Summary)
		}
		for ticker, err := range rep.Failed {
			fmt.Printf("  ! %s: %v\n", ticker, err)
		}
		fmt.Printf("Earnings sync: %d created, %d skipped, %d tickers failed\n",
			len(rep.Created), len(rep.Skipped), len(rep.Failed))
		return nil
	},
}
