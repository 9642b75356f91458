package main

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/seenimoa/equitylens/api"
	"github.com/seenimoa/equitylens/internal/llm"
	"github.com/seenimoa/equitylens/internal/scanner"
	"github.com/seenimoa/equitylens/internal/scheduler"
)

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP API server",
	Long: `Start the dashboard JSON API. With --scan and a scanner.schedule the
golden cross scan also runs in the background and its metrics are served at
/metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		port := cfg.API.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		api.Version = version

		metrics := scanner.NewMetrics()
		opts := []api.Option{
			api.WithGatherer(prometheus.Gatherers{metrics.Registry, prometheus.DefaultGatherer}),
		}

		newsAnalyst, err := newNewsAnalyst(ctx)
		switch {
		case err == nil:
			opts = append(opts, api.WithNewsAnalyst(newsAnalyst))
		case errors.Is(err, llm.ErrNoAPIKey):
			logger.Info().Msg("no Gemini API key, news summaries disabled")
		default:
			logger.Warn().Err(err).Msg("gemini unavailable, news summaries disabled")
		}

		job, err := newScanJob(ctx, nil, metrics)
		if err != nil {
			return err
		}
		defer job.close()
		opts = append(opts, api.WithRecorder(job.history))

		if withScan, _ := cmd.Flags().GetBool("scan"); withScan {
			if cfg.Scanner.Schedule == "" {
				return errors.New("--scan needs scanner.schedule in the config")
			}
			s := scheduler.New(ctx, logger)
			if err := s.Register("golden-cross-scan", cfg.Scanner.Schedule, job.runLogged); err != nil {
				return err
			}
			go s.Run(ctx)
		}

		srv := api.NewServer(cfg, newAnalyzer(job.yahoo), logger, opts...)
		fmt.Printf("🌐 Starting equitylens API server on %s:%d\n", cfg.API.Host, port)
		return srv.ListenAndServe(ctx, fmt.Sprintf("%s:%d", cfg.API.Host, port))
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
	serveCmd.Flags().Bool("scan", false, "also run the scheduled golden cross scan")
}
