// Package cmd defines and implements the CLI commands for the wmscan executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/WakiJi/wmscan/internal/api"
	"github.com/WakiJi/wmscan/internal/budget"
	"github.com/WakiJi/wmscan/internal/checkpoint"
	"github.com/WakiJi/wmscan/internal/clock/system"
	"github.com/WakiJi/wmscan/internal/config"
	id "github.com/WakiJi/wmscan/internal/id/uuid"
	"github.com/WakiJi/wmscan/internal/logging"
	"github.com/WakiJi/wmscan/internal/probe"
	"github.com/WakiJi/wmscan/internal/progress"
	"github.com/WakiJi/wmscan/internal/progress/sinks"
	"github.com/WakiJi/wmscan/internal/scan"
	filesink "github.com/WakiJi/wmscan/internal/sink"
)

// newScanCmd creates and configures the 'scan' subcommand.
func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Probes the configured date/time grid for valid links",
		Long: `Expands the date range and per-day time window into candidate URLs
and probes them with a bounded worker pool. Valid links are written to the
output file; a run cut short by an interrupt or the time budget saves a
checkpoint so the next run resumes where this one stopped.`,
		RunE: runScanCommand,
	}

	flags := cmd.Flags()
	flags.String("base", "", "base identifier for generated file names (required)")
	flags.String("start_date", "", "first date to probe, YYYYMMDD (required)")
	flags.String("end_date", "", "last date to probe, YYYYMMDD (required)")
	flags.String("start_time", "000000", "first second of day to probe, HHMMSS")
	flags.String("end_time", "235959", "last second of day to probe, HHMMSS")
	flags.Int("workers", 50, "concurrent probe workers")
	flags.Int("timeout", 19800, "wall-clock budget in seconds (0 disables)")
	flags.String("resume-file", "progress.log", "checkpoint file path")
	flags.String("output", "valid_links.txt", "output file for discovered links")
	flags.String("status-addr", "", "listen address for the status server (empty disables)")

	return cmd
}

func runScanCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadScanConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, logger)
}

// loadScanConfig merges flags, environment, and the optional config file.
func loadScanConfig(cmd *cobra.Command) (config.Config, error) {
	v := viper.New()
	bindings := map[string]string{
		"scan.base":            "base",
		"scan.start_date":      "start_date",
		"scan.end_date":        "end_date",
		"scan.start_time":      "start_time",
		"scan.end_time":        "end_time",
		"scan.workers":         "workers",
		"scan.timeout_seconds": "timeout",
		"scan.resume_file":     "resume-file",
		"scan.output_file":     "output",
		"server.addr":          "status-addr",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return config.Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return config.Load(v, cfgFile)
}

func runScan(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	clk := system.New()

	runID, err := id.New().NewRawID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}

	dates, err := cfg.Dates()
	if err != nil {
		return err
	}
	window, err := cfg.Window()
	if err != nil {
		return err
	}
	gen := scan.NewGenerator(cfg.Scan.Base, dates, window)

	guard, err := budget.New(cfg.Budget(), checkpoint.NewStore(cfg.Scan.ResumeFile), clk, logger.Named("budget"))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	hub := progress.NewHub(
		progress.Config{BaseContext: context.Background(), Logger: logger.Named("progress_hub")},
		sinks.NewConsoleSink(os.Stdout, sinks.NoColorRequested()),
		sinks.NewLogSink(logger.Named("progress_log")),
		promSink,
	)

	prober := probe.NewClient(probe.Config{
		Timeout:     cfg.ProbeTimeout(),
		MaxAttempts: cfg.HTTP.MaxRetries,
		BackoffBase: cfg.BackoffInitial(),
		BackoffMax:  cfg.BackoffMax(),
		Pacing:      cfg.Pacing(),
		MaxRPS:      cfg.HTTP.MaxRPS,
		Workers:     cfg.Scan.Workers,
		UserAgent:   cfg.HTTP.UserAgent,
	}, logger.Named("probe"))

	state := scan.NewRunState(runID, clk.Now())
	runner := scan.NewRunner(
		scan.RunnerConfig{Endpoint: cfg.ProbeEndpoint(), Workers: cfg.Scan.Workers},
		gen,
		prober,
		guard,
		filesink.New(cfg.Scan.OutputFile, logger.Named("sink")),
		state,
		hub,
		clk,
		logger.Named("runner"),
	)

	if cfg.Server.Addr != "" {
		shutdown := startStatusServer(cfg.Server.Addr, runner, registry, logger.Named("api"))
		defer shutdown()
	}

	report, runErr := runner.Run(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hub.Close(closeCtx); err != nil {
		logger.Warn("progress hub close", zap.Error(err))
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("scan finished",
		zap.Bool("partial", report.Partial),
		zap.Int64("probes", report.Probes),
		zap.Int64("hits", report.Hits),
		zap.Int64("dates_done", report.DatesDone),
		zap.Duration("elapsed", report.Elapsed))
	return nil
}

func startStatusServer(addr string, source api.StatusSource, reg *prometheus.Registry, logger *zap.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(source, reg, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("status server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server failed", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("status server shutdown", zap.Error(err))
		}
	}
}
