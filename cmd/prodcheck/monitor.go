package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/prodcheck/internal/config"
	"github.com/nao1215/prodcheck/internal/log"
	"github.com/nao1215/prodcheck/internal/metrics"
	"github.com/nao1215/prodcheck/internal/model"
	"github.com/nao1215/prodcheck/internal/monitor"
	"github.com/nao1215/prodcheck/internal/pipeline"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds the graceful shutdown of the metrics server.
const shutdownTimeout = 5 * time.Second

// NewMonitorCmd creates the monitor command.
func NewMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Check the live catalog on a schedule",
		Long: `Monitor repeats the live check on a cron schedule until interrupted.

Every run is saved to the history database and recorded as Prometheus
metrics, served on --metrics-addr at /metrics. Old runs beyond --keep are
pruned after each save. One summary line is printed per run.

Schedules use standard cron syntax or descriptors:
  "*/15 * * * *"   every 15 minutes
  "0 3 * * *"      daily at 3 AM
  "@every 30m"     every 30 minutes

Examples:
  # Check every 15 minutes and expose metrics on :9464
  prodcheck monitor --schedule "*/15 * * * *"

  # Log as JSON for aggregation, without metrics
  prodcheck monitor --log-json --metrics-addr ""`,
		Args: cobra.NoArgs,
		RunE: runMonitorCmd,
	}

	addFetchFlags(cmd)
	addStorageFlags(cmd)

	cmd.Flags().StringP("schedule", "s", config.DefaultSchedule,
		"Cron expression or descriptor of the check schedule")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr,
		"Listen address of the Prometheus metrics endpoint (empty disables it)")
	cmd.Flags().Int("keep", config.DefaultKeepRuns,
		"Number of live runs kept in the history (0 keeps all)")
	cmd.Flags().Bool("run-now", true,
		"Run a check immediately instead of waiting for the first scheduled time")
	cmd.Flags().Bool("log-json", false,
		"Write logs in JSON format")

	return cmd
}

// runMonitorCmd executes the monitor command.
func runMonitorCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateMonitor(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	runNow, err := cmd.Flags().GetBool("run-now")
	if err != nil {
		return err
	}
	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return err
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if logJSON {
		logger = log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runMonitor(ctx, cfg, cmd.OutOrStdout(), logger, runNow)
}

// runMonitor schedules live checks and serves metrics until ctx is done.
func runMonitor(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger, runNow bool) error {
	f, err := newFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create catalog client: %w", err)
	}

	p := pipeline.LivePipeline(f, cfg.URL, pipelineOptions(logger),
		pipeline.WithPipelineConcurrency(cfg.Concurrency))
	runFunc := func(ctx context.Context) (*model.Run, error) {
		return p.Run(ctx, model.RunKindLive, cfg.URL)
	}

	collector := metrics.NewCollector(nil)
	opts := []monitor.Option{
		monitor.WithCollector(collector),
		monitor.WithKeep(cfg.KeepRuns),
		monitor.WithLogger(logger),
		monitor.WithObserver(func(run *model.Run) {
			printRunLine(out, run)
		}),
	}

	db := openHistory(cfg, logger)
	if db != nil {
		defer db.Close()
		opts = append(opts, monitor.WithStore(db))
	}

	m := monitor.New(cfg.Schedule, runFunc, opts...)

	errCh := make(chan error, 1)
	var srv *http.Server
	if cfg.MetricsAddr != "" {
		srv = newMetricsServer(cfg.MetricsAddr, collector)
		go func() {
			logger.Info("serving metrics", "address", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	if runNow {
		if _, err := m.RunOnce(ctx); err != nil {
			logger.Error("initial run failed", "error", err)
		}
	}

	if err := m.Start(ctx); err != nil {
		shutdownMetrics(srv, logger)
		return err
	}

	fmt.Fprintf(out, "Monitoring %s on schedule %q", cfg.URL, cfg.Schedule)
	if next := m.NextRun(); next != nil {
		fmt.Fprintf(out, " (next run: %s)", next.Format(time.RFC3339))
	}
	fmt.Fprintln(out)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down monitor")
	case runErr = <-errCh:
	}

	m.Stop()
	shutdownMetrics(srv, logger)
	return runErr
}

// newMetricsServer creates the HTTP server of the metrics endpoint.
func newMetricsServer(addr string, collector *metrics.Collector) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok\n") //nolint:errcheck // Best effort health response
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// shutdownMetrics gracefully stops srv if it was started.
func shutdownMetrics(srv *http.Server, logger *slog.Logger) {
	if srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down metrics server", "error", err)
	}
}

// printRunLine prints a one-line summary of a monitored run.
func printRunLine(out io.Writer, run *model.Run) {
	r := run.Report
	if r == nil {
		r = model.GenerateReport(run.Defects, len(run.Records))
	}

	verdict := "OK"
	switch {
	case run.Error != "":
		verdict = "ERROR"
	case r.TotalDefects > 0:
		verdict = "DEFECTS FOUND"
	}

	fmt.Fprintf(out, "%s  status %d  products %d  defects %d  %s\n",
		run.StartedAt.Format(time.RFC3339),
		run.StatusCode,
		r.TotalProducts,
		r.TotalDefects,
		verdict,
	)
}
