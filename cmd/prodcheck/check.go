package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/nao1215/prodcheck/internal/config"
	"github.com/nao1215/prodcheck/internal/database"
	"github.com/nao1215/prodcheck/internal/log"
	"github.com/nao1215/prodcheck/internal/model"
	"github.com/nao1215/prodcheck/internal/pipeline"
	"github.com/nao1215/prodcheck/internal/report"
	"github.com/nao1215/prodcheck/internal/synthetic"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the live catalog and the synthetic data set",
		Long: `Check fetches the product list from the catalog API and validates every record:
- title must be present and not empty
- price must be present, numeric and not negative
- rating must be an object whose rate is numeric and between 0 and 5

The live pass is followed by a pass over a built-in data set with known
defects, which shows how each kind of defect is reported. Each pass prints
its progress and a test report and saves the detailed results as JSON.

Examples:
  # Check the default catalog
  prodcheck check

  # Check another endpoint with an API key
  prodcheck check --url https://api.example.com/products -H "X-Api-Key=secret"

  # Only run the live pass and write a Markdown report as well
  prodcheck check --skip-synthetic --markdown report.md

  # Validate 8 records at a time with styled output
  prodcheck check -n 8 --color`,
		Args: cobra.NoArgs,
		RunE: runCheckCmd,
	}

	addFetchFlags(cmd)
	addStorageFlags(cmd)

	cmd.Flags().StringP("output", "o", report.DefaultLiveOutput,
		"Results file of the live pass")
	cmd.Flags().String("synthetic-output", report.DefaultSyntheticOutput,
		"Results file of the synthetic pass")
	cmd.Flags().StringP("markdown", "m", "",
		"Also write a Markdown report to this path")
	cmd.Flags().Bool("skip-live", false,
		"Do not check the live catalog")
	cmd.Flags().Bool("skip-synthetic", false,
		"Do not check the synthetic data set")
	cmd.Flags().Bool("color", false,
		"Enable styled console output")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCheck(ctx, cfg, cmd.OutOrStdout(), logger)
}

// runCheck executes the enabled passes in order: live, then synthetic.
func runCheck(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	db := openHistory(cfg, logger)
	if db != nil {
		defer db.Close()
	}

	both := !cfg.SkipLive && !cfg.SkipSynthetic

	if !cfg.SkipLive {
		f, err := newFetcher(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create catalog client: %w", err)
		}

		fmt.Fprintln(out, "Testing ACTUAL API...")
		p := pipeline.LivePipeline(f, cfg.URL, pipelineOptions(logger),
			pipeline.WithPipelineConcurrency(cfg.Concurrency))
		run, err := p.Run(ctx, model.RunKindLive, cfg.URL)
		if err != nil {
			return fmt.Errorf("live check interrupted: %w", err)
		}
		if err := finishRun(ctx, cfg, out, run, db, both, logger); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nDetailed results saved to '%s'\n", cfg.Output)
	}

	if !cfg.SkipSynthetic {
		if !cfg.SkipLive {
			fmt.Fprint(out, "\n\n")
		}
		fmt.Fprintln(out, "Testing with SYNTHETIC DATA containing defects...")
		p := pipeline.SyntheticPipeline(pipelineOptions(logger),
			pipeline.WithPipelineConcurrency(cfg.Concurrency))
		run, err := p.Run(ctx, model.RunKindSynthetic, synthetic.Source)
		if err != nil {
			return fmt.Errorf("synthetic check interrupted: %w", err)
		}
		if err := finishRun(ctx, cfg, out, run, db, both, logger); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nSynthetic test results saved to '%s'\n", cfg.SyntheticOutput)
	}

	return nil
}

func pipelineOptions(logger *slog.Logger) []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	}
}

// finishRun prints run, saves its results file and optional Markdown
// report, and stores it in the history. Only a failure to write a report
// file is returned.
func finishRun(ctx context.Context, cfg *config.Config, out io.Writer, run *model.Run, db *database.RunDB, both bool, logger *slog.Logger) error {
	if _, err := report.NewSimpleWriter(out, report.WithStyle(cfg.Color)).Write(run); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}

	path := cfg.Output
	if run.Kind == model.RunKindSynthetic {
		path = cfg.SyntheticOutput
	}
	if err := report.SaveFile(path, run); err != nil {
		return err
	}

	if cfg.MarkdownFile != "" {
		mdPath := cfg.MarkdownFile
		if both {
			mdPath = markdownPathFor(cfg.MarkdownFile, run.Kind)
		}
		if err := writeMarkdown(mdPath, run); err != nil {
			return err
		}
	}

	saveRun(ctx, db, run, logger)
	return nil
}

// markdownPathFor inserts the run kind before the extension of path:
// report.md becomes report-live.md.
func markdownPathFor(path string, kind model.RunKind) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + string(kind) + ext
}

// writeMarkdown writes the Markdown report of run to path with owner-only
// permissions.
func writeMarkdown(path string, run *model.Run) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create markdown report: %w", err)
	}

	_, werr := report.NewMarkdownWriter(f).Write(run)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}

// openHistory opens the history database when saving is enabled.
// A database that cannot be opened is logged and skipped.
func openHistory(cfg *config.Config, logger *slog.Logger) *database.RunDB {
	if !cfg.SaveToDB {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("history database unavailable, runs will not be saved",
			"dir", cfg.DBDir,
			"error", err,
		)
		return nil
	}

	logger.Debug("database opened", "path", db.Path())
	return db
}

// saveRun stores run in the history database if one is open.
func saveRun(ctx context.Context, db *database.RunDB, run *model.Run, logger *slog.Logger) {
	if db == nil {
		return
	}

	if err := db.SaveRun(ctx, run); err != nil {
		logger.Warn("failed to save run", "run", run.ID, "kind", run.Kind, "error", err)
		return
	}

	logger.Info("run saved to database", "run", run.ID, "kind", run.Kind)
}
