package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gookit/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/assetprof/internal/analyzer"
	"github.com/dbsmedya/assetprof/internal/config"
	"github.com/dbsmedya/assetprof/internal/database"
	"github.com/dbsmedya/assetprof/internal/logger"
	"github.com/dbsmedya/assetprof/internal/orchestrator"
	"github.com/dbsmedya/assetprof/internal/report"
	"github.com/dbsmedya/assetprof/internal/watch"
)

var (
	analyzeMetricsFile string
	analyzeNoColor     bool
	analyzeNoStore     bool
	analyzeWatch       bool
	analyzeDebounceMS  int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [project-path]",
	Short: "Run every enabled analyzer against a project",
	Long: `Analyze scans the project with every enabled analyzer concurrently and
prints a summary of the results.

Each analyzer looks in <project-path>/<analyzer> when that directory exists
and in <project-path> otherwise. A failing analyzer does not stop the others;
its error is recorded in the report and the command exits non-zero.

The full report is written to --output when set, the Prometheus metrics to
--metrics-file, and the run is saved to the history store when enabled.
With --watch the command keeps running and re-analyzes after each change.

Example:
  assetprof analyze ./game --output report.json
  assetprof analyze --config assetprof.yaml --timeout 30 --format yaml -o report.yaml
  assetprof analyze ./game --watch --no-store`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeMetricsFile, "metrics-file", "",
		"Write Prometheus metrics to this textfile")
	analyzeCmd.Flags().BoolVar(&analyzeNoColor, "no-color", false,
		"Disable colored summary output")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false,
		"Do not save the run to the history store even if enabled")
	analyzeCmd.Flags().BoolVar(&analyzeWatch, "watch", false,
		"Keep running and re-analyze whenever project files change")
	analyzeCmd.Flags().IntVar(&analyzeDebounceMS, "debounce", 500,
		"Milliseconds to wait for changes to settle in --watch mode")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Project.Path = args[0]
	}
	if analyzeMetricsFile != "" {
		cfg.Report.MetricsFile = analyzeMetricsFile
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := database.SetupSignalHandler(commandContext(cmd), func(sig os.Signal) {
		log.Warnw("Received shutdown signal - abandoning unfinished analyzers", "signal", sig.String())
	})
	defer cancel()

	metrics := orchestrator.NewMetrics()
	r, err := analyzeOnce(ctx, cfg, log, metrics)
	if err != nil {
		return err
	}

	if analyzeWatch {
		return watchProject(ctx, cfg, log, metrics)
	}

	if r.Failed() {
		return fmt.Errorf("%d of %d analyzer(s) failed", r.Summary.AnalyzersFailed,
			r.Summary.AnalyzersRun+r.Summary.AnalyzersFailed)
	}
	return nil
}

// analyzeOnce runs every analyzer and writes the configured outputs.
// Metrics accumulate across calls.
func analyzeOnce(ctx context.Context, cfg *config.Config, log *logger.Logger, metrics *orchestrator.Metrics) (*orchestrator.Report, error) {
	orch, err := buildOrchestrator(cfg, log, metrics)
	if err != nil {
		return nil, err
	}

	log.Infow("Starting analysis",
		"project", cfg.Project.Path,
		"analyzers", orch.Names(),
		"config", GetConfigFile(),
	)

	r, err := orch.Run(ctx, cfg.Project.Path)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	report.PrintSummary(outputWriter, r, useColor())

	if cfg.Report.Output != "" {
		if err := report.WriteFile(cfg.Report.Output, r, cfg.Report.Format); err != nil {
			return nil, err
		}
		log.Infow("Report written", "path", cfg.Report.Output, "format", cfg.Report.Format)
	}

	if cfg.Report.MetricsFile != "" {
		if err := metrics.WriteToTextfile(cfg.Report.MetricsFile); err != nil {
			return nil, fmt.Errorf("failed to write metrics: %w", err)
		}
		log.Infow("Metrics written", "path", cfg.Report.MetricsFile)
	}

	if cfg.Store.Enabled && !analyzeNoStore {
		if err := saveRun(ctx, cfg, log, r); err != nil {
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
	}
	return r, nil
}

// watchProject re-runs the analysis after each settled batch of changes
// until ctx is cancelled. Failed runs are reported and watching continues.
func watchProject(ctx context.Context, cfg *config.Config, log *logger.Logger, metrics *orchestrator.Metrics) error {
	debounce := time.Duration(analyzeDebounceMS) * time.Millisecond
	w, err := watch.New(cfg.Project.Path, debounce, log)
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintf(outputWriter, "Watching %s for changes (Ctrl+C to stop)\n", cfg.Project.Path)
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		log.Infow("Project changed, re-running analysis", "files", len(changed))
		r, err := analyzeOnce(ctx, cfg, log, metrics)
		if err != nil {
			return err
		}
		if r.Failed() {
			log.Warnw("Analysis finished with failures", "failed", r.Summary.AnalyzersFailed)
		}
		return nil
	})
}

// buildOrchestrator registers every enabled analyzer in configured order.
func buildOrchestrator(cfg *config.Config, log *logger.Logger, metrics *orchestrator.Metrics) (*orchestrator.Orchestrator, error) {
	tasks, err := analyzer.FromConfig(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzers: %w", err)
	}

	timeout := time.Duration(cfg.Orchestrator.TimeoutSeconds * float64(time.Second))
	orch := orchestrator.New(
		orchestrator.WithWorkers(cfg.Orchestrator.Workers),
		orchestrator.WithTimeout(timeout),
		orchestrator.WithLogger(log),
		orchestrator.WithMetrics(metrics),
	)
	for _, task := range tasks {
		if err := orch.Register(task); err != nil {
			return nil, err
		}
	}
	return orch, nil
}

// saveTimeout bounds the history write once analysis has finished.
const saveTimeout = 30 * time.Second

// saveRun persists the report. A shutdown signal abandons analyzers but
// must not lose the partial report, so the save ignores ctx cancellation
// and runs under its own timeout.
func saveRun(ctx context.Context, cfg *config.Config, log *logger.Logger, r *orchestrator.Report) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	s, dbManager, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer dbManager.Close()
	return s.SaveRun(ctx, r)
}

// commandContext returns the command's context, which is nil when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func useColor() bool {
	if analyzeNoColor || outputWriter != os.Stdout {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) && color.SupportColor()
}
