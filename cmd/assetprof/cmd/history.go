package cmd

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/assetprof/internal/logger"
	"github.com/dbsmedya/assetprof/internal/store"
)

var (
	historyLimit  int
	historyAll    bool
	historyRun    string
	historyReport bool
)

var historyCmd = &cobra.Command{
	Use:   "history [project-path]",
	Short: "List saved runs from the history store",
	Long: `History lists previous runs of a project, newest first, from the MySQL
run-history store. Use --run to show the per-analyzer outcome of one run and
--report to print its stored JSON report.

Example:
  assetprof history ./game --limit 5
  assetprof history --all
  assetprof history --run 3f1c2b7a-... --report`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10,
		"Maximum number of runs to list")
	historyCmd.Flags().BoolVar(&historyAll, "all", false,
		"List runs of every project")
	historyCmd.Flags().StringVar(&historyRun, "run", "",
		"Show a single run by ID")
	historyCmd.Flags().BoolVar(&historyReport, "report", false,
		"With --run, print the stored JSON report")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	project := cfg.Project.Path
	if len(args) > 0 {
		project = args[0]
	}
	if historyAll {
		project = ""
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx := commandContext(cmd)
	s, dbManager, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer dbManager.Close()

	if historyRun != "" {
		return showRun(cmd, s, historyRun)
	}

	runs, err := s.RecentRuns(ctx, project, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		if project == "" {
			fmt.Fprintln(outputWriter, "No runs recorded")
		} else {
			fmt.Fprintf(outputWriter, "No runs recorded for %s\n", project)
		}
		return nil
	}

	width := 0
	for _, run := range runs {
		if w := runewidth.StringWidth(run.ProjectPath); w > width {
			width = w
		}
	}

	for _, run := range runs {
		status := "OK"
		if run.AnalyzersFailed > 0 {
			status = fmt.Sprintf("%d FAILED", run.AnalyzersFailed)
		}
		fmt.Fprintf(outputWriter, "%s  %s  %s  %6.2fs  %d run  %s\n",
			run.RunID,
			run.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			runewidth.FillRight(run.ProjectPath, width),
			run.DurationSeconds,
			run.AnalyzersRun,
			status,
		)
	}
	fmt.Fprintf(outputWriter, "\nTotal: %d run(s)\n", len(runs))
	return nil
}

func showRun(cmd *cobra.Command, s *store.Store, runID string) error {
	ctx := commandContext(cmd)

	if historyReport {
		payload, err := s.LoadReport(ctx, runID)
		if err != nil {
			return err
		}
		fmt.Fprintln(outputWriter, string(payload))
		return nil
	}

	rows, err := s.AnalyzerRuns(ctx, runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
	}

	fmt.Fprintf(outputWriter, "Run %s:\n", runID)
	for _, row := range rows {
		if row.Status == store.StatusFailed {
			fmt.Fprintf(outputWriter, "  %-10s FAILED during %s: %s\n", row.Analyzer, row.Stage, row.ErrorMessage)
			continue
		}
		fmt.Fprintf(outputWriter, "  %-10s OK\n", row.Analyzer)
	}
	return nil
}
