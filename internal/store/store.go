// Package store persists run history in MySQL.
//
// Each run writes one row to the runs table carrying the full JSON report,
// plus one row per analyzer to the companion <table>_analyzers table. Writes
// for a project are serialized with an advisory lock so concurrent runs
// against the same tree cannot interleave their analyzer rows.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dbsmedya/assetprof/internal/lock"
	"github.com/dbsmedya/assetprof/internal/logger"
	"github.com/dbsmedya/assetprof/internal/orchestrator"
	"github.com/dbsmedya/assetprof/internal/report"
	"github.com/dbsmedya/assetprof/internal/sqlutil"
)

// AnalyzerStatus is the outcome recorded for one analyzer in a run.
type AnalyzerStatus string

const (
	StatusSucceeded AnalyzerStatus = "succeeded"
	StatusFailed    AnalyzerStatus = "failed"
)

// ErrRunNotFound is returned by LoadReport for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	run_id CHAR(36) PRIMARY KEY,
	project_path VARCHAR(1024) NOT NULL,
	started_at DATETIME(6) NOT NULL,
	duration_seconds DOUBLE NOT NULL,
	analyzers_run INT NOT NULL,
	analyzers_failed INT NOT NULL,
	report JSON NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_project_started (project_path(255), started_at)
) ENGINE=InnoDB;
`

const createAnalyzersTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	run_id CHAR(36) NOT NULL,
	analyzer VARCHAR(64) NOT NULL,
	status VARCHAR(20) NOT NULL,
	stage VARCHAR(20),
	error_message TEXT,
	UNIQUE KEY uk_run_analyzer (run_id, analyzer),
	FOREIGN KEY (run_id) REFERENCES %s(run_id) ON DELETE CASCADE
) ENGINE=InnoDB;
`

// Run is one row of run history.
type Run struct {
	RunID           string
	ProjectPath     string
	StartedAt       time.Time
	DurationSeconds float64
	AnalyzersRun    int
	AnalyzersFailed int
}

// AnalyzerRun is the per-analyzer row of a run.
type AnalyzerRun struct {
	Analyzer     string
	Status       AnalyzerStatus
	Stage        string
	ErrorMessage string
}

// Store reads and writes run history.
type Store struct {
	db             *sql.DB
	runsTable      string
	analyzersTable string
	lockTimeout    int
	log            *logger.Logger
}

// New creates a store over db using the given runs table name. The
// companion analyzer table is named <table>_analyzers.
func New(db *sql.DB, table string, log *logger.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	runs, err := sqlutil.QuoteIdentifierSafe(table)
	if err != nil {
		return nil, fmt.Errorf("runs table: %w", err)
	}
	analyzers, err := sqlutil.QuoteIdentifierSafe(table + "_analyzers")
	if err != nil {
		return nil, fmt.Errorf("analyzers table: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{
		db:             db,
		runsTable:      runs,
		analyzersTable: analyzers,
		lockTimeout:    lock.TimeoutMedium,
		log:            log,
	}, nil
}

// InitializeTables creates the history tables if they don't exist.
func (s *Store) InitializeTables(ctx context.Context) error {
	s.log.Debug("Initializing run history tables")

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createRunsTableSQL, s.runsTable)); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createAnalyzersTableSQL, s.analyzersTable, s.runsTable)); err != nil {
		return fmt.Errorf("failed to create analyzers table: %w", err)
	}

	s.log.Info("Run history tables initialized")
	return nil
}

// SaveRun stores a finished report. The run row and its analyzer rows are
// written in one transaction while holding the project's advisory lock.
func (s *Store) SaveRun(ctx context.Context, r *orchestrator.Report) error {
	if r == nil || r.Summary.RunID == "" {
		return fmt.Errorf("report has no run ID")
	}

	payload, err := report.Marshal(r, report.FormatJSON)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	// GET_LOCK is session scoped, so the lock and the writes share one connection.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	projectLock := lock.NewProjectLock(conn, r.Summary.ProjectPath)
	err = projectLock.WithLock(ctx, s.lockTimeout, func() error {
		return s.insertRun(ctx, conn, r, payload)
	})
	if err != nil {
		return err
	}

	s.log.Infow("Run saved",
		"run_id", r.Summary.RunID,
		"project", r.Summary.ProjectPath,
		"lock", projectLock.LockName(),
	)
	return nil
}

func (s *Store) insertRun(ctx context.Context, conn *sql.Conn, r *orchestrator.Report, payload []byte) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sum := r.Summary
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (run_id, project_path, started_at, duration_seconds, analyzers_run, analyzers_failed, report) VALUES (?, ?, ?, ?, ?, ?, ?)`, s.runsTable),
		sum.RunID, sum.ProjectPath, sum.StartedAt.UTC(), sum.DurationSeconds,
		sum.AnalyzersRun, sum.AnalyzersFailed, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", sum.RunID, err)
	}

	insertAnalyzer := fmt.Sprintf(`INSERT INTO %s (run_id, analyzer, status, stage, error_message) VALUES (?, ?, ?, ?, ?)`, s.analyzersTable)
	for _, row := range analyzerRuns(r) {
		var stage, message sql.NullString
		if row.Status == StatusFailed {
			stage = sql.NullString{String: row.Stage, Valid: true}
			message = sql.NullString{String: row.ErrorMessage, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, insertAnalyzer, sum.RunID, row.Analyzer, string(row.Status), stage, message); err != nil {
			return fmt.Errorf("failed to insert analyzer %s: %w", row.Analyzer, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", sum.RunID, err)
	}
	return nil
}

// analyzerRuns flattens a report into per-analyzer rows in run order.
func analyzerRuns(r *orchestrator.Report) []AnalyzerRun {
	names := r.AnalyzerNames()
	rows := make([]AnalyzerRun, 0, len(names))
	for _, name := range names {
		if f, ok := r.Failure(name); ok {
			msg := ""
			if f.Err != nil {
				msg = f.Err.Error()
			}
			rows = append(rows, AnalyzerRun{
				Analyzer:     name,
				Status:       StatusFailed,
				Stage:        f.Stage,
				ErrorMessage: msg,
			})
			continue
		}
		rows = append(rows, AnalyzerRun{Analyzer: name, Status: StatusSucceeded})
	}
	return rows
}

// RecentRuns returns up to limit runs for a project, newest first. An
// empty project lists runs for every project.
func (s *Store) RecentRuns(ctx context.Context, projectPath string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`SELECT run_id, project_path, started_at, duration_seconds, analyzers_run, analyzers_failed FROM %s`, s.runsTable)
	args := []any{}
	if projectPath != "" {
		query += ` WHERE project_path = ?`
		args = append(args, projectPath)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.RunID, &run.ProjectPath, &run.StartedAt, &run.DurationSeconds,
			&run.AnalyzersRun, &run.AnalyzersFailed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// AnalyzerRuns returns the per-analyzer rows of a run in insertion order.
func (s *Store) AnalyzerRuns(ctx context.Context, runID string) ([]AnalyzerRun, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT analyzer, status, stage, error_message FROM %s WHERE run_id = ? ORDER BY id`, s.analyzersTable),
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyzers for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []AnalyzerRun
	for rows.Next() {
		var (
			row            AnalyzerRun
			status         string
			stage, message sql.NullString
		)
		if err := rows.Scan(&row.Analyzer, &status, &stage, &message); err != nil {
			return nil, fmt.Errorf("failed to scan analyzer row: %w", err)
		}
		row.Status = AnalyzerStatus(status)
		row.Stage = stage.String
		row.ErrorMessage = message.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read analyzer rows: %w", err)
	}
	return out, nil
}

// LoadReport returns the stored JSON report for a run.
func (s *Store) LoadReport(ctx context.Context, runID string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT report FROM %s WHERE run_id = ?`, s.runsTable),
		runID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", runID, err)
	}
	return payload, nil
}
