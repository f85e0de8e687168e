// Package history records patch runs in a local SQLite database so drift
// and repeated failures can be inspected after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leappatch/pkg/patch"
	_ "modernc.org/sqlite"
)

// DefaultPath is where the CLI keeps its history database.
const DefaultPath = ".leappatch/history.db"

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded engine run.
type Run struct {
	ID           string    `json:"id"`
	Target       string    `json:"target"`
	Plan         string    `json:"plan,omitempty"`
	Encoding     string    `json:"encoding,omitempty"`
	State        string    `json:"state"`
	DryRun       bool      `json:"dry_run"`
	Changed      bool      `json:"changed"`
	Written      bool      `json:"written"`
	Applied      int       `json:"applied"`
	NotFound     int       `json:"not_found"`
	Skipped      int       `json:"skipped"`
	DigestBefore string    `json:"digest_before,omitempty"`
	DigestAfter  string    `json:"digest_after,omitempty"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Duration is the wall time of the run.
func (r *Run) Duration() time.Duration { return r.CompletedAt.Sub(r.StartedAt) }

// RuleOutcome is a persisted patch.Outcome.
type RuleOutcome struct {
	RunID      string `json:"-"`
	Position   int    `json:"position"`
	Rule       string `json:"rule"`
	Kind       string `json:"kind"`
	Stage      string `json:"stage"`
	Status     string `json:"status"`
	Count      int    `json:"count"`
	Candidates int    `json:"candidates"`
}

// Store persists runs.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	s := NewWithDB(db, logger)
	s.path = path
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection. The schema is not migrated.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, logger: logger}
}

// Path returns the database file, empty for wrapped connections.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// FromReport converts an engine report into a run and its outcomes.
// runErr is the error Run returned, if any.
func FromReport(report *patch.Report, planPath string, started time.Time, runErr error) (*Run, []RuleOutcome) {
	run := &Run{
		ID:           uuid.NewString(),
		Target:       report.Target,
		Plan:         planPath,
		Encoding:     report.Encoding,
		State:        string(report.State),
		DryRun:       report.DryRun,
		Changed:      report.Changed,
		Written:      report.Written,
		Applied:      report.Count(patch.StatusApplied),
		NotFound:     report.Count(patch.StatusNotFound),
		Skipped:      report.Count(patch.StatusSkippedGuarded),
		DigestBefore: report.DigestBefore,
		DigestAfter:  report.DigestAfter,
		StartedAt:    started.UTC(),
		CompletedAt:  time.Now().UTC(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	outcomes := make([]RuleOutcome, 0, len(report.Outcomes))
	for i, o := range report.Outcomes {
		outcomes = append(outcomes, RuleOutcome{
			RunID:      run.ID,
			Position:   i,
			Rule:       o.Rule,
			Kind:       string(o.Kind),
			Stage:      string(o.Stage),
			Status:     string(o.Status),
			Count:      o.Count,
			Candidates: o.Candidates,
		})
	}
	return run, outcomes
}

// Record stores a run and its outcomes in one transaction.
func (s *Store) Record(ctx context.Context, run *Run, outcomes []RuleOutcome) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var errMsg *string
	if run.Error != "" {
		errMsg = &run.Error
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, target, plan, encoding, state, dry_run, changed, written,
		                   applied, not_found, skipped, digest_before, digest_after, error,
		                   started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Target, run.Plan, run.Encoding, run.State, run.DryRun, run.Changed, run.Written,
		run.Applied, run.NotFound, run.Skipped, run.DigestBefore, run.DigestAfter, errMsg,
		run.StartedAt.UTC().Format(timeFormat), run.CompletedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record run: %w", err)
	}

	for _, o := range outcomes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO rule_outcomes (run_id, position, rule, kind, stage, status, count, candidates)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, o.Position, o.Rule, o.Kind, o.Stage, o.Status, o.Count, o.Candidates,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record outcome %q: %w", o.Rule, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	s.logger.Debug("recorded run",
		slog.String("id", run.ID),
		slog.String("target", run.Target),
		slog.String("state", run.State),
		slog.Int("outcomes", len(outcomes)))
	return nil
}

// Recent returns up to limit runs, newest first. An empty target matches
// every artifact.
func (s *Store) Recent(ctx context.Context, target string, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, target, plan, encoding, state, dry_run, changed, written,
	                 applied, not_found, skipped, digest_before, digest_after, error,
	                 started_at, completed_at
	          FROM runs`
	args := []any{}
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Outcomes returns the rule outcomes of a run in execution order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]RuleOutcome, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, position, rule, kind, stage, status, count, candidates
		 FROM rule_outcomes WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	defer rows.Close()

	var out []RuleOutcome
	for rows.Next() {
		var o RuleOutcome
		if err := rows.Scan(&o.RunID, &o.Position, &o.Rule, &o.Kind, &o.Stage, &o.Status, &o.Count, &o.Candidates); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	return out, nil
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var (
		run                Run
		errMsg             sql.NullString
		started, completed string
	)
	if err := rows.Scan(&run.ID, &run.Target, &run.Plan, &run.Encoding, &run.State,
		&run.DryRun, &run.Changed, &run.Written,
		&run.Applied, &run.NotFound, &run.Skipped,
		&run.DigestBefore, &run.DigestAfter, &errMsg,
		&started, &completed); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	var err error
	if run.StartedAt, err = time.Parse(timeFormat, started); err != nil {
		return nil, fmt.Errorf("run %s: bad started_at: %w", run.ID, err)
	}
	if run.CompletedAt, err = time.Parse(timeFormat, completed); err != nil {
		return nil, fmt.Errorf("run %s: bad completed_at: %w", run.ID, err)
	}
	return &run, nil
}
