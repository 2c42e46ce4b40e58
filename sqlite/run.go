package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"
)

// Compile-time interface verification.
var _ harvest.RunLedger = (*RunService)(nil)

const runColumns = `id, mode, output_dir, started_at, finished_at,
	total, successful, failed, skipped, new, interrupted`

const outcomeColumns = `category_name, category_dir, sub_item_name, module_name, source_url,
	success, skipped, error_code, error_message, artifact_path,
	content_length, bytes, tokens, warning`

// RunService implements harvest.RunLedger using SQLite.
type RunService struct {
	db *DB

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db, Now: time.Now}
}

// CreateRun stores a new run. A missing ID is generated and a zero start
// time is set to now.
func (s *RunService) CreateRun(ctx context.Context, run *harvest.Run) error {
	if run.Mode == "" {
		return harvest.Errorf(harvest.EINVALID, "run mode required")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, mode, output_dir, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Mode, run.OutputDir, formatTime(run.StartedAt))
	if errors.Is(err, sqlite3.CONSTRAINT) {
		return harvest.Errorf(harvest.ECONFLICT, "run %s already exists", run.ID)
	}
	return err
}

// RecordOutcome appends the outcome of one job to a run.
func (s *RunService) RecordOutcome(ctx context.Context, runID string, o harvest.JobOutcome) error {
	if err := s.ensureRun(ctx, runID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, position, `+outcomeColumns+`)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM outcomes WHERE run_id = ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, runID,
		o.CategoryName, o.CategoryDir, o.SubItemName, o.ModuleName, o.SourceURL,
		boolInt(o.Success), boolInt(o.Skipped), o.Code, o.Error, o.ArtifactPath,
		o.ContentLength, o.Bytes, o.Tokens, o.Warning)
	return err
}

// FinishRun stores the final statistics of a run. A zero finish time is
// set to now.
func (s *RunService) FinishRun(ctx context.Context, run *harvest.Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = s.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, total = ?, successful = ?, failed = ?, skipped = ?, new = ?, interrupted = ?
		WHERE id = ?
	`, formatTime(run.FinishedAt), run.Stats.Total, run.Stats.Successful, run.Stats.Failed,
		run.Stats.Skipped, run.Stats.New, boolInt(run.Interrupted), run.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return harvest.Errorf(harvest.ENOTFOUND, "run not found")
	}
	return nil
}

// FindRunByID retrieves a run by ID.
func (s *RunService) FindRunByID(ctx context.Context, id string) (*harvest.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "run not found")
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// FindRuns retrieves runs matching the filter, newest first.
func (s *RunService) FindRuns(ctx context.Context, filter harvest.RunFilter) ([]*harvest.Run, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT ` + runColumns + ` FROM runs WHERE 1=1`)
	if filter.Mode != nil {
		query.WriteString(" AND mode = ?")
		args = append(args, *filter.Mode)
	}
	query.WriteString(" ORDER BY started_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*harvest.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindOutcomes retrieves the outcomes of a run in the order they were
// recorded.
func (s *RunService) FindOutcomes(ctx context.Context, filter harvest.OutcomeFilter) ([]harvest.JobOutcome, error) {
	if filter.RunID == "" {
		return nil, harvest.Errorf(harvest.EINVALID, "run ID required")
	}
	if err := s.ensureRun(ctx, filter.RunID); err != nil {
		return nil, err
	}

	query := `SELECT ` + outcomeColumns + ` FROM outcomes WHERE run_id = ?`
	if filter.FailedOnly {
		query += " AND success = 0 AND skipped = 0"
	}
	query += " ORDER BY position"

	rows, err := s.db.QueryContext(ctx, query, filter.RunID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []harvest.JobOutcome
	for rows.Next() {
		var o harvest.JobOutcome
		if err := rows.Scan(
			&o.CategoryName, &o.CategoryDir, &o.SubItemName, &o.ModuleName, &o.SourceURL,
			&o.Success, &o.Skipped, &o.Code, &o.Error, &o.ArtifactPath,
			&o.ContentLength, &o.Bytes, &o.Tokens, &o.Warning,
		); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func (s *RunService) ensureRun(ctx context.Context, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return harvest.Errorf(harvest.ENOTFOUND, "run not found")
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*harvest.Run, error) {
	var run harvest.Run
	var startedAt, finishedAt string
	if err := row.Scan(&run.ID, &run.Mode, &run.OutputDir, &startedAt, &finishedAt,
		&run.Stats.Total, &run.Stats.Successful, &run.Stats.Failed, &run.Stats.Skipped,
		&run.Stats.New, &run.Interrupted); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = parseTime(startedAt, "started_at"); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finishedAt, "finished_at"); err != nil {
		return nil, err
	}
	return &run, nil
}
