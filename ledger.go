package harvest

import (
	"context"
	"time"
)

// Run modes.
const (
	RunModeManifest = "manifest"
	RunModeFlat     = "flat"
)

// Run is the record of one orchestrated run.
type Run struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	OutputDir  string    `json:"outputDir"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// Stats is filled in when the run finishes.
	Stats RunStatistics `json:"stats"`

	// Interrupted is set when the run was canceled before all jobs ran.
	Interrupted bool `json:"interrupted"`
}

// RunLedger records runs and their job outcomes.
type RunLedger interface {
	// CreateRun stores a new run.
	CreateRun(ctx context.Context, run *Run) error

	// RecordOutcome stores the outcome of one job of a run.
	// Returns ENOTFOUND if the run does not exist.
	RecordOutcome(ctx context.Context, runID string, outcome JobOutcome) error

	// FinishRun stores the final statistics of a run.
	// Returns ENOTFOUND if the run does not exist.
	FinishRun(ctx context.Context, run *Run) error

	// FindRunByID retrieves a run by ID.
	// Returns ENOTFOUND if the run does not exist.
	FindRunByID(ctx context.Context, id string) (*Run, error)

	// FindRuns retrieves runs matching the filter, newest first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// FindOutcomes retrieves the outcomes of a run in execution order.
	FindOutcomes(ctx context.Context, filter OutcomeFilter) ([]JobOutcome, error)
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	Mode *string `json:"mode"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// OutcomeFilter represents a filter for FindOutcomes.
type OutcomeFilter struct {
	RunID string `json:"runId"`

	// FailedOnly restricts the result to failed jobs.
	FailedOnly bool `json:"failedOnly"`
}
