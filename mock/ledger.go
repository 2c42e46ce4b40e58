package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.RunLedger = (*RunLedger)(nil)

// RunLedger is a mock implementation of harvest.RunLedger.
type RunLedger struct {
	CreateRunFn     func(ctx context.Context, run *harvest.Run) error
	RecordOutcomeFn func(ctx context.Context, runID string, outcome harvest.JobOutcome) error
	FinishRunFn     func(ctx context.Context, run *harvest.Run) error
	FindRunByIDFn   func(ctx context.Context, id string) (*harvest.Run, error)
	FindRunsFn      func(ctx context.Context, filter harvest.RunFilter) ([]*harvest.Run, error)
	FindOutcomesFn  func(ctx context.Context, filter harvest.OutcomeFilter) ([]harvest.JobOutcome, error)
}

func (l *RunLedger) CreateRun(ctx context.Context, run *harvest.Run) error {
	return l.CreateRunFn(ctx, run)
}

func (l *RunLedger) RecordOutcome(ctx context.Context, runID string, outcome harvest.JobOutcome) error {
	return l.RecordOutcomeFn(ctx, runID, outcome)
}

func (l *RunLedger) FinishRun(ctx context.Context, run *harvest.Run) error {
	return l.FinishRunFn(ctx, run)
}

func (l *RunLedger) FindRunByID(ctx context.Context, id string) (*harvest.Run, error) {
	return l.FindRunByIDFn(ctx, id)
}

func (l *RunLedger) FindRuns(ctx context.Context, filter harvest.RunFilter) ([]*harvest.Run, error) {
	return l.FindRunsFn(ctx, filter)
}

func (l *RunLedger) FindOutcomes(ctx context.Context, filter harvest.OutcomeFilter) ([]harvest.JobOutcome, error) {
	return l.FindOutcomesFn(ctx, filter)
}
