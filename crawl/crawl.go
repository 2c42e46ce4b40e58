// Package crawl provides documentation harvesting orchestration.
// It turns manifest jobs into artifacts by coordinating fetching, content
// validation, generation and storage, and aggregates the job outcomes into
// run statistics.
package crawl

import (
	"errors"

	"github.com/fwojciec/harvest"
)

// ProgressEvent reports progress during a run.
type ProgressEvent struct {
	Type ProgressType

	// Completed is the 1-based position of the current job within the run.
	Completed int
	Total     int

	RunID    string
	Category string
	Job      harvest.Job

	// Outcome is set for ProgressJobFinished.
	Outcome *harvest.JobOutcome

	// Stats holds category statistics for ProgressCategoryFinished and run
	// statistics for ProgressFinished.
	Stats harvest.RunStatistics

	// Failed lists the failed jobs of a category for ProgressCategoryFinished.
	Failed []harvest.JobOutcome
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCategoryStarted
	ProgressJobStarted
	ProgressJobFinished
	ProgressCategoryFinished
	ProgressFinished
)

// ProgressFunc is a callback for reporting run progress.
type ProgressFunc func(event ProgressEvent)

func (f ProgressFunc) emit(event ProgressEvent) {
	if f != nil {
		f(event)
	}
}

// Report holds the outcome of a run.
type Report struct {
	RunID string

	// Stats aggregates every outcome. It equals the sum of the category stats.
	Stats      harvest.RunStatistics
	Categories []CategoryReport
	Outcomes   []harvest.JobOutcome

	Bytes  int
	Tokens int

	// Warnings lists problems that did not fail any job.
	Warnings []string

	// Interrupted is set when the context was canceled before all jobs ran.
	Interrupted bool
}

// CategoryReport holds the statistics of one category.
type CategoryReport struct {
	Name      string
	Directory string
	Stats     harvest.RunStatistics
	Failed    []harvest.JobOutcome
}

// Failed returns the failed outcomes of the run.
func (r *Report) Failed() []harvest.JobOutcome {
	var failed []harvest.JobOutcome
	for _, o := range r.Outcomes {
		if !o.Success {
			failed = append(failed, o)
		}
	}
	return failed
}

func (r *Report) add(o harvest.JobOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Stats.Add(o)
	r.Bytes += o.Bytes
	r.Tokens += o.Tokens
	if o.Warning != "" {
		r.Warnings = append(r.Warnings, o.ModuleName+": "+o.Warning)
	}
}

// errorText returns the message of an application error or the text of any
// other error.
func errorText(err error) string {
	var e *harvest.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
