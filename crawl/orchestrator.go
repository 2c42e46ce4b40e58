package crawl

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/google/uuid"
)

// JobExecutor runs a single job. It is implemented by Executor.
type JobExecutor interface {
	Execute(ctx context.Context, job harvest.Job) harvest.JobOutcome
}

// DefaultFlatDir is the directory used for ad-hoc URL runs.
const DefaultFlatDir = "flat"

// Orchestrator runs jobs one at a time, pausing between them, and rolls
// their outcomes up into category and run statistics.
type Orchestrator struct {
	Executor JobExecutor

	// Pacing is the delay after every job except the last one of a run.
	Pacing time.Duration

	// Ledger, when set, records the run and every outcome. Ledger errors
	// are reported as warnings.
	Ledger    harvest.RunLedger
	OutputDir string

	// FlatDir is where RunFlat stores artifacts. Defaults to DefaultFlatDir.
	FlatDir string

	// NewURLSet creates the set used to drop duplicate URLs in RunFlat.
	// Defaults to an exact in-memory set.
	NewURLSet func(n int) harvest.URLSet

	// Hooks for tests.
	NewID func() string
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// run tracks the state of one orchestrated run.
type run struct {
	report *Report
	record *harvest.Run
	ledger harvest.RunLedger
	total  int
	index  int
}

// Run validates the manifest and executes every job in manifest order.
// An invalid manifest aborts the run with ECONFIG before any job executes.
// When ctx is canceled between jobs the partial report is returned with
// the context error.
func (o *Orchestrator) Run(ctx context.Context, m *harvest.Manifest, progress ProgressFunc) (*Report, error) {
	if m == nil {
		return nil, harvest.Errorf(harvest.ECONFIG, "no manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	r := o.begin(ctx, harvest.RunModeManifest, m.TotalJobs())
	progress.emit(ProgressEvent{Type: ProgressStarted, Total: r.total, RunID: r.report.RunID})

	for _, group := range m.ExpandJobs() {
		category := CategoryReport{Name: group.CategoryName, Directory: group.CategoryDir}
		progress.emit(ProgressEvent{
			Type:      ProgressCategoryStarted,
			Completed: r.index,
			Total:     r.total,
			RunID:     r.report.RunID,
			Category:  group.CategoryName,
		})

		var err error
		for _, job := range group.Jobs {
			var outcome *harvest.JobOutcome
			outcome, err = o.step(ctx, r, job, progress)
			if outcome != nil {
				category.Stats.Add(*outcome)
				if !outcome.Success {
					category.Failed = append(category.Failed, *outcome)
				}
			}
			if err != nil {
				break
			}
		}

		if category.Stats.Total > 0 || err == nil {
			r.report.Categories = append(r.report.Categories, category)
			progress.emit(ProgressEvent{
				Type:      ProgressCategoryFinished,
				Completed: r.index,
				Total:     r.total,
				RunID:     r.report.RunID,
				Category:  group.CategoryName,
				Stats:     category.Stats,
				Failed:    category.Failed,
			})
		}
		if err != nil {
			return o.finish(ctx, r, progress, err)
		}
	}

	// The last job is not followed by pacing, so a cancel that arrived
	// while it ran is only visible here.
	return o.finish(ctx, r, progress, ctx.Err())
}

// RunFlat executes one job per URL without a manifest. Duplicate URLs are
// dropped and artifacts are written to the flat directory. No category
// statistics are produced.
func (o *Orchestrator) RunFlat(ctx context.Context, urls []string, progress ProgressFunc) (*Report, error) {
	jobs := o.flatJobs(urls)

	r := o.begin(ctx, harvest.RunModeFlat, len(jobs))
	progress.emit(ProgressEvent{Type: ProgressStarted, Total: r.total, RunID: r.report.RunID})

	for _, job := range jobs {
		if _, err := o.step(ctx, r, job, progress); err != nil {
			return o.finish(ctx, r, progress, err)
		}
	}

	return o.finish(ctx, r, progress, ctx.Err())
}

// step executes one job and paces afterwards unless it was the last job.
// It returns nil outcome when ctx was canceled before the job started.
func (o *Orchestrator) step(ctx context.Context, r *run, job harvest.Job, progress ProgressFunc) (*harvest.JobOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.index++
	progress.emit(ProgressEvent{
		Type:      ProgressJobStarted,
		Completed: r.index,
		Total:     r.total,
		RunID:     r.report.RunID,
		Category:  job.CategoryName,
		Job:       job,
	})

	outcome := o.Executor.Execute(ctx, job)
	r.report.add(outcome)
	if r.ledger != nil {
		if err := r.ledger.RecordOutcome(ctx, r.report.RunID, outcome); err != nil {
			o.dropLedger(r, "record outcome", err)
		}
	}

	progress.emit(ProgressEvent{
		Type:      ProgressJobFinished,
		Completed: r.index,
		Total:     r.total,
		RunID:     r.report.RunID,
		Category:  job.CategoryName,
		Job:       job,
		Outcome:   &outcome,
	})

	if r.index < r.total && o.Pacing > 0 {
		if err := o.sleep(ctx, o.Pacing); err != nil {
			return &outcome, err
		}
	}
	return &outcome, nil
}

func (o *Orchestrator) begin(ctx context.Context, mode string, total int) *run {
	r := &run{
		report: &Report{RunID: o.newID()},
		total:  total,
	}
	r.record = &harvest.Run{
		ID:        r.report.RunID,
		Mode:      mode,
		OutputDir: o.OutputDir,
		StartedAt: o.now(),
	}
	if o.Ledger != nil {
		r.ledger = o.Ledger
		if err := r.ledger.CreateRun(ctx, r.record); err != nil {
			o.dropLedger(r, "create run", err)
		}
	}
	return r
}

func (o *Orchestrator) finish(ctx context.Context, r *run, progress ProgressFunc, err error) (*Report, error) {
	r.report.Interrupted = err != nil
	r.record.FinishedAt = o.now()
	r.record.Stats = r.report.Stats
	r.record.Interrupted = r.report.Interrupted
	if r.ledger != nil {
		// The run's context may already be canceled; the final record is
		// still worth keeping.
		if lerr := r.ledger.FinishRun(context.WithoutCancel(ctx), r.record); lerr != nil {
			o.dropLedger(r, "finish run", lerr)
		}
	}

	progress.emit(ProgressEvent{
		Type:      ProgressFinished,
		Completed: r.index,
		Total:     r.total,
		RunID:     r.report.RunID,
		Stats:     r.report.Stats,
	})
	return r.report, err
}

// dropLedger records a ledger failure and stops using the ledger for the
// rest of the run.
func (o *Orchestrator) dropLedger(r *run, op string, err error) {
	r.report.Warnings = append(r.report.Warnings, "run ledger: "+op+": "+errorText(err))
	r.ledger = nil
}

func (o *Orchestrator) flatJobs(urls []string) []harvest.Job {
	dir := o.FlatDir
	if dir == "" {
		dir = DefaultFlatDir
	}

	var seen harvest.URLSet
	if o.NewURLSet != nil {
		seen = o.NewURLSet(len(urls))
	} else {
		seen = make(exactSet)
	}

	names := make(map[string]bool)
	jobs := make([]harvest.Job, 0, len(urls))
	for _, raw := range urls {
		u := normalizeURL(raw)
		if u == "" || !seen.Add(u) {
			continue
		}
		name := ModuleNameFromURL(u)
		if names[name] {
			name = name + "_" + computeHash(u)[:8]
		}
		names[name] = true
		jobs = append(jobs, harvest.Job{
			CategoryDir: dir,
			SubItemName: u,
			ModuleName:  name,
			SourceURL:   u,
		})
	}
	return jobs
}

// normalizeURL trims whitespace and drops the fragment so that links to
// sections of the same page are fetched once.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	return u.String()
}

func (o *Orchestrator) newID() string {
	if o.NewID != nil {
		return o.NewID()
	}
	return uuid.New().String()
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if o.Sleep != nil {
		return o.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// exactSet is the default URLSet.
type exactSet map[string]struct{}

func (s exactSet) Add(u string) bool {
	if _, ok := s[u]; ok {
		return false
	}
	s[u] = struct{}{}
	return true
}
