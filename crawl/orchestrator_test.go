package crawl_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executorFunc adapts a function to crawl.JobExecutor.
type executorFunc func(ctx context.Context, job harvest.Job) harvest.JobOutcome

func (f executorFunc) Execute(ctx context.Context, job harvest.Job) harvest.JobOutcome {
	return f(ctx, job)
}

func testManifest() *harvest.Manifest {
	return &harvest.Manifest{
		Categories: []*harvest.Category{
			{
				Name:      "UI Components",
				Directory: "ui",
				SubItems: []*harvest.SubItem{
					{Name: "Button", ModuleName: "mod_a", SourceURL: "https://docs.example.com/button"},
					{Name: "Text", ModuleName: "mod_b", SourceURL: "https://docs.example.com/text"},
					{Name: "Image", ModuleName: "mod_c", SourceURL: "https://docs.example.com/image"},
				},
			},
			{
				Name:      "Networking",
				Directory: "net",
				SubItems: []*harvest.SubItem{
					{Name: "HTTP", ModuleName: "http", SourceURL: "https://docs.example.com/http"},
					{Name: "Socket", ModuleName: "socket", SourceURL: "https://docs.example.com/socket"},
				},
			},
		},
	}
}

// scriptedExecutor returns outcomes based on the module name:
// mod_b is skipped and socket fails; everything else is new.
func scriptedExecutor(executed *[]string) executorFunc {
	return func(_ context.Context, job harvest.Job) harvest.JobOutcome {
		*executed = append(*executed, job.ModuleName)
		switch job.ModuleName {
		case "mod_b":
			return harvest.JobOutcome{Job: job, Success: true, Skipped: true, ContentLength: 10}
		case "socket":
			return harvest.JobOutcome{Job: job, Code: harvest.EFETCH, Error: "navigation timeout"}
		default:
			return harvest.JobOutcome{Job: job, Success: true, ContentLength: 20, Bytes: 20, Tokens: 5}
		}
	}
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func TestOrchestrator_Run(t *testing.T) {
	t.Parallel()

	t.Run("aborts on invalid manifest before executing any job", func(t *testing.T) {
		t.Parallel()

		// Given a manifest with a category missing its directory
		m := testManifest()
		m.Categories[1].Directory = ""
		o := &crawl.Orchestrator{
			Executor: executorFunc(func(_ context.Context, _ harvest.Job) harvest.JobOutcome {
				t.Fatal("no job should run")
				return harvest.JobOutcome{}
			}),
		}

		// When running
		report, err := o.Run(context.Background(), m, nil)

		// Then the run is rejected as a configuration error
		require.Error(t, err)
		assert.Equal(t, harvest.ECONFIG, harvest.ErrorCode(err))
		assert.Nil(t, report)
	})

	t.Run("rejects a nil manifest", func(t *testing.T) {
		t.Parallel()

		o := &crawl.Orchestrator{Executor: scriptedExecutor(new([]string))}

		report, err := o.Run(context.Background(), nil, nil)

		assert.Equal(t, harvest.ECONFIG, harvest.ErrorCode(err))
		assert.Nil(t, report)
	})

	t.Run("rejects unsafe path names before executing any job", func(t *testing.T) {
		t.Parallel()

		// Given a directory and a module name that are not single path segments
		m := testManifest()
		m.Categories[0].Directory = "../escape"
		m.Categories[1].SubItems[0].ModuleName = "sub/http"
		o := &crawl.Orchestrator{
			Executor: executorFunc(func(_ context.Context, _ harvest.Job) harvest.JobOutcome {
				t.Fatal("no job should run")
				return harvest.JobOutcome{}
			}),
		}

		// When running
		report, err := o.Run(context.Background(), m, nil)

		// Then the run stops with a configuration error naming both
		assert.Equal(t, harvest.ECONFIG, harvest.ErrorCode(err))
		assert.Contains(t, harvest.ErrorMessage(err), `"../escape"`)
		assert.Contains(t, harvest.ErrorMessage(err), `"sub/http"`)
		assert.Nil(t, report)
	})

	t.Run("executes jobs in manifest order and rolls up statistics", func(t *testing.T) {
		t.Parallel()

		var executed []string
		o := &crawl.Orchestrator{Executor: scriptedExecutor(&executed), NewID: func() string { return "run-1" }}

		report, err := o.Run(context.Background(), testManifest(), nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"mod_a", "mod_b", "mod_c", "http", "socket"}, executed)
		assert.Equal(t, "run-1", report.RunID)
		assert.Equal(t, harvest.RunStatistics{Total: 5, Successful: 4, Failed: 1, Skipped: 1, New: 3}, report.Stats)
		assert.Len(t, report.Outcomes, 5)
		assert.Equal(t, 60, report.Bytes)
		assert.Equal(t, 15, report.Tokens)
		assert.False(t, report.Interrupted)

		require.Len(t, report.Categories, 2)
		assert.Equal(t, "UI Components", report.Categories[0].Name)
		assert.Equal(t, "ui", report.Categories[0].Directory)
		assert.Equal(t, harvest.RunStatistics{Total: 3, Successful: 3, Skipped: 1, New: 2}, report.Categories[0].Stats)
		assert.Equal(t, harvest.RunStatistics{Total: 2, Successful: 1, Failed: 1, New: 1}, report.Categories[1].Stats)
		require.Len(t, report.Categories[1].Failed, 1)
		assert.Equal(t, "socket", report.Categories[1].Failed[0].ModuleName)
		require.Len(t, report.Failed(), 1)
	})

	t.Run("category statistics sum to run statistics", func(t *testing.T) {
		t.Parallel()

		var executed []string
		o := &crawl.Orchestrator{Executor: scriptedExecutor(&executed)}

		report, err := o.Run(context.Background(), testManifest(), nil)
		require.NoError(t, err)

		var sum harvest.RunStatistics
		for _, c := range report.Categories {
			sum.Merge(c.Stats)
		}
		assert.Equal(t, report.Stats, sum)
		assert.Equal(t, report.Stats, harvest.Tally(report.Outcomes))
		assert.Equal(t, report.Stats.Successful, report.Stats.Skipped+report.Stats.New)
		assert.Equal(t, report.Stats.Total, report.Stats.Successful+report.Stats.Failed)
	})

	t.Run("paces between jobs but not after the last one", func(t *testing.T) {
		t.Parallel()

		var executed []string
		var sleeps []time.Duration
		o := &crawl.Orchestrator{
			Executor: scriptedExecutor(&executed),
			Pacing:   3 * time.Second,
			Sleep: func(_ context.Context, d time.Duration) error {
				sleeps = append(sleeps, d)
				return nil
			},
		}

		_, err := o.Run(context.Background(), testManifest(), nil)

		require.NoError(t, err)
		assert.Len(t, sleeps, 4)
		for _, d := range sleeps {
			assert.Equal(t, 3*time.Second, d)
		}
	})

	t.Run("emits category summaries after each category", func(t *testing.T) {
		t.Parallel()

		var executed []string
		var events []crawl.ProgressEvent
		o := &crawl.Orchestrator{Executor: scriptedExecutor(&executed)}

		_, err := o.Run(context.Background(), testManifest(), func(e crawl.ProgressEvent) {
			events = append(events, e)
		})
		require.NoError(t, err)

		var types []crawl.ProgressType
		for _, e := range events {
			types = append(types, e.Type)
		}
		assert.Equal(t, []crawl.ProgressType{
			crawl.ProgressStarted,
			crawl.ProgressCategoryStarted,
			crawl.ProgressJobStarted, crawl.ProgressJobFinished,
			crawl.ProgressJobStarted, crawl.ProgressJobFinished,
			crawl.ProgressJobStarted, crawl.ProgressJobFinished,
			crawl.ProgressCategoryFinished,
			crawl.ProgressCategoryStarted,
			crawl.ProgressJobStarted, crawl.ProgressJobFinished,
			crawl.ProgressJobStarted, crawl.ProgressJobFinished,
			crawl.ProgressCategoryFinished,
			crawl.ProgressFinished,
		}, types)

		assert.Equal(t, 5, events[0].Total)
		assert.Equal(t, 1, events[2].Completed)
		assert.Equal(t, "mod_a", events[2].Job.ModuleName)
		require.NotNil(t, events[3].Outcome)
		assert.True(t, events[3].Outcome.Success)
		assert.Equal(t, "UI Components", events[8].Category)
		assert.Equal(t, 3, events[8].Stats.Total)
		assert.Len(t, events[14].Failed, 1)
		assert.Equal(t, 5, events[15].Stats.Total)
	})

	t.Run("stops between jobs when canceled and keeps the partial report", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var executed []string
		o := &crawl.Orchestrator{
			Executor: executorFunc(func(_ context.Context, job harvest.Job) harvest.JobOutcome {
				executed = append(executed, job.ModuleName)
				if job.ModuleName == "mod_b" {
					cancel()
				}
				return harvest.JobOutcome{Job: job, Success: true}
			}),
		}

		report, err := o.Run(ctx, testManifest(), nil)

		require.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, report)
		assert.True(t, report.Interrupted)
		assert.Equal(t, []string{"mod_a", "mod_b"}, executed)
		assert.Equal(t, 2, report.Stats.Total)
		require.Len(t, report.Categories, 1)
		assert.Equal(t, report.Stats, report.Categories[0].Stats)
	})

	t.Run("marks the run interrupted when canceled during the last job", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Given an executor that is canceled while running the final job
		o := &crawl.Orchestrator{
			Executor: executorFunc(func(ctx context.Context, job harvest.Job) harvest.JobOutcome {
				if job.ModuleName == "socket" {
					cancel()
					return harvest.JobOutcome{Job: job, Code: harvest.EFETCH, Error: ctx.Err().Error()}
				}
				return harvest.JobOutcome{Job: job, Success: true}
			}),
			Pacing: time.Millisecond,
			Sleep:  noSleep,
		}

		// When running
		report, err := o.Run(ctx, testManifest(), nil)

		// Then the cancellation is reported and the run is interrupted
		require.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, report)
		assert.True(t, report.Interrupted)
		assert.Equal(t, 5, report.Stats.Total)
		assert.Equal(t, 1, report.Stats.Failed)
	})

	t.Run("stops when canceled during pacing", func(t *testing.T) {
		t.Parallel()

		var executed []string
		o := &crawl.Orchestrator{
			Executor: scriptedExecutor(&executed),
			Pacing:   time.Hour,
		}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		report, err := o.Run(ctx, testManifest(), nil)

		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, []string{"mod_a"}, executed)
		assert.Equal(t, 1, report.Stats.Total)
		require.Len(t, report.Categories, 1)
		assert.Equal(t, 1, report.Categories[0].Stats.Total)
	})

	t.Run("records the run in the ledger", func(t *testing.T) {
		t.Parallel()

		var created, finished *harvest.Run
		var recorded []harvest.JobOutcome
		ledger := &mock.RunLedger{
			CreateRunFn: func(_ context.Context, run *harvest.Run) error {
				created = run
				return nil
			},
			RecordOutcomeFn: func(_ context.Context, runID string, o harvest.JobOutcome) error {
				assert.Equal(t, "run-1", runID)
				recorded = append(recorded, o)
				return nil
			},
			FinishRunFn: func(_ context.Context, run *harvest.Run) error {
				finished = run
				return nil
			},
		}
		var executed []string
		o := &crawl.Orchestrator{
			Executor:  scriptedExecutor(&executed),
			Ledger:    ledger,
			OutputDir: "out",
			NewID:     func() string { return "run-1" },
			Sleep:     noSleep,
		}

		report, err := o.Run(context.Background(), testManifest(), nil)

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "run-1", created.ID)
		assert.Equal(t, harvest.RunModeManifest, created.Mode)
		assert.Equal(t, "out", created.OutputDir)
		assert.Len(t, recorded, 5)
		require.NotNil(t, finished)
		assert.Equal(t, report.Stats, finished.Stats)
		assert.False(t, finished.Interrupted)
		assert.Empty(t, report.Warnings)
	})

	t.Run("ledger failures become warnings", func(t *testing.T) {
		t.Parallel()

		var recordCalls int
		ledger := &mock.RunLedger{
			CreateRunFn: func(_ context.Context, _ *harvest.Run) error { return nil },
			RecordOutcomeFn: func(_ context.Context, _ string, _ harvest.JobOutcome) error {
				recordCalls++
				return errors.New("database is locked")
			},
			FinishRunFn: func(_ context.Context, _ *harvest.Run) error {
				t.Fatal("ledger should not be used after a failure")
				return nil
			},
		}
		var executed []string
		o := &crawl.Orchestrator{Executor: scriptedExecutor(&executed), Ledger: ledger}

		report, err := o.Run(context.Background(), testManifest(), nil)

		require.NoError(t, err)
		assert.Equal(t, 1, recordCalls)
		assert.Equal(t, 4, report.Stats.Successful)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "database is locked")
	})
}

func TestOrchestrator_RunFlat(t *testing.T) {
	t.Parallel()

	t.Run("runs each unique url in the flat directory", func(t *testing.T) {
		t.Parallel()

		var jobs []harvest.Job
		var sleeps int
		o := &crawl.Orchestrator{
			Executor: executorFunc(func(_ context.Context, job harvest.Job) harvest.JobOutcome {
				jobs = append(jobs, job)
				return harvest.JobOutcome{Job: job, Success: true}
			}),
			FlatDir: "adhoc",
			Pacing:  time.Second,
			Sleep: func(_ context.Context, _ time.Duration) error {
				sleeps++
				return nil
			},
		}

		report, err := o.RunFlat(context.Background(), []string{
			"https://docs.example.com/guide/list-item",
			" https://docs.example.com/guide/list-item#usage ",
			"https://docs.example.com/guide/grid",
			"",
		}, nil)

		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, "adhoc", jobs[0].CategoryDir)
		assert.Equal(t, "list_item", jobs[0].ModuleName)
		assert.Equal(t, "https://docs.example.com/guide/list-item", jobs[0].SourceURL)
		assert.Equal(t, "grid", jobs[1].ModuleName)
		assert.Equal(t, 1, sleeps)
		assert.Equal(t, 2, report.Stats.Total)
		assert.Empty(t, report.Categories)
	})

	t.Run("disambiguates urls that map to the same module name", func(t *testing.T) {
		t.Parallel()

		var names []string
		o := &crawl.Orchestrator{
			Executor: executorFunc(func(_ context.Context, job harvest.Job) harvest.JobOutcome {
				names = append(names, job.ModuleName)
				return harvest.JobOutcome{Job: job, Success: true}
			}),
		}

		_, err := o.RunFlat(context.Background(), []string{
			"https://a.example.com/docs/intro",
			"https://b.example.com/docs/intro",
		}, nil)

		require.NoError(t, err)
		require.Len(t, names, 2)
		assert.Equal(t, "intro", names[0])
		assert.Regexp(t, `^intro_[0-9a-f]{8}$`, names[1])
	})

	t.Run("uses the configured url set", func(t *testing.T) {
		t.Parallel()

		var added []string
		o := &crawl.Orchestrator{
			Executor: executorFunc(func(_ context.Context, job harvest.Job) harvest.JobOutcome {
				return harvest.JobOutcome{Job: job, Success: true}
			}),
			NewURLSet: func(n int) harvest.URLSet {
				assert.Equal(t, 1, n)
				return urlSetFunc(func(u string) bool {
					added = append(added, u)
					return true
				})
			},
		}

		_, err := o.RunFlat(context.Background(), []string{"https://docs.example.com/a"}, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://docs.example.com/a"}, added)
	})

	t.Run("records flat mode in the ledger", func(t *testing.T) {
		t.Parallel()

		var mode string
		ledger := &mock.RunLedger{
			CreateRunFn: func(_ context.Context, run *harvest.Run) error {
				mode = run.Mode
				return nil
			},
			RecordOutcomeFn: func(_ context.Context, _ string, _ harvest.JobOutcome) error { return nil },
			FinishRunFn:     func(_ context.Context, _ *harvest.Run) error { return nil },
		}
		o := &crawl.Orchestrator{
			Executor: executorFunc(func(_ context.Context, job harvest.Job) harvest.JobOutcome {
				return harvest.JobOutcome{Job: job, Success: true}
			}),
			Ledger: ledger,
		}

		_, err := o.RunFlat(context.Background(), []string{"https://docs.example.com/a"}, nil)

		require.NoError(t, err)
		assert.Equal(t, harvest.RunModeFlat, mode)
	})
}

type urlSetFunc func(u string) bool

func (f urlSetFunc) Add(u string) bool { return f(u) }
