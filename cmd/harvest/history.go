package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	if deps.Ledger == nil {
		return harvest.Errorf(harvest.ECONFIG, "no run ledger configured. Set ledger_path in harvest.toml")
	}
	if c.RunID != "" {
		return c.showRun(deps)
	}

	filter := harvest.RunFilter{Limit: c.Limit}
	if c.Mode != "" {
		filter.Mode = &c.Mode
	}
	runs, err := deps.Ledger.FindRuns(deps.Ctx, filter)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs recorded yet. Use 'harvest run' to start one.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.Mode,
			r.StartedAt.Local().Format(historyTimeLayout),
			runDuration(r),
			strconv.Itoa(r.Stats.Total),
			strconv.Itoa(r.Stats.New),
			strconv.Itoa(r.Stats.Skipped),
			strconv.Itoa(r.Stats.Failed),
			runStatus(r),
		})
	}
	fmt.Fprintln(deps.Stdout, renderTable(deps.Stdout,
		[]string{"Run", "Mode", "Started", "Duration", "Total", "New", "Skipped", "Failed", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func (c *HistoryCmd) showRun(deps *Dependencies) error {
	run, err := deps.Ledger.FindRunByID(deps.Ctx, c.RunID)
	if err != nil {
		return err
	}
	outcomes, err := deps.Ledger.FindOutcomes(deps.Ctx, harvest.OutcomeFilter{RunID: run.ID, FailedOnly: !c.All})
	if err != nil {
		return err
	}

	s := run.Stats
	fmt.Fprintf(deps.Stdout, "Run %s (%s) started %s, %s\n",
		run.ID, run.Mode, run.StartedAt.Local().Format(historyTimeLayout), runStatus(run))
	fmt.Fprintf(deps.Stdout, "Output: %s\n", run.OutputDir)
	fmt.Fprintf(deps.Stdout, "Succeeded %d/%d (%s): %d new, %d skipped, %d failed\n",
		s.Successful, s.Total, crawl.FormatRate(s.SuccessRate()), s.New, s.Skipped, s.Failed)

	if len(outcomes) == 0 {
		if !c.All {
			fmt.Fprintln(deps.Stdout, "No failed jobs.")
		}
		return nil
	}

	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []string{
			o.CategoryDir,
			o.ModuleName,
			outcomeStatus(o),
			o.Error,
			crawl.TruncateURL(o.SourceURL, urlDisplayWidth),
		})
	}
	fmt.Fprintln(deps.Stdout, renderTable(deps.Stdout,
		[]string{"Directory", "Module", "Status", "Error", "URL"},
		rows,
		nil,
	))
	return nil
}

func runStatus(r *harvest.Run) string {
	switch {
	case r.Interrupted:
		return "interrupted"
	case r.FinishedAt.IsZero():
		return "incomplete"
	default:
		return "finished"
	}
}

func runDuration(r *harvest.Run) string {
	if r.FinishedAt.IsZero() {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}

func outcomeStatus(o harvest.JobOutcome) string {
	switch {
	case o.Skipped:
		return "skipped"
	case o.Success:
		return "saved"
	default:
		return "failed (" + o.Code + ")"
	}
}
