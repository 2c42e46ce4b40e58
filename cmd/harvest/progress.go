package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
)

const urlDisplayWidth = 60

// newProgress prints one line per job and a short summary per category.
func newProgress(w io.Writer) crawl.ProgressFunc {
	return func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			if event.RunID != "" {
				fmt.Fprintf(w, "Harvesting %d jobs (run %s)\n", event.Total, event.RunID)
			} else {
				fmt.Fprintf(w, "Processing %d jobs\n", event.Total)
			}
		case crawl.ProgressCategoryStarted:
			fmt.Fprintf(w, "\n== %s ==\n", event.Category)
		case crawl.ProgressJobStarted:
			fmt.Fprintf(w, "[%d/%d] %s  %s\n", event.Completed, event.Total,
				event.Job.ModuleName, crawl.TruncateURL(event.Job.SourceURL, urlDisplayWidth))
		case crawl.ProgressJobFinished:
			printOutcome(w, event.Outcome)
		case crawl.ProgressCategoryFinished:
			s := event.Stats
			fmt.Fprintf(w, "-- %s: %d/%d succeeded (%s), %d new, %d skipped, %d failed\n",
				event.Category, s.Successful, s.Total, crawl.FormatRate(s.SuccessRate()), s.New, s.Skipped, s.Failed)
			for _, o := range event.Failed {
				fmt.Fprintf(w, "   failed %s: %s\n", o.ModuleName, o.Error)
			}
		}
	}
}

func printOutcome(w io.Writer, o *harvest.JobOutcome) {
	if o == nil {
		return
	}
	switch {
	case o.Skipped:
		fmt.Fprintf(w, "  skip (exists) %s\n", o.ArtifactPath)
	case o.Success:
		fmt.Fprintf(w, "  saved %s (%s)\n", o.ArtifactPath, crawl.FormatBytes(o.Bytes))
	default:
		fmt.Fprintf(w, "  FAILED [%s] %s\n", o.Code, o.Error)
	}
	if o.Warning != "" {
		fmt.Fprintf(w, "  warning: %s\n", o.Warning)
	}
}

// printSummary prints the category table, the global statistics and every
// failed job so that the missing pieces can be re-run.
func printSummary(w io.Writer, report *crawl.Report) {
	if report == nil {
		return
	}

	if len(report.Categories) > 0 {
		rows := make([][]string, 0, len(report.Categories)+1)
		for _, c := range report.Categories {
			rows = append(rows, statsRow(c.Name, c.Directory, c.Stats))
		}
		rows = append(rows, statsRow("Total", "", report.Stats))
		fmt.Fprintln(w)
		fmt.Fprintln(w, renderTable(w,
			[]string{"Category", "Directory", "Total", "OK", "New", "Skipped", "Failed", "Rate"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		))
	}

	s := report.Stats
	fmt.Fprintf(w, "\nSucceeded %d/%d (%s): %d new, %d skipped, %d failed\n",
		s.Successful, s.Total, crawl.FormatRate(s.SuccessRate()), s.New, s.Skipped, s.Failed)
	if report.Bytes > 0 {
		fmt.Fprintf(w, "Saved %s (%s)\n", crawl.FormatBytes(report.Bytes), crawl.FormatTokens(report.Tokens))
	}

	if failed := report.Failed(); len(failed) > 0 {
		fmt.Fprintln(w, "\nFailed jobs:")
		for _, o := range failed {
			fmt.Fprintf(w, "  %s/%s [%s] %s\n    %s\n", o.CategoryDir, o.ModuleName, o.Code, o.Error, o.SourceURL)
		}
	}
	if len(report.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warning := range report.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
	}
	if report.Interrupted {
		fmt.Fprintln(w, "\nRun interrupted. Re-run to continue; existing artifacts are skipped.")
	}
}

func statsRow(name, dir string, s harvest.RunStatistics) []string {
	return []string{
		name,
		dir,
		strconv.Itoa(s.Total),
		strconv.Itoa(s.Successful),
		strconv.Itoa(s.New),
		strconv.Itoa(s.Skipped),
		strconv.Itoa(s.Failed),
		crawl.FormatRate(s.SuccessRate()),
	}
}

// checkStrict returns an error when strict is set and any job failed.
func checkStrict(strict bool, report *crawl.Report) error {
	if !strict || report == nil || report.Stats.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d jobs failed", report.Stats.Failed, report.Stats.Total)
}
