package main

import (
	"fmt"

	"github.com/fwojciec/harvest/crawl"
	"github.com/fwojciec/harvest/yaml"
)

// Run executes the integrate command.
func (c *IntegrateCmd) Run(deps *Dependencies) error {
	m, err := yaml.LoadManifestFile(deps.Config.Manifest)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		printProblems(deps.Stderr, m)
		return err
	}

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Integrating %d categories\n", event.Total)
		case crawl.ProgressJobStarted:
			fmt.Fprintf(deps.Stdout, "[%d/%d] %s\n", event.Completed, event.Total, event.Category)
		case crawl.ProgressJobFinished:
			printOutcome(deps.Stdout, event.Outcome)
		}
	}

	report, err := deps.Integrator.Integrate(deps.Ctx, m.ExpandJobs(), progress)
	printSummary(deps.Stdout, report)
	return err
}
