package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/yaml"
)

// Run executes the validate command.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	m, err := yaml.LoadManifestFile(deps.Config.Manifest)
	if err != nil {
		return err
	}

	if problems := m.Problems(); len(problems) > 0 {
		printProblems(deps.Stderr, m)
		return harvest.Errorf(harvest.ECONFIG, "manifest %s has %d problems", deps.Config.Manifest, len(problems))
	}

	if c.Module != "" {
		job, ok := m.FindModule(c.Module)
		if !ok {
			return harvest.Errorf(harvest.ENOTFOUND, "module %q is not in %s", c.Module, deps.Config.Manifest)
		}
		fmt.Fprintf(deps.Stdout, "Category:  %s\n", job.CategoryName)
		fmt.Fprintf(deps.Stdout, "Sub-item:  %s\n", job.SubItemName)
		fmt.Fprintf(deps.Stdout, "Artifact:  %s\n", filepath.Join(deps.Config.OutputDir, job.CategoryDir, job.ModuleName+".md"))
		fmt.Fprintf(deps.Stdout, "URL:       %s\n", job.SourceURL)
		return nil
	}

	rows := make([][]string, 0, len(m.Categories))
	for _, cat := range m.Categories {
		rows = append(rows, []string{cat.Name, cat.Directory, strconv.Itoa(len(cat.SubItems))})
	}
	fmt.Fprintln(deps.Stdout, renderTable(deps.Stdout,
		[]string{"Category", "Directory", "Pages"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	))
	fmt.Fprintf(deps.Stdout, "%d categories, %d pages\n", len(m.Categories), m.TotalJobs())
	return nil
}

func printProblems(w io.Writer, m *harvest.Manifest) {
	problems := m.Problems()
	if len(problems) == 0 {
		return
	}
	fmt.Fprintln(w, "Manifest problems:")
	for _, p := range problems {
		fmt.Fprintf(w, "  - %s\n", p)
	}
}
