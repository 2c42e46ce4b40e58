package crawl

import (
	"fmt"
	"strings"

	"github.com/fwojciec/harvest"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName turns a module name such as "list_item" into "List Item".
func DisplayName(module string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(module, "_", " "))
}

// FallbackDocument builds the placeholder artifact stored when a page could
// not be turned into a document. The result is never empty.
func FallbackDocument(job harvest.Job, title, reason string) string {
	if title == "" {
		title = job.SubItemName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", DisplayName(job.ModuleName))
	b.WriteString("## Overview\n\n")
	b.WriteString("This document could not be generated automatically.\n")
	if title != "" {
		fmt.Fprintf(&b, "The source page is %q.\n", title)
	}
	if reason != "" {
		fmt.Fprintf(&b, "\n## Error\n\n%s\n", reason)
	}
	b.WriteString("\n## Source\n\n")
	fmt.Fprintf(&b, "- %s\n", job.SourceURL)
	b.WriteString("\nRe-run the harvester after deleting this file, or extract the content manually.\n")
	return b.String()
}

// IntegrationFallback builds the placeholder stored when a category could not
// be consolidated.
func IntegrationFallback(in harvest.IntegrationInput, reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Rules\n\n", in.CategoryName)
	b.WriteString("These rules could not be consolidated automatically.\n")
	if reason != "" {
		fmt.Fprintf(&b, "\n## Error\n\n%s\n", reason)
	}
	b.WriteString("\n## Sources\n\n")
	for _, p := range in.Practices {
		fmt.Fprintf(&b, "- %s/%s.md\n", in.CategoryDir, p.Module)
	}
	b.WriteString("\n## Manual integration\n\n")
	b.WriteString("1. Collect the core principles of every module.\n")
	b.WriteString("2. Merge overlapping practices.\n")
	b.WriteString("3. Keep the key code patterns.\n")
	b.WriteString("4. List the practices to avoid.\n")
	return b.String()
}
