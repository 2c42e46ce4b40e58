package gemini

import (
	"fmt"
	"strings"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
)

// DefaultMaxContentChars limits the page content embedded in an
// extraction prompt.
const DefaultMaxContentChars = 15000

// DefaultMaxRuleWords limits the length of a consolidated rules document.
const DefaultMaxRuleWords = 800

// SystemInstruction frames every generation request.
const SystemInstruction = "You are a senior engineer who turns official documentation into concise, accurate best-practice guides. Use only the provided content and never invent APIs."

// ExtractionPrompt returns a harvest.PromptFunc that asks for a
// best-practices document. Page content beyond maxChars characters is
// dropped. A non-positive maxChars selects DefaultMaxContentChars.
func ExtractionPrompt(maxChars int) harvest.PromptFunc {
	if maxChars <= 0 {
		maxChars = DefaultMaxContentChars
	}
	return func(in harvest.PromptInput) string {
		title := in.Title
		if title == "" {
			title = in.SubItemName
		}

		var sb strings.Builder
		sb.WriteString("Analyze the documentation page below and extract the best practices it describes.\n\n")
		sb.WriteString("<page>\n")
		fmt.Fprintf(&sb, "<title>%s</title>\n", title)
		fmt.Fprintf(&sb, "<category>%s</category>\n", in.CategoryName)
		fmt.Fprintf(&sb, "<module>%s</module>\n", in.ModuleName)
		fmt.Fprintf(&sb, "<source>%s</source>\n", in.SourceURL)
		if in.Description != "" {
			fmt.Fprintf(&sb, "<description>%s</description>\n", in.Description)
		}
		fmt.Fprintf(&sb, "<content>\n%s\n</content>\n", truncate(in.Content, maxChars))
		sb.WriteString("</page>\n\n")

		sb.WriteString("Write the result as markdown with this structure:\n\n")
		fmt.Fprintf(&sb, "# %s - Best Practices\n\n", crawl.DisplayName(in.ModuleName))
		sb.WriteString("## Overview\n[What the module is for]\n\n")
		sb.WriteString("## Best Practices\n### 1. [Practice]\n- **Guideline**:\n- **How**:\n- **Caveats**:\n\n")
		sb.WriteString("## Code Examples\n[Key examples taken from the page]\n\n")
		sb.WriteString("## Pitfalls\n### Avoid\n### Prefer\n\n")
		fmt.Fprintf(&sb, "## Resources\n- Source: %s\n\n", in.SourceURL)
		sb.WriteString("Keep every recommendation concrete and actionable. ")
		sb.WriteString("Include code examples only when the page has them.")
		return sb.String()
	}
}

// IntegrationPrompt returns a harvest.IntegrationPromptFunc that asks for
// one rules document consolidating every practice of a category. A
// non-positive maxWords selects DefaultMaxRuleWords.
func IntegrationPrompt(maxWords int) harvest.IntegrationPromptFunc {
	if maxWords <= 0 {
		maxWords = DefaultMaxRuleWords
	}
	return func(in harvest.IntegrationInput) string {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Consolidate the best-practice documents of the %q category into a single rules file.\n\n", in.CategoryName)
		sb.WriteString("<documents>\n")
		for i, p := range in.Practices {
			sb.WriteString("<document>\n")
			fmt.Fprintf(&sb, "<index>%d</index>\n", i+1)
			fmt.Fprintf(&sb, "<module>%s</module>\n", p.Module)
			fmt.Fprintf(&sb, "<content>\n%s\n</content>\n", p.Content)
			sb.WriteString("</document>\n")
		}
		sb.WriteString("</documents>\n\n")

		sb.WriteString("Use this structure:\n\n")
		fmt.Fprintf(&sb, "# %s - Rules\n\n", in.CategoryName)
		sb.WriteString("## Core Principles\n## Recommended\n## Forbidden\n## Code Examples\n## Notes\n\n")
		fmt.Fprintf(&sb, "Stay under %d words. Remove duplicates and keep only the rules that matter in everyday work.", maxWords)
		return sb.String()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
