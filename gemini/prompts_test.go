package gemini_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/gemini"
	"github.com/stretchr/testify/assert"
)

func TestExtractionPrompt(t *testing.T) {
	t.Parallel()

	job := harvest.Job{
		CategoryName: "UI Components",
		CategoryDir:  "ui",
		SubItemName:  "Button Group",
		ModuleName:   "button_group",
		SourceURL:    "https://docs.example.com/api/button-group",
	}

	t.Run("embeds the page and its source", func(t *testing.T) {
		t.Parallel()

		prompt := gemini.ExtractionPrompt(0)(harvest.PromptInput{
			Job:         job,
			Title:       "ButtonGroup",
			Description: "Groups related buttons.",
			Content:     "Use a group for mutually exclusive actions.",
		})

		assert.Contains(t, prompt, "<title>ButtonGroup</title>")
		assert.Contains(t, prompt, "<category>UI Components</category>")
		assert.Contains(t, prompt, "<module>button_group</module>")
		assert.Contains(t, prompt, "<description>Groups related buttons.</description>")
		assert.Contains(t, prompt, "Use a group for mutually exclusive actions.")
		assert.Contains(t, prompt, "# Button Group - Best Practices")
		assert.Contains(t, prompt, "- Source: https://docs.example.com/api/button-group")
	})

	t.Run("uses the sub-item name without a page title", func(t *testing.T) {
		t.Parallel()

		prompt := gemini.ExtractionPrompt(0)(harvest.PromptInput{Job: job, Content: "x"})

		assert.Contains(t, prompt, "<title>Button Group</title>")
		assert.NotContains(t, prompt, "<description>")
	})

	t.Run("truncates content by characters", func(t *testing.T) {
		t.Parallel()

		content := strings.Repeat("按", 10) + strings.Repeat("钮", 10)

		prompt := gemini.ExtractionPrompt(10)(harvest.PromptInput{Job: job, Content: content})

		assert.Contains(t, prompt, "<content>\n"+strings.Repeat("按", 10)+"\n</content>")
		assert.NotContains(t, prompt, "钮")
	})
}

func TestIntegrationPrompt(t *testing.T) {
	t.Parallel()

	in := harvest.IntegrationInput{
		CategoryName: "Layout",
		CategoryDir:  "layout",
		Practices: []harvest.Practice{
			{Module: "grid", Content: "Prefer fixed column templates."},
			{Module: "flex", Content: "Avoid deep nesting."},
		},
	}

	t.Run("numbers every practice in order", func(t *testing.T) {
		t.Parallel()

		prompt := gemini.IntegrationPrompt(0)(in)

		grid := strings.Index(prompt, "<module>grid</module>")
		flex := strings.Index(prompt, "<module>flex</module>")
		assert.Greater(t, grid, 0)
		assert.Greater(t, flex, grid)
		assert.Contains(t, prompt, "<index>2</index>")
		assert.Contains(t, prompt, "# Layout - Rules")
	})

	t.Run("states the word limit", func(t *testing.T) {
		t.Parallel()

		assert.Contains(t, gemini.IntegrationPrompt(0)(in), "Stay under 800 words.")
		assert.Contains(t, gemini.IntegrationPrompt(300)(in), "Stay under 300 words.")
	})
}
