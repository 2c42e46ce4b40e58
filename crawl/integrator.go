package crawl

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/harvest"
)

// DefaultRulesDir is the directory below the output root that holds the
// consolidated category documents.
const DefaultRulesDir = "_rules"

// DefaultMaxPracticeChars limits how much of each artifact is sent to the
// generator during integration.
const DefaultMaxPracticeChars = 2000

// Integrator consolidates the artifacts of each category into a single
// rules document.
type Integrator struct {
	Store     harvest.ArtifactStore
	Generator harvest.Generator
	Prompt    harvest.IntegrationPromptFunc

	// RulesDir defaults to DefaultRulesDir.
	RulesDir string

	// MaxPracticeChars defaults to DefaultMaxPracticeChars.
	MaxPracticeChars int

	Now func() time.Time
}

// Integrate writes one rules document per category. Categories that already
// have one are skipped, and categories without artifacts fail. A failing
// generator produces a fallback document.
func (i *Integrator) Integrate(ctx context.Context, groups []harvest.JobGroup, progress ProgressFunc) (*Report, error) {
	report := &Report{}
	progress.emit(ProgressEvent{Type: ProgressStarted, Total: len(groups)})

	for n, g := range groups {
		if err := ctx.Err(); err != nil {
			report.Interrupted = true
			return report, err
		}

		job := harvest.Job{
			CategoryName: g.CategoryName,
			CategoryDir:  i.rulesDir(),
			SubItemName:  g.CategoryName,
			ModuleName:   g.CategoryDir,
		}
		progress.emit(ProgressEvent{Type: ProgressJobStarted, Completed: n + 1, Total: len(groups), Category: g.CategoryName, Job: job})

		outcome := i.integrate(ctx, g, job)
		report.add(outcome)

		progress.emit(ProgressEvent{Type: ProgressJobFinished, Completed: n + 1, Total: len(groups), Category: g.CategoryName, Job: job, Outcome: &outcome})
	}

	progress.emit(ProgressEvent{Type: ProgressFinished, Completed: len(groups), Total: len(groups), Stats: report.Stats})
	return report, nil
}

func (i *Integrator) integrate(ctx context.Context, g harvest.JobGroup, job harvest.Job) harvest.JobOutcome {
	info, err := i.Store.Lookup(ctx, job.CategoryDir, job.ModuleName)
	if err == nil {
		return harvest.JobOutcome{Job: job, Success: true, Skipped: true, ArtifactPath: info.Path, ContentLength: info.ContentLength}
	}
	if harvest.ErrorCode(err) != harvest.ENOTFOUND {
		return failure(job, harvest.EPERSIST, errorText(err))
	}

	in, err := i.collect(ctx, g)
	if err != nil {
		return failure(job, harvest.EPERSIST, errorText(err))
	}
	if len(in.Practices) == 0 {
		return failure(job, harvest.EVALIDATION, "no artifacts to integrate in "+g.CategoryDir)
	}

	content, fallback := i.generate(ctx, in)

	ref, err := i.Store.Write(ctx, &harvest.Artifact{
		Dir:     job.CategoryDir,
		Module:  job.ModuleName,
		Content: content,
		Metadata: harvest.ArtifactMetadata{
			Title:     g.CategoryName,
			Category:  g.CategoryName,
			FetchedAt: i.now(),
			Fallback:  fallback,
		},
	})
	if err != nil {
		return failure(job, harvest.EPERSIST, errorText(err))
	}

	return harvest.JobOutcome{
		Job:           job,
		Success:       true,
		ArtifactPath:  ref.Path,
		ContentLength: utf8.RuneCountInString(content),
		Bytes:         ref.Bytes,
	}
}

// collect reads the stored artifacts of a category, truncating each one.
func (i *Integrator) collect(ctx context.Context, g harvest.JobGroup) (harvest.IntegrationInput, error) {
	in := harvest.IntegrationInput{CategoryName: g.CategoryName, CategoryDir: g.CategoryDir}

	modules, err := i.Store.List(ctx, g.CategoryDir)
	if harvest.ErrorCode(err) == harvest.ENOTFOUND {
		return in, nil
	} else if err != nil {
		return in, err
	}

	for _, module := range modules {
		content, err := i.Store.Read(ctx, g.CategoryDir, module)
		if err != nil {
			return in, err
		}
		in.Practices = append(in.Practices, harvest.Practice{
			Module:  module,
			Content: truncateRunes(content, i.maxPracticeChars()),
		})
	}
	return in, nil
}

func (i *Integrator) generate(ctx context.Context, in harvest.IntegrationInput) (content string, fallback bool) {
	if i.Generator == nil {
		return IntegrationFallback(in, "no generator configured"), true
	}

	var prompt string
	if i.Prompt != nil {
		prompt = i.Prompt(in)
	} else {
		var b strings.Builder
		for _, p := range in.Practices {
			b.WriteString(p.Content)
			b.WriteString("\n\n")
		}
		prompt = b.String()
	}

	text, err := i.Generator.Generate(ctx, prompt)
	if err != nil {
		return IntegrationFallback(in, errorText(err)), true
	}
	if strings.TrimSpace(text) == "" {
		return IntegrationFallback(in, "generator returned an empty document"), true
	}
	return text, false
}

func (i *Integrator) rulesDir() string {
	if i.RulesDir != "" {
		return i.RulesDir
	}
	return DefaultRulesDir
}

func (i *Integrator) maxPracticeChars() int {
	if i.MaxPracticeChars > 0 {
		return i.MaxPracticeChars
	}
	return DefaultMaxPracticeChars
}

func (i *Integrator) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// truncateRunes returns at most n characters of s.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	var count int
	for idx := range s {
		if count == n {
			return s[:idx]
		}
		count++
	}
	return s
}
