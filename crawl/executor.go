package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/harvest"
)

// Executor runs a single job: resumability check, fetch, content
// validation, transformation and storage.
type Executor struct {
	Store   harvest.ArtifactStore
	Fetcher harvest.Fetcher
	Profile harvest.RenderProfile

	// MinContentLength defaults to DefaultMinContentLength when zero.
	MinContentLength int

	// Optional collaborators.
	Metadata     harvest.MetadataReader
	Extractor    harvest.Extractor
	Converter    harvest.Converter
	Generator    harvest.Generator
	TokenCounter harvest.TokenCounter

	// Prompt builds the generator prompt. When nil the page content is sent as is.
	Prompt harvest.PromptFunc

	// Now defaults to time.Now.
	Now func() time.Time
}

// document is the artifact body produced by the transform step.
type document struct {
	title    string
	content  string
	fallback bool
}

// Execute runs the job and always returns an outcome. Failures are reported
// through the outcome, never as a panic.
func (e *Executor) Execute(ctx context.Context, job harvest.Job) (outcome harvest.JobOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = failure(job, harvest.EINTERNAL, fmt.Sprintf("unexpected panic: %v", r))
		}
	}()

	info, err := e.Store.Lookup(ctx, job.CategoryDir, job.ModuleName)
	if err == nil {
		return harvest.JobOutcome{
			Job:           job,
			Success:       true,
			Skipped:       true,
			ArtifactPath:  info.Path,
			ContentLength: info.ContentLength,
		}
	}
	if harvest.ErrorCode(err) != harvest.ENOTFOUND {
		return failure(job, harvest.EPERSIST, errorText(err))
	}

	result, err := e.Fetcher.Fetch(ctx, job.SourceURL, e.Profile)
	if err != nil {
		return failure(job, harvest.EFETCH, errorText(err))
	}
	if result == nil {
		return failure(job, harvest.EFETCH, "fetch returned no page")
	}

	if !IsValidContent(result.HTML, e.minContentLength()) {
		return failure(job, harvest.EVALIDATION, ContentValidationFailed)
	}

	doc := e.transform(ctx, job, result.HTML)

	ref, err := e.Store.Write(ctx, &harvest.Artifact{
		Dir:     job.CategoryDir,
		Module:  job.ModuleName,
		Content: doc.content,
		Raw:     result.HTML,
		Metadata: harvest.ArtifactMetadata{
			Title:     doc.title,
			SourceURL: job.SourceURL,
			Category:  job.CategoryName,
			SubItem:   job.SubItemName,
			FetchedAt: e.now(),
			Fallback:  doc.fallback,
		},
	})
	if err != nil {
		return failure(job, harvest.EPERSIST, errorText(err))
	}

	outcome = harvest.JobOutcome{
		Job:           job,
		Success:       true,
		ArtifactPath:  ref.Path,
		ContentLength: utf8.RuneCountInString(doc.content),
		Bytes:         ref.Bytes,
	}
	if ref.RawErr != nil {
		outcome.Warning = "raw artifact not written: " + errorText(ref.RawErr)
	}
	if e.TokenCounter != nil {
		if tokens, err := e.TokenCounter.CountTokens(ctx, doc.content); err == nil {
			outcome.Tokens = tokens
		}
	}
	return outcome
}

// transform turns rendered HTML into the artifact body. It never fails:
// generator errors and empty results become a fallback document.
func (e *Executor) transform(ctx context.Context, job harvest.Job, html string) document {
	meta := e.readMetadata(html)
	title := meta.Title

	content := html
	if e.Extractor != nil {
		if extracted, err := e.Extractor.Extract(html); err == nil && strings.TrimSpace(extracted.ContentHTML) != "" {
			content = extracted.ContentHTML
			if title == "" {
				title = extracted.Title
			}
		}
	}
	if title == "" {
		title = job.SubItemName
	}

	var markdown string
	if e.Converter != nil {
		if md, err := e.Converter.Convert(content); err == nil {
			markdown = strings.TrimSpace(md)
		}
	}

	if e.Generator == nil {
		if markdown == "" {
			return document{title: title, content: FallbackDocument(job, title, "no content could be converted"), fallback: true}
		}
		return document{title: title, content: markdown + "\n"}
	}

	in := harvest.PromptInput{
		Job:         job,
		Title:       title,
		Description: meta.Description,
		Content:     content,
	}
	if markdown != "" {
		in.Content = markdown
	}
	prompt := in.Content
	if e.Prompt != nil {
		prompt = e.Prompt(in)
	}

	text, err := e.Generator.Generate(ctx, prompt)
	if err != nil {
		return document{title: title, content: FallbackDocument(job, title, errorText(err)), fallback: true}
	}
	if strings.TrimSpace(text) == "" {
		return document{title: title, content: FallbackDocument(job, title, "generator returned an empty document"), fallback: true}
	}
	return document{title: title, content: text}
}

func (e *Executor) readMetadata(html string) harvest.PageMetadata {
	if e.Metadata == nil {
		return harvest.PageMetadata{}
	}
	meta, err := e.Metadata.ReadMetadata(html)
	if err != nil || meta == nil {
		return harvest.PageMetadata{}
	}
	return *meta
}

func (e *Executor) minContentLength() int {
	if e.MinContentLength > 0 {
		return e.MinContentLength
	}
	return DefaultMinContentLength
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func failure(job harvest.Job, code, msg string) harvest.JobOutcome {
	return harvest.JobOutcome{
		Job:     job,
		Code:    code,
		Error:   msg,
		Success: false,
	}
}
