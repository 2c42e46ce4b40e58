package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/bloom"
	"github.com/fwojciec/harvest/crawl"
	"github.com/fwojciec/harvest/fs"
	"github.com/fwojciec/harvest/gemini"
	"github.com/fwojciec/harvest/goquery"
	"github.com/fwojciec/harvest/htmltomarkdown"
	harvesthttp "github.com/fwojciec/harvest/http"
	"github.com/fwojciec/harvest/readability"
	"github.com/fwojciec/harvest/rod"
	hslog "github.com/fwojciec/harvest/slog"
	"github.com/fwojciec/harvest/trafilatura"
)

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return hslog.NewLogger(w, true)
}

// newPageFetcher starts the fetcher selected by fetch_mode.
func newPageFetcher(cfg *harvest.Config, logger *slog.Logger) (harvest.Fetcher, error) {
	if cfg.FetchMode == harvest.FetchModeHTTP {
		return harvesthttp.NewFetcher(), nil
	}

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(cfg.Render.MaxPages))
	if err != nil {
		return nil, err
	}
	return rod.NewFetcher(manager, rod.WithLogger(logger)), nil
}

// decorateFetcher layers throttling, retries and logging over f. Throttling
// sits below the retries so that every attempt waits for the limiter.
func decorateFetcher(f harvest.Fetcher, cfg *harvest.Config, stderr io.Writer, logger *slog.Logger, verbose bool) harvest.Fetcher {
	if rps := cfg.Render.RequestsPerSecond; rps > 0 {
		f = &crawl.ThrottledFetcher{Fetcher: f, Limiter: crawl.NewDomainLimiter(rps)}
	}
	f = &crawl.RetryFetcher{
		Fetcher: f,
		Delays:  cfg.Render.RetryDelays(),
		Log: func(format string, args ...any) {
			fmt.Fprintf(stderr, format+"\n", args...)
		},
	}
	if verbose {
		f = hslog.NewLoggingFetcher(f, logger)
	}
	return f
}

// newGenerator returns nil when Gemini is disabled.
func newGenerator(ctx context.Context, cfg *harvest.Config, getenv func(string) string, logger *slog.Logger, verbose bool) (harvest.Generator, error) {
	if !cfg.Gemini.Enabled {
		return nil, nil
	}

	client, err := gemini.NewClient(ctx, cfg.Gemini, getenv)
	if err != nil {
		return nil, err
	}
	var gen harvest.Generator = gemini.NewGenerator(client,
		gemini.WithModel(cfg.Gemini.Model),
		gemini.WithTemperature(cfg.Gemini.Temperature),
		gemini.WithSystemInstruction(gemini.SystemInstruction),
	)
	if verbose {
		gen = hslog.NewLoggingGenerator(gen, logger)
	}
	return gen, nil
}

// newTokenCounter returns nil when Gemini is disabled or the tokenizer for
// the model is unavailable. Token counts are informational only.
func newTokenCounter(cfg *harvest.Config, stderr io.Writer) harvest.TokenCounter {
	if !cfg.Gemini.Enabled {
		return nil
	}
	tc, err := gemini.NewTokenCounter(cfg.Gemini.Model)
	if err != nil {
		fmt.Fprintf(stderr, "warning: token counts disabled: %s\n", errorText(err))
		return nil
	}
	return tc
}

func newExtractor(name string) harvest.Extractor {
	switch name {
	case harvest.ExtractorReadability:
		return readability.NewExtractor()
	case harvest.ExtractorNone:
		return nil
	default:
		return trafilatura.NewExtractor()
	}
}

func newStore(cfg *harvest.Config, logger *slog.Logger, verbose bool) harvest.ArtifactStore {
	var store harvest.ArtifactStore = fs.NewArtifactStore(cfg.OutputDir, fs.WithRawArtifacts(cfg.Debug))
	if verbose {
		store = hslog.NewLoggingArtifactStore(store, logger)
	}
	return store
}

func newSitemaps(logger *slog.Logger, verbose bool) harvest.SitemapService {
	var sitemaps harvest.SitemapService = harvesthttp.NewSitemapService(nil)
	if verbose {
		sitemaps = hslog.NewLoggingSitemapService(sitemaps, logger)
	}
	return sitemaps
}

func newOrchestrator(cfg *harvest.Config, store harvest.ArtifactStore, fetcher harvest.Fetcher, gen harvest.Generator, tc harvest.TokenCounter, ledger harvest.RunLedger) *crawl.Orchestrator {
	return &crawl.Orchestrator{
		Executor: &crawl.Executor{
			Store:            store,
			Fetcher:          fetcher,
			Profile:          cfg.Render.Profile(),
			MinContentLength: cfg.MinContentLength,
			Metadata:         goquery.NewMetadataReader(),
			Extractor:        newExtractor(cfg.Extractor),
			Converter:        htmltomarkdown.NewConverter(),
			Generator:        gen,
			TokenCounter:     tc,
			Prompt:           gemini.ExtractionPrompt(cfg.Gemini.MaxContentChars),
		},
		Pacing:    cfg.Pacing(),
		Ledger:    ledger,
		OutputDir: cfg.OutputDir,
		FlatDir:   cfg.FlatDir,
		NewURLSet: bloom.NewURLSet,
	}
}

func newIntegrator(store harvest.ArtifactStore, gen harvest.Generator) *crawl.Integrator {
	return &crawl.Integrator{
		Store:     store,
		Generator: gen,
		Prompt:    gemini.IntegrationPrompt(gemini.DefaultMaxRuleWords),
	}
}
