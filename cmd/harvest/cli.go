package main

import (
	"context"
	"io"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	Config *harvest.Config

	Orchestrator *crawl.Orchestrator
	Integrator   *crawl.Integrator
	Fetcher      harvest.Fetcher
	Sitemaps     harvest.SitemapService
	Links        harvest.LinkExtractor
	Ledger       harvest.RunLedger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" type:"path" help:"Config file (default: ./harvest.toml when present)"`
	Verbose bool   `short:"v" help:"Log every fetch, generation and write"`

	Run       RunCmd       `cmd:"" help:"Harvest every page listed in the manifest"`
	Flat      FlatCmd      `cmd:"" help:"Harvest ad-hoc URLs without a manifest"`
	Validate  ValidateCmd  `cmd:"" help:"Check the manifest and print a summary"`
	Integrate IntegrateCmd `cmd:"" help:"Consolidate each category into a rules document"`
	History   HistoryCmd   `cmd:"" help:"Show recorded runs"`
	Init      InitCmd      `cmd:"" help:"Write a sample config file"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Manifest  string   `short:"m" type:"path" help:"Manifest file"`
	Only      []string `help:"Only harvest this category (repeatable)"`
	Output    string   `short:"o" type:"path" help:"Output directory"`
	Debug     bool     `help:"Also store the raw HTML of every page"`
	FetchMode string   `name:"fetch-mode" enum:",browser,http" default:"" help:"Fetch pages with a headless browser or plain HTTP"`
	NoGemini  bool     `name:"no-gemini" help:"Store converted page content without calling Gemini"`
	Strict    bool     `help:"Exit with an error when any job failed"`
}

// FlatCmd is the "flat" subcommand.
type FlatCmd struct {
	URLs      []string `arg:"" optional:"" help:"Page URLs"`
	Sitemap   string   `short:"s" help:"Discover URLs from the sitemap of this site"`
	Index     string   `short:"i" help:"Discover URLs from the links on this page"`
	Selector  []string `help:"CSS selector for index links (repeatable)"`
	Filter    []string `short:"F" help:"Only keep URLs matching this regex (repeatable)"`
	Exclude   []string `short:"x" help:"Drop URLs matching this regex (repeatable)"`
	Preview   bool     `short:"p" help:"Print the discovered URLs without harvesting"`
	Output    string   `short:"o" type:"path" help:"Output directory"`
	Debug     bool     `help:"Also store the raw HTML of every page"`
	FetchMode string   `name:"fetch-mode" enum:",browser,http" default:"" help:"Fetch pages with a headless browser or plain HTTP"`
	NoGemini  bool     `name:"no-gemini" help:"Store converted page content without calling Gemini"`
	Strict    bool     `help:"Exit with an error when any job failed"`
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	Manifest string `short:"m" type:"path" help:"Manifest file"`
	Module   string `help:"Show the job for this module name"`
}

// IntegrateCmd is the "integrate" subcommand.
type IntegrateCmd struct {
	Manifest string `short:"m" type:"path" help:"Manifest file"`
	Output   string `short:"o" type:"path" help:"Output directory"`
	NoGemini bool   `name:"no-gemini" help:"Write fallback documents without calling Gemini"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	RunID string `name:"run" help:"Show the failed jobs of this run"`
	All   bool   `help:"With --run, show every job instead of only failures"`
	Mode  string `enum:",manifest,flat" default:"" help:"Only show runs of this mode"`
	Limit int    `short:"n" default:"20" help:"Maximum number of runs to show"`
}

// InitCmd is the "init" subcommand.
type InitCmd struct {
	Path  string `arg:"" optional:"" default:"harvest.toml" help:"Where to write the config"`
	Force bool   `short:"f" help:"Overwrite an existing file"`
}

// Apply copies flag values over the loaded configuration.
func (c *RunCmd) Apply(cfg *harvest.Config) {
	setString(&cfg.Manifest, c.Manifest)
	setString(&cfg.OutputDir, c.Output)
	setString(&cfg.FetchMode, c.FetchMode)
	cfg.Debug = cfg.Debug || c.Debug
	if c.NoGemini {
		cfg.Gemini.Enabled = false
	}
}

// Apply copies flag values over the loaded configuration.
func (c *FlatCmd) Apply(cfg *harvest.Config) {
	setString(&cfg.OutputDir, c.Output)
	setString(&cfg.FetchMode, c.FetchMode)
	cfg.Debug = cfg.Debug || c.Debug
	if c.NoGemini {
		cfg.Gemini.Enabled = false
	}
}

// Apply copies flag values over the loaded configuration.
func (c *ValidateCmd) Apply(cfg *harvest.Config) {
	setString(&cfg.Manifest, c.Manifest)
}

// Apply copies flag values over the loaded configuration.
func (c *IntegrateCmd) Apply(cfg *harvest.Config) {
	setString(&cfg.Manifest, c.Manifest)
	setString(&cfg.OutputDir, c.Output)
	if c.NoGemini {
		cfg.Gemini.Enabled = false
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
