package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/fs"
	"github.com/fwojciec/harvest/goquery"
	"github.com/fwojciec/harvest/sqlite"
	"github.com/fwojciec/harvest/toml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	_ = m.Close()
	if err != nil {
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Getenv reads environment variables. Defaults to os.Getenv.
	Getenv func(string) string

	// NewFetcher builds the raw page fetcher for the configured fetch mode.
	// Retries, throttling and logging are layered on top of it.
	NewFetcher func(cfg *harvest.Config, logger *slog.Logger) (harvest.Fetcher, error)

	// SQLite database holding the run ledger, when one is configured.
	DB *sqlite.DB

	lock    *fs.RunLock
	fetcher harvest.Fetcher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Getenv:     os.Getenv,
		NewFetcher: newPageFetcher,
	}
}

// Close releases the browser, the run lock and the database.
func (m *Main) Close() error {
	var errs []error
	if m.fetcher != nil {
		errs = append(errs, m.fetcher.Close())
		m.fetcher = nil
	}
	if m.lock != nil {
		errs = append(errs, m.lock.Unlock())
		m.lock = nil
	}
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
		m.DB = nil
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments. Errors are reported on
// stderr and returned.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	err := m.run(ctx, args, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", errorText(err))
	}
	return err
}

func (m *Main) run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("harvest"),
		kong.Description("Harvest documentation pages into markdown artifacts"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'harvest --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cmd := strings.Fields(kongCtx.Command())[0]
	if cmd == "init" {
		return kongCtx.Run(deps)
	}

	path := cli.Config
	if path == "" {
		path = toml.FindConfig()
	}
	cfg, err := toml.LoadConfig(path)
	if err != nil {
		return err
	}
	switch cmd {
	case "run":
		cli.Run.Apply(cfg)
	case "flat":
		cli.Flat.Apply(cfg)
	case "validate":
		cli.Validate.Apply(cfg)
	case "integrate":
		cli.Integrate.Apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	deps.Config = cfg

	if err := m.wire(ctx, cmd, deps, cli); err != nil {
		return err
	}

	return kongCtx.Run(deps)
}

// wire builds the services the selected command needs.
func (m *Main) wire(ctx context.Context, cmd string, deps *Dependencies, cli *CLI) error {
	cfg := deps.Config
	verbose := cli.Verbose
	logger := newLogger(deps.Stderr, verbose)

	switch cmd {
	case "run", "flat", "history":
		if err := m.openLedger(cfg.LedgerPath); err != nil {
			return err
		}
		if m.DB != nil {
			deps.Ledger = sqlite.NewRunService(m.DB)
		}
	}

	switch cmd {
	case "run", "flat", "integrate":
		lock, err := fs.Lock(cfg.OutputDir)
		if err != nil {
			return err
		}
		m.lock = lock
	}

	switch cmd {
	case "run", "flat":
		fetcher, err := m.NewFetcher(cfg, logger)
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed, or set fetch_mode = \"http\"")
			return err
		}
		m.fetcher = fetcher
		deps.Fetcher = decorateFetcher(fetcher, cfg, deps.Stderr, logger, verbose)

		gen, err := newGenerator(ctx, cfg, m.Getenv, logger, verbose)
		if err != nil {
			return err
		}
		store := newStore(cfg, logger, verbose)
		deps.Orchestrator = newOrchestrator(cfg, store, deps.Fetcher, gen, newTokenCounter(cfg, deps.Stderr), deps.Ledger)
		if cmd == "flat" {
			deps.Sitemaps = newSitemaps(logger, verbose)
			deps.Links = goquery.NewLinkExtractor(cli.Flat.Selector...)
		}

	case "integrate":
		gen, err := newGenerator(ctx, cfg, m.Getenv, logger, verbose)
		if err != nil {
			return err
		}
		deps.Integrator = newIntegrator(newStore(cfg, logger, verbose), gen)
	}
	return nil
}

// openLedger opens the SQLite ledger when a path is configured.
func (m *Main) openLedger(path string) error {
	if path == "" {
		return nil
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return harvest.Errorf(harvest.ECONFIG, "create ledger directory: %v", err)
		}
	}
	m.DB = sqlite.NewDB(path)
	if err := m.DB.Open(); err != nil {
		m.DB = nil
		return harvest.Errorf(harvest.ECONFIG, "open ledger %s: %v", path, err)
	}
	return nil
}

// errorText returns the message shown to the user for err.
func errorText(err error) string {
	if errors.Is(err, context.Canceled) {
		return "interrupted"
	}
	var e *harvest.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
