package rod

import (
	"sync"
	"sync/atomic"

	"github.com/fwojciec/harvest"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultMaxPages is the number of pages rendered by one Chrome process
// before it is replaced.
const DefaultMaxPages = 75

// chromeFlags keep background tabs and timers running at full speed while
// pages settle.
var chromeFlags = []string{
	"disable-background-timer-throttling",
	"disable-backgrounding-occluded-windows",
	"disable-renderer-backgrounding",
	"disable-dev-shm-usage",
	"disable-hang-monitor",
}

// BrowserManager owns the headless Chrome process. Long harvests grow
// Chrome's memory even when every tab is closed, so the process is
// relaunched after MaxPages pages.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	bin      string
	headless bool
	maxPages int64

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	launches int

	// pages counts pages released since the last launch.
	pages  atomic.Int64
	closed atomic.Bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets how many pages one browser process renders.
// Non-positive values keep DefaultMaxPages.
func WithMaxPages(n int) ManagerOption {
	return func(bm *BrowserManager) {
		if n > 0 {
			bm.maxPages = int64(n)
		}
	}
}

// WithBin sets the Chrome executable. By default rod looks for a local
// installation and downloads one when none is found.
func WithBin(path string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.bin = path
	}
}

// WithHeadless controls whether the browser window is hidden.
func WithHeadless(headless bool) ManagerOption {
	return func(bm *BrowserManager) {
		bm.headless = headless
	}
}

// NewBrowserManager launches Chrome. Close must be called when the
// BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
		headless: true,
	}
	for _, opt := range opts {
		opt(bm)
	}

	browser, l, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.browser, bm.launcher, bm.launches = browser, l, 1
	return bm, nil
}

// OpenPage opens a blank tab. The returned release func closes the tab and
// counts it toward the relaunch threshold; it must be called exactly once.
func (bm *BrowserManager) OpenPage() (*rod.Page, func(), error) {
	if bm.closed.Load() {
		return nil, nil, harvest.Errorf(harvest.EFETCH, "browser is closed")
	}

	page, err := bm.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		_ = page.Close()
		bm.pages.Add(1)
	}
	return page, release, nil
}

// Browser returns the current browser, relaunching Chrome first when the
// page threshold was reached. A failed relaunch keeps the old browser.
func (bm *BrowserManager) Browser() *rod.Browser {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.pages.Load() >= bm.maxPages {
		bm.relaunch()
	}
	return bm.browser
}

// Launches returns how many Chrome processes were started, including the
// first one.
func (bm *BrowserManager) Launches() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.launches
}

// Close shuts Chrome down. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	err := shutdown(bm.browser, bm.launcher)
	bm.browser, bm.launcher = nil, nil
	return err
}

// LauncherPID returns the process ID of the browser launcher, or 0 once
// the manager is closed.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.launcher == nil {
		return 0
	}
	return bm.launcher.PID()
}

func (bm *BrowserManager) launch() (*rod.Browser, *launcher.Launcher, error) {
	l := launcher.New().Leakless(true).Headless(bm.headless)
	for _, flag := range chromeFlags {
		l = l.Set(flags.Flag(flag))
	}
	if bm.bin != "" {
		l = l.Bin(bm.bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, nil, harvest.Errorf(harvest.EFETCH, "launch browser: %v", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, harvest.Errorf(harvest.EFETCH, "connect to browser: %v", err)
	}
	return browser, l, nil
}

// relaunch must be called with mu held.
func (bm *BrowserManager) relaunch() {
	browser, l, err := bm.launch()
	if err != nil {
		return
	}

	_ = shutdown(bm.browser, bm.launcher)
	bm.browser, bm.launcher = browser, l
	bm.launches++
	bm.pages.Store(0)
}

func shutdown(browser *rod.Browser, l *launcher.Launcher) error {
	var err error
	if browser != nil {
		err = browser.Close()
	}
	if l != nil {
		l.Kill()
	}
	return err
}
