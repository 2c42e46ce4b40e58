package harvest

import (
	"fmt"
	"strings"
	"time"
)

// Fetch modes.
const (
	FetchModeBrowser = "browser"
	FetchModeHTTP    = "http"
)

// Extractor names.
const (
	ExtractorTrafilatura = "trafilatura"
	ExtractorReadability = "readability"
	ExtractorNone        = "none"
)

// DefaultPreRenderScript scrolls through the page to trigger lazy loading and
// clicks elements that look like expand toggles.
const DefaultPreRenderScript = `
await new Promise(resolve => setTimeout(resolve, 3000));
window.scrollTo(0, document.body.scrollHeight);
await new Promise(resolve => setTimeout(resolve, 3000));
window.scrollTo(0, document.body.scrollHeight / 2);
await new Promise(resolve => setTimeout(resolve, 2000));
window.scrollTo(0, 0);
await new Promise(resolve => setTimeout(resolve, 2000));

const expandButtons = document.querySelectorAll('[class*="expand"], [class*="more"], [class*="show"]');
for (let button of expandButtons) {
	if (button.click) button.click();
}
await new Promise(resolve => setTimeout(resolve, 1000));
`

// Config holds every setting of a harvest run. It is built once and passed
// explicitly to the components that need it.
type Config struct {
	OutputDir  string `toml:"output_dir"`
	Manifest   string `toml:"manifest"`
	FlatDir    string `toml:"flat_dir"`
	LedgerPath string `toml:"ledger_path"`

	// Debug also stores the raw HTML next to each artifact.
	Debug bool `toml:"debug"`

	// PacingSeconds is the delay between consecutive jobs.
	PacingSeconds float64 `toml:"pacing_seconds"`

	MinContentLength int    `toml:"min_content_length"`
	FetchMode        string `toml:"fetch_mode"`
	Extractor        string `toml:"extractor"`

	Render Render `toml:"render"`
	Gemini Gemini `toml:"gemini"`
}

// Render contains page rendering and fetch etiquette settings.
type Render struct {
	WaitSelector       string    `toml:"wait_selector"`
	PreRenderScript    string    `toml:"pre_render_script"`
	SettleDelaySeconds float64   `toml:"settle_delay_seconds"`
	PageTimeoutMS      int       `toml:"page_timeout_ms"`
	MaxPages           int       `toml:"max_pages"`
	RetryDelaysSeconds []float64 `toml:"retry_delays_seconds"`

	// RequestsPerSecond limits requests per domain. Zero disables limiting.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Gemini contains text generation settings.
type Gemini struct {
	Enabled         bool    `toml:"enabled"`
	Model           string  `toml:"model"`
	Temperature     float32 `toml:"temperature"`
	BaseURL         string  `toml:"base_url"`
	APIKeyEnv       string  `toml:"api_key_env"`
	MaxContentChars int     `toml:"max_content_chars"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		OutputDir:        "harvest_output",
		Manifest:         "modules.json",
		FlatDir:          "flat",
		LedgerPath:       "",
		PacingSeconds:    3,
		MinContentLength: 1000,
		FetchMode:        FetchModeBrowser,
		Extractor:        ExtractorTrafilatura,
		Render: Render{
			WaitSelector:       "body",
			PreRenderScript:    DefaultPreRenderScript,
			SettleDelaySeconds: 15,
			PageTimeoutMS:      60000,
			MaxPages:           75,
			RetryDelaysSeconds: []float64{1, 2, 4},
		},
		Gemini: Gemini{
			Enabled:         true,
			Model:           "gemini-2.5-flash",
			Temperature:     0.7,
			APIKeyEnv:       "GEMINI_API_KEY",
			MaxContentChars: 15000,
		},
	}
}

// Validate returns an ECONFIG error listing every invalid setting.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.OutputDir) == "" {
		problems = append(problems, "output_dir must be set")
	}
	if strings.TrimSpace(c.FlatDir) == "" || strings.ContainsAny(c.FlatDir, `/\`) || c.FlatDir == ".." {
		problems = append(problems, "flat_dir must be a single directory name")
	}
	if c.PacingSeconds < 0 {
		problems = append(problems, "pacing_seconds must not be negative")
	}
	if c.MinContentLength < 0 {
		problems = append(problems, "min_content_length must not be negative")
	}
	switch c.FetchMode {
	case FetchModeBrowser, FetchModeHTTP:
	default:
		problems = append(problems, fmt.Sprintf("fetch_mode must be %q or %q", FetchModeBrowser, FetchModeHTTP))
	}
	switch c.Extractor {
	case ExtractorTrafilatura, ExtractorReadability, ExtractorNone:
	default:
		problems = append(problems, fmt.Sprintf("extractor must be %q, %q or %q", ExtractorTrafilatura, ExtractorReadability, ExtractorNone))
	}
	if c.Render.PageTimeoutMS <= 0 {
		problems = append(problems, "render.page_timeout_ms must be positive")
	}
	if c.Render.SettleDelaySeconds < 0 {
		problems = append(problems, "render.settle_delay_seconds must not be negative")
	}
	if c.Render.MaxPages < 0 {
		problems = append(problems, "render.max_pages must not be negative")
	}
	for _, d := range c.Render.RetryDelaysSeconds {
		if d < 0 {
			problems = append(problems, "render.retry_delays_seconds must not contain negative values")
			break
		}
	}
	if c.Render.RequestsPerSecond < 0 {
		problems = append(problems, "render.requests_per_second must not be negative")
	}
	if c.Gemini.Enabled {
		if strings.TrimSpace(c.Gemini.Model) == "" {
			problems = append(problems, "gemini.model must be set when gemini.enabled is true")
		}
		if strings.TrimSpace(c.Gemini.APIKeyEnv) == "" {
			problems = append(problems, "gemini.api_key_env must be set when gemini.enabled is true")
		}
		if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
			problems = append(problems, "gemini.temperature must be between 0 and 2")
		}
	}
	if len(problems) > 0 {
		return Errorf(ECONFIG, "invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Pacing returns the delay between consecutive jobs.
func (c *Config) Pacing() time.Duration {
	return seconds(c.PacingSeconds)
}

// Profile returns the render profile described by the settings.
func (r Render) Profile() RenderProfile {
	return RenderProfile{
		WaitSelector:    r.WaitSelector,
		PreRenderScript: r.PreRenderScript,
		SettleDelay:     seconds(r.SettleDelaySeconds),
		PageTimeout:     time.Duration(r.PageTimeoutMS) * time.Millisecond,
	}
}

// RetryDelays returns the delays between fetch attempts.
func (r Render) RetryDelays() []time.Duration {
	delays := make([]time.Duration, 0, len(r.RetryDelaysSeconds))
	for _, d := range r.RetryDelaysSeconds {
		delays = append(delays, seconds(d))
	}
	return delays
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
