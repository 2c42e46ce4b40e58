// Package toml loads harvest configuration files.
package toml

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/harvest"
	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is looked up in the working directory when no config
// path is given.
const DefaultConfigFile = "harvest.toml"

// LoadConfig reads the file at path over the default configuration and
// validates the result. An empty path yields the validated defaults.
func LoadConfig(path string) (*harvest.Config, error) {
	if path == "" {
		cfg := harvest.DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expanded)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, harvest.Errorf(harvest.ECONFIG, "config file %s not found", path)
	} else if err != nil {
		return nil, harvest.Errorf(harvest.ECONFIG, "open config: %v", err)
	}
	defer f.Close()

	return DecodeConfig(f)
}

// DecodeConfig decodes TOML over the default configuration. Unknown keys
// are rejected so that typos do not silently fall back to defaults.
func DecodeConfig(r io.Reader) (*harvest.Config, error) {
	cfg := harvest.DefaultConfig()

	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		var derr *toml.DecodeError
		switch {
		case errors.As(err, &strict):
			return nil, harvest.Errorf(harvest.ECONFIG, "unknown config keys:\n%s", strict.String())
		case errors.As(err, &derr):
			row, col := derr.Position()
			return nil, harvest.Errorf(harvest.ECONFIG, "parse config: line %d, column %d: %v", row, col, derr)
		default:
			return nil, harvest.Errorf(harvest.ECONFIG, "parse config: %v", err)
		}
	}

	for _, p := range []*string{&cfg.OutputDir, &cfg.Manifest, &cfg.LedgerPath} {
		expanded, err := expandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindConfig returns DefaultConfigFile when it exists in the working
// directory, and an empty path otherwise.
func FindConfig() string {
	if info, err := os.Stat(DefaultConfigFile); err == nil && !info.IsDir() {
		return DefaultConfigFile
	}
	return ""
}

// CreateSample writes a commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return harvest.Errorf(harvest.ECONFIG, "create config directory: %v", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return harvest.Errorf(harvest.ECONFIG, "write sample config: %v", err)
	}
	return nil
}

// expandPath resolves a leading "~" to the user's home directory.
func expandPath(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", harvest.Errorf(harvest.ECONFIG, "resolve home directory: %v", err)
	}
	if p == "~" {
		return home, nil
	}
	return filepath.Join(home, p[2:]), nil
}

const sampleConfig = `# harvest configuration

# Root directory for harvested artifacts.
output_dir = "harvest_output"

# Manifest of categories and sub-items (JSON or YAML).
manifest = "modules.json"

# Directory under output_dir used by "harvest flat".
flat_dir = "flat"

# SQLite run ledger. Empty disables run history.
ledger_path = ""

# Seconds to wait between jobs.
pacing_seconds = 3.0

# Minimum number of characters a fetched page must have.
min_content_length = 1000

# "browser" renders pages in headless Chrome, "http" fetches them directly.
fetch_mode = "browser"

# Main-content extractor: "trafilatura", "readability" or "none".
extractor = "trafilatura"

[render]
wait_selector = "body"
settle_delay_seconds = 15.0
page_timeout_ms = 60000
max_pages = 75
retry_delays_seconds = [1.0, 2.0, 4.0]
requests_per_second = 0.0

[gemini]
enabled = true
model = "gemini-2.5-flash"
temperature = 0.7
base_url = ""
api_key_env = "GEMINI_API_KEY"
max_content_chars = 15000
`
