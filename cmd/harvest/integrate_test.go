package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/harvest"
	main "github.com/fwojciec/harvest/cmd/harvest"
	"github.com/fwojciec/harvest/crawl"
	"github.com/fwojciec/harvest/fs"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrateCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("writes one rules document per category", func(t *testing.T) {
		t.Parallel()

		// Given stored artifacts for the manifest's category
		dir := t.TempDir()
		root := filepath.Join(dir, "out")
		store := fs.NewArtifactStore(root)
		for _, module := range []string{"button", "list"} {
			_, err := store.Write(context.Background(), &harvest.Artifact{Dir: "ui", Module: module, Content: "# " + module + "\n"})
			require.NoError(t, err)
		}
		cfg := harvest.DefaultConfig()
		cfg.Manifest = writeFile(t, dir, "modules.json", manifestJSON)
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Config: &cfg,
			Integrator: &crawl.Integrator{
				Store: store,
				Generator: &mock.Generator{
					GenerateFn: func(context.Context, string) (string, error) {
						return "# UI Components Rules\n", nil
					},
				},
			},
		}

		// When integrating
		err := (&main.IntegrateCmd{}).Run(deps)

		// Then the rules document is stored under the rules directory
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(root, crawl.DefaultRulesDir, "ui.md"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "# UI Components Rules")
		assert.Contains(t, stdout.String(), "Integrating 1 categories")
		assert.Contains(t, stdout.String(), "Succeeded 1/1")
	})

	t.Run("rejects an invalid manifest", func(t *testing.T) {
		t.Parallel()

		cfg := harvest.DefaultConfig()
		cfg.Manifest = writeFile(t, t.TempDir(), "modules.json", `{"modules": {"UI": {"directory": "ui"}}}`)
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
			Config: &cfg,
		}

		err := (&main.IntegrateCmd{}).Run(deps)

		assert.Equal(t, harvest.ECONFIG, harvest.ErrorCode(err))
		assert.Contains(t, stderr.String(), "missing sub_modules")
	})
}
