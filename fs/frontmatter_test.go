package fs_test

import (
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatArtifact(t *testing.T) {
	t.Parallel()

	data, err := fs.FormatArtifact(testArtifact("# Button\n"))
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.HasPrefix(s, "---\n"))
	assert.Contains(t, s, "title: Button\n")
	assert.Contains(t, s, "source: https://docs.example.com/button\n")
	assert.Regexp(t, `fetched: "?2026-03-04T05:06:07Z"?\n`, s)
	assert.Regexp(t, `hash: "?[0-9a-f]{16}"?\n`, s)
	assert.NotContains(t, s, "fallback")
	assert.True(t, strings.HasSuffix(s, "---\n\n# Button\n"))
}

func TestParseArtifact(t *testing.T) {
	t.Parallel()

	t.Run("reads back formatted artifact", func(t *testing.T) {
		t.Parallel()

		a := testArtifact("# Button\n\n---\n\nSeparated section.\n")
		a.Metadata.Fallback = true
		data, err := fs.FormatArtifact(a)
		require.NoError(t, err)

		meta, body, err := fs.ParseArtifact(data)

		require.NoError(t, err)
		assert.Equal(t, a.Content, body)
		assert.Equal(t, harvest.ArtifactMetadata{
			Title:     "Button",
			SourceURL: "https://docs.example.com/button",
			Category:  "UI Components",
			SubItem:   "Button",
			FetchedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
			Fallback:  true,
		}, meta)
	})

	t.Run("returns content without frontmatter unchanged", func(t *testing.T) {
		t.Parallel()

		_, body, err := fs.ParseArtifact([]byte("# Plain\n"))

		require.NoError(t, err)
		assert.Equal(t, "# Plain\n", body)
	})

	t.Run("rejects invalid frontmatter", func(t *testing.T) {
		t.Parallel()

		_, _, err := fs.ParseArtifact([]byte("---\ntitle: [unclosed\n---\n\nbody"))

		require.Error(t, err)
		assert.Equal(t, harvest.EPERSIST, harvest.ErrorCode(err))
	})
}
