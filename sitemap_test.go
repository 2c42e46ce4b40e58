package harvest_test

import (
	"regexp"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLFilter_Match(t *testing.T) {
	t.Parallel()

	t.Run("nil filter matches everything", func(t *testing.T) {
		t.Parallel()

		var f *harvest.URLFilter

		assert.True(t, f.Match("https://example.com/anything"))
	})

	t.Run("include and exclude", func(t *testing.T) {
		t.Parallel()

		f := &harvest.URLFilter{
			Include: []*regexp.Regexp{regexp.MustCompile(`/docs/`)},
			Exclude: []*regexp.Regexp{regexp.MustCompile(`/docs/legacy/`)},
		}

		assert.True(t, f.Match("https://example.com/docs/button"))
		assert.False(t, f.Match("https://example.com/blog/post"))
		assert.False(t, f.Match("https://example.com/docs/legacy/button"))
	})
}

func TestNewURLFilter(t *testing.T) {
	t.Parallel()

	t.Run("compiles patterns", func(t *testing.T) {
		t.Parallel()

		f, err := harvest.NewURLFilter([]string{`/reference/`}, nil)

		require.NoError(t, err)
		assert.True(t, f.Match("https://example.com/reference/ui"))
		assert.False(t, f.Match("https://example.com/guide/ui"))
	})

	t.Run("rejects invalid pattern", func(t *testing.T) {
		t.Parallel()

		_, err := harvest.NewURLFilter([]string{`(`}, nil)

		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}
