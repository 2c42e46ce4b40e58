package gemini_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenCounter_UnknownModel(t *testing.T) {
	t.Parallel()

	_, err := gemini.NewTokenCounter("no-such-model")

	assert.Equal(t, harvest.ECONFIG, harvest.ErrorCode(err))
}

func TestTokenCounter_CountTokens(t *testing.T) {
	t.Parallel()

	tc, err := gemini.NewTokenCounter("gemini-2.0-flash")
	require.NoError(t, err)

	t.Run("counts an artifact", func(t *testing.T) {
		t.Parallel()

		n, err := tc.CountTokens(context.Background(), "# Button - Best Practices\n\nUse capsule buttons for primary actions.")

		require.NoError(t, err)
		assert.Positive(t, n)
	})

	t.Run("grows with the text", func(t *testing.T) {
		t.Parallel()

		one, err := tc.CountTokens(context.Background(), "列表")
		require.NoError(t, err)
		many, err := tc.CountTokens(context.Background(), strings.Repeat("列表包含一系列相同宽度的列表项。", 20))
		require.NoError(t, err)

		assert.Greater(t, many, one)
	})

	t.Run("empty text has no tokens", func(t *testing.T) {
		t.Parallel()

		n, err := tc.CountTokens(context.Background(), "")

		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("stops on a canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := tc.CountTokens(ctx, "text")

		assert.ErrorIs(t, err, context.Canceled)
	})
}
