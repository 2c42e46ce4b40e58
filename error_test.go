package harvest_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := harvest.Errorf(harvest.ECONFIG, "manifest %q not found", "modules.json")

	assert.Equal(t, harvest.ECONFIG, harvest.ErrorCode(err))
	assert.Equal(t, "manifest \"modules.json\" not found", harvest.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, harvest.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, harvest.ErrorMessage(nil))
}

func TestErrorCode_UnwrapsWrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("writing artifact: %w", harvest.Errorf(harvest.EPERSIST, "disk full"))

	assert.Equal(t, harvest.EPERSIST, harvest.ErrorCode(err))
	assert.Equal(t, "disk full", harvest.ErrorMessage(err))
}

func TestErrorCode_ForeignErrorIsInternal(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, harvest.EINTERNAL, harvest.ErrorCode(err))
	assert.Equal(t, "Internal error.", harvest.ErrorMessage(err))
}
