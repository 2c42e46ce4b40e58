package fs

import (
	"os"
	"path/filepath"

	"github.com/fwojciec/harvest"
	"github.com/gofrs/flock"
)

// LockFileName is the advisory lock file created in the output root.
const LockFileName = ".harvest.lock"

// RunLock is an exclusive lock on an output root.
type RunLock struct {
	flock *flock.Flock
}

// Lock acquires the run lock for root without blocking.
// Returns ECONFLICT if another process holds it.
func Lock(root string) (*RunLock, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, harvest.Errorf(harvest.EPERSIST, "create directory %s: %v", root, err)
	}

	fl := flock.New(filepath.Join(root, LockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, harvest.Errorf(harvest.EPERSIST, "acquire lock: %v", err)
	}
	if !ok {
		return nil, harvest.Errorf(harvest.ECONFLICT, "another run is using %s", root)
	}
	return &RunLock{flock: fl}, nil
}

// Unlock releases the lock.
func (l *RunLock) Unlock() error {
	return l.flock.Unlock()
}
