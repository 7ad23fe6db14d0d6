package reconcile

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/skillup/internal/paths"
)

// ErrLocked indicates another reconciliation currently holds the
// artifact's lock file.
var ErrLocked = errors.New("artifact locked by another reconciliation")

// acquireLock creates the artifact's lock file exclusively and returns a
// release function. The lock is scoped to one execute step; planning
// never takes it.
func acquireLock(artifactDir string) (func(), error) {
	lockPath := paths.LockPath(artifactDir)

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Wrapf(ErrLocked, "lock file %s exists", lockPath)
		}
		return nil, errors.Wrap(err, "creating lock file")
	}

	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	return func() {
		os.Remove(lockPath)
	}, nil
}
