package indexer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
)

// acquireBuildLock takes the advisory lock <dataDir>/<name>.lock without
// blocking. A second builder, in this or another process, gets
// ErrBuildInProgress.
func acquireBuildLock(dataDir, name string) (*flock.Flock, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	fl := flock.New(filepath.Join(dataDir, name+".lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring build lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrBuildInProgress, fl.Path())
	}
	return fl, nil
}
