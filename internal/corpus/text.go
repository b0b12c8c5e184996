package corpus

import (
	"fmt"
	"os"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
)

// ReadText returns the raw bytes a locator points at.
func ReadText(loc index.Locator) ([]byte, error) {
	f, err := os.Open(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat corpus file: %w", err)
	}
	rec := index.OffsetRecord{Offset: loc.Offset, Length: loc.Length}
	if err := rec.Validate(info.Size(), 0); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrRecordOutOfRange, loc.Path, err)
	}
	buf := make([]byte, loc.Length)
	if _, err := f.ReadAt(buf, loc.Offset); err != nil {
		return nil, fmt.Errorf("reading source text: %w", err)
	}
	return buf, nil
}
