package segment

import (
	"fmt"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/codec"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
)

// Reader serves random-access reads of records by byte range. Every range is
// checked against the file size before it is read.
type Reader struct {
	file   io.ReaderAt
	closer io.Closer
	size   int64
}

// Open opens a published segment file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat segment file: %w", err)
	}
	return &Reader{file: f, closer: f, size: info.Size()}, nil
}

// NewReader wraps an already open source of the given size. Close on the
// result does not close r.
func NewReader(r io.ReaderAt, size int64) *Reader {
	return &Reader{file: r, size: size}
}

// Read returns exactly the bytes of rec. It fails with ErrRecordOutOfRange
// if rec does not fit in the file and with ErrCorruptRecord if the record is
// not followed by the terminator.
func (r *Reader) Read(rec index.OffsetRecord) ([]byte, error) {
	if err := rec.Validate(r.size, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrRecordOutOfRange, err)
	}
	buf := make([]byte, rec.Length+1)
	n, err := r.file.ReadAt(buf, rec.Offset)
	if n < len(buf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading record at %d: %w", rec.Offset, err)
	}
	if buf[rec.Length] != codec.Terminator {
		return nil, fmt.Errorf("%w: at offset %d", apperrors.ErrCorruptRecord, rec.End())
	}
	return buf[:rec.Length], nil
}

// Size is the file size captured when the reader was created.
func (r *Reader) Size() int64 {
	return r.size
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
