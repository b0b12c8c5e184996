// Package segment reads and writes the flat record files that back the
// forward and inverted indexes. A file is a plain concatenation of records,
// each followed by a terminator byte; the byte ranges handed out by the
// writer are the only way to find a record again.
package segment

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/codec"
	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
)

const writeBufferSize = 64 * 1024

// Writer appends records to a pending temporary file next to its final
// path. Nothing is visible at the final path until Commit.
type Writer struct {
	path    string
	pending *renameio.PendingFile
	buf     *bufio.Writer
	offset  int64
	records int
}

// Create starts a new pending file that will replace path on Commit.
func Create(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating segment directory: %w", err)
	}
	pending, err := renameio.TempFile(dir, path)
	if err != nil {
		return nil, fmt.Errorf("creating temp segment file: %w", err)
	}
	return &Writer{
		path:    path,
		pending: pending,
		buf:     bufio.NewWriterSize(pending, writeBufferSize),
	}, nil
}

// Append writes record followed by the terminator and returns the range of
// the record itself.
func (w *Writer) Append(record []byte) (index.OffsetRecord, error) {
	rec := index.OffsetRecord{Offset: w.offset, Length: int64(len(record))}
	if _, err := w.buf.Write(record); err != nil {
		return index.OffsetRecord{}, fmt.Errorf("writing record %d: %w", w.records, err)
	}
	if err := w.buf.WriteByte(codec.Terminator); err != nil {
		return index.OffsetRecord{}, fmt.Errorf("writing terminator %d: %w", w.records, err)
	}
	w.offset += rec.Length + 1
	w.records++
	return rec, nil
}

// Reader flushes buffered records and returns a Reader over the pending
// file, so records can be read back before the file is published. The
// returned Reader must not be used after Commit or Abort.
func (w *Writer) Reader() (*Reader, error) {
	if err := w.buf.Flush(); err != nil {
		return nil, fmt.Errorf("flushing segment: %w", err)
	}
	return NewReader(w.pending.File, w.offset), nil
}

// Commit syncs the pending file and atomically renames it over the final
// path.
func (w *Writer) Commit() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flushing segment: %w", err)
	}
	if err := w.pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("publishing segment %s: %w", w.path, err)
	}
	return nil
}

// Abort discards the pending file. It is a no-op after Commit.
func (w *Writer) Abort() error {
	return w.pending.Cleanup()
}

// Size is the number of bytes written so far, terminators included.
func (w *Writer) Size() int64 {
	return w.offset
}

func (w *Writer) Records() int {
	return w.records
}

func (w *Writer) Path() string {
	return w.path
}
