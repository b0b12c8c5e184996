package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
)

func TestWriter_AppendCommitRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_index")
	w, err := Create(path)
	require.NoError(t, err)

	records := [][]byte{[]byte("cat:2;dog:1"), {}, []byte("bird:1;dog:1")}
	offsets := make([]index.OffsetRecord, 0, len(records))
	for _, rec := range records {
		off, err := w.Append(rec)
		require.NoError(t, err)
		offsets = append(offsets, off)
	}
	assert.Equal(t, index.OffsetRecord{Offset: 0, Length: 11}, offsets[0])
	assert.Equal(t, index.OffsetRecord{Offset: 12, Length: 0}, offsets[1])
	assert.Equal(t, index.OffsetRecord{Offset: 13, Length: 12}, offsets[2])
	assert.Equal(t, 3, w.Records())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing is published before commit")

	require.NoError(t, w.Commit())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cat:2;dog:1\n\nbird:1;dog:1\n", string(data))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	for i, off := range offsets {
		got, err := r.Read(off)
		require.NoError(t, err)
		assert.Equal(t, records[i], got)
	}
}

func TestWriter_ReadBeforeCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending")
	w, err := Create(path)
	require.NoError(t, err)
	defer w.Abort()

	off, err := w.Append([]byte("a:1"))
	require.NoError(t, err)
	r, err := w.Reader()
	require.NoError(t, err)
	got, err := r.Read(off)
	require.NoError(t, err)
	assert.Equal(t, "a:1", string(got))
}

func TestWriter_AbortLeavesPreviousFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kept")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0644))

	w, err := Create(path)
	require.NoError(t, err)
	_, err = w.Append([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "pending file removed")
}

func TestReader_RejectsBadRanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("a:1\nb:2"), 0644))
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Read(index.OffsetRecord{Offset: 4, Length: 10})
	assert.ErrorIs(t, err, apperrors.ErrRecordOutOfRange)

	_, err = r.Read(index.OffsetRecord{Offset: -1, Length: 1})
	assert.ErrorIs(t, err, apperrors.ErrRecordOutOfRange)

	// "b:2" has no terminator, so its range plus trailer overruns the file.
	_, err = r.Read(index.OffsetRecord{Offset: 4, Length: 3})
	assert.ErrorIs(t, err, apperrors.ErrRecordOutOfRange)

	_, err = r.Read(index.OffsetRecord{Offset: 0, Length: 2})
	assert.ErrorIs(t, err, apperrors.ErrCorruptRecord)

	got, err := r.Read(index.OffsetRecord{Offset: 0, Length: 3})
	require.NoError(t, err)
	assert.Equal(t, "a:1", string(got))
}
