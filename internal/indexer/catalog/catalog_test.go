package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
)

func sampleTables() *index.Tables {
	t := index.NewTables("cacm")
	t.BuiltAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	t.DocOffsets["D1"] = index.OffsetRecord{Offset: 0, Length: 11}
	t.DocLocators["D1"] = index.Locator{Path: "c.tsv", Offset: 3, Length: 11}
	t.DocLengths["D1"] = 3
	t.DocOrder = []string{"D1"}
	t.StemOffsets["cat"] = index.OffsetRecord{Offset: 0, Length: 4}
	t.Vocabulary = []string{"cat"}
	return t
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "catalog"))
	want := sampleTables()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx, "cacm")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())
	first := sampleTables()
	require.NoError(t, store.Save(ctx, first))

	second := sampleTables()
	second.DocLengths["D1"] = 9
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Load(ctx, "cacm")
	require.NoError(t, err)
	assert.Equal(t, 9, got.DocLengths["D1"])
}

func TestFileStore_Missing(t *testing.T) {
	_, err := NewFileStore(t.TempDir()).Load(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrCatalogNotFound)
}

func TestFileStore_RejectsInconsistentTables(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	bad := `{"name":"x","doc_order":["D1"],"doc_offsets":{},"stem_offsets":{},"doc_locators":{},"vocabulary":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.catalog.json"), []byte(bad), 0644))
	_, err := store.Load(context.Background(), "x")
	assert.Error(t, err)
}

func TestFileStore_RejectsUnnamed(t *testing.T) {
	err := NewFileStore(t.TempDir()).Save(context.Background(), index.NewTables(""))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
