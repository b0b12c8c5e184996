// Package catalog persists an index's tables as one unit so a built index
// can be reopened without rebuilding. Stores keep the tables opaque: they
// only see a name, a build time and a JSON document.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
)

// Store saves and loads index tables by index name.
type Store interface {
	Save(ctx context.Context, tables *index.Tables) error
	Load(ctx context.Context, name string) (*index.Tables, error)
}

// FileStore keeps one JSON file per index in a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".catalog.json")
}

// Save writes the tables atomically, replacing any previous catalog.
func (s *FileStore) Save(_ context.Context, tables *index.Tables) error {
	if tables == nil || tables.Name == "" {
		return fmt.Errorf("%w: tables must be named", apperrors.ErrInvalidInput)
	}
	data, err := json.Marshal(tables)
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}
	if err := renameio.WriteFile(s.path(tables.Name), data, 0644); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, name string) (*index.Tables, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrCatalogNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return decodeTables(data)
}

func decodeTables(data []byte) (*index.Tables, error) {
	tables := index.NewTables("")
	if err := json.Unmarshal(data, tables); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := tables.Check(); err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	return tables, nil
}
