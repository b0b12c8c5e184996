package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfindex/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS index_catalog (
	name       TEXT PRIMARY KEY,
	built_at   TIMESTAMPTZ NOT NULL,
	documents  INTEGER NOT NULL,
	terms      INTEGER NOT NULL,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps catalogs in the index_catalog table.
type PostgresStore struct {
	client *postgres.Client
}

func NewPostgresStore(client *postgres.Client) *PostgresStore {
	return &PostgresStore{client: client}
}

// EnsureSchema creates the catalog table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, tables *index.Tables) error {
	if tables == nil || tables.Name == "" {
		return fmt.Errorf("%w: tables must be named", apperrors.ErrInvalidInput)
	}
	payload, err := json.Marshal(tables)
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO index_catalog (name, built_at, documents, terms, payload)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name) DO UPDATE SET
				built_at = EXCLUDED.built_at,
				documents = EXCLUDED.documents,
				terms = EXCLUDED.terms,
				payload = EXCLUDED.payload,
				updated_at = NOW()`,
			tables.Name, tables.BuiltAt, len(tables.DocOrder), len(tables.Vocabulary), payload,
		)
		if err != nil {
			return fmt.Errorf("upserting catalog %q: %w", tables.Name, err)
		}
		return nil
	})
}

func (s *PostgresStore) Load(ctx context.Context, name string) (*index.Tables, error) {
	var payload []byte
	err := s.client.DB.QueryRowContext(ctx,
		`SELECT payload FROM index_catalog WHERE name = $1`, name,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrCatalogNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying catalog %q: %w", name, err)
	}
	return decodeTables(payload)
}
