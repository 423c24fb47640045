package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// PostgresStore keeps profiles in the storefront.kv table, one namespace per
// profile. The schema lives in migrations/.
type PostgresStore struct {
	db        *sql.DB
	namespace string
}

func NewPostgresStore(db *sql.DB, namespace string) *PostgresStore {
	return &PostgresStore{db: db, namespace: namespace}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value
		FROM storefront.kv
		WHERE namespace = $1 AND key = $2
	`, s.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO storefront.kv (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, s.namespace, key, value)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM storefront.kv
		WHERE namespace = $1 AND key = ANY($2)
	`, s.namespace, pq.Array(keys))
	return err
}
