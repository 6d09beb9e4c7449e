package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/wealthmap/internal/database"
)

// RemoteStore keeps documents in the Postgres kv_state table.
type RemoteStore struct {
	db *database.Database
}

// NewRemoteStore creates a Gateway over the shared Postgres pool.
func NewRemoteStore(db *database.Database) *RemoteStore {
	return &RemoteStore{db: db}
}

func (s *RemoteStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := s.db.Pool.QueryRow(ctx,
		`SELECT value::text FROM kv_state WHERE namespace = $1 AND key = $2`, namespace, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, key)
		}
		return nil, fmt.Errorf("failed to read %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (s *RemoteStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := validKey(namespace, key); err != nil {
		return err
	}

	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO kv_state (namespace, key, value, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()`,
		namespace, key, string(value))
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *RemoteStore) Delete(ctx context.Context, namespace, key string) error {
	if _, err := s.db.Pool.Exec(ctx,
		`DELETE FROM kv_state WHERE namespace = $1 AND key = $2`, namespace, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *RemoteStore) List(ctx context.Context, namespace string) (map[string][]byte, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT key, value::text FROM kv_state WHERE namespace = $1`, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", namespace, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", namespace, err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", namespace, err)
	}
	return out, nil
}

var _ Gateway = (*RemoteStore)(nil)
