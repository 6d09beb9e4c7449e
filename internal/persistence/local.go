package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// LocalStore keeps every document in memory, backed by a SQLite file.
// The file is read once at open; each mutation is written through before the
// in-memory copy changes, so a failed write leaves memory untouched.
type LocalStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// OpenLocalStore opens or creates the SQLite file at path and loads it.
func OpenLocalStore(ctx context.Context, path string) (*LocalStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store %s: %w", path, err)
	}
	// Single writer keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &LocalStore{db: db, data: make(map[string]map[string][]byte)}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.load(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS kv_state (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (namespace, key)
	)`)
	if err != nil {
		return fmt.Errorf("failed to migrate local store: %w", err)
	}
	return nil
}

func (s *LocalStore) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT namespace, key, value FROM kv_state`)
	if err != nil {
		return fmt.Errorf("failed to load local store: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ns, key, value string
		if err := rows.Scan(&ns, &key, &value); err != nil {
			return fmt.Errorf("failed to scan local store row: %w", err)
		}
		s.set(ns, key, []byte(value))
	}
	return rows.Err()
}

func (s *LocalStore) set(namespace, key string, value []byte) {
	bucket, ok := s.data[namespace]
	if !ok {
		bucket = make(map[string][]byte)
		s.data[namespace] = bucket
	}
	bucket[key] = value
}

// Get returns a copy of the stored value.
func (s *LocalStore) Get(_ context.Context, namespace, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[namespace][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, key)
	}
	return append([]byte(nil), value...), nil
}

// Put writes the value to disk, then to memory.
func (s *LocalStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := validKey(namespace, key); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %s/%s is not valid JSON", namespace, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_state (namespace, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		namespace, key, string(value))
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", namespace, key, err)
	}

	s.set(namespace, key, append([]byte(nil), value...))
	return nil
}

// Delete removes the key from disk, then from memory.
func (s *LocalStore) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_state WHERE namespace = ? AND key = ?`, namespace, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, key, err)
	}

	if bucket, ok := s.data[namespace]; ok {
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(s.data, namespace)
		}
	}
	return nil
}

// List copies every entry in the namespace.
func (s *LocalStore) List(_ context.Context, namespace string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(s.data[namespace]))
	for k, v := range s.data[namespace] {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

// Ping checks that the SQLite file is still reachable.
func (s *LocalStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the SQLite handle.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

var _ Gateway = (*LocalStore)(nil)
