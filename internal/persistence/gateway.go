// Package persistence stores small JSON documents under (namespace, key)
// pairs, either in a local SQLite file or in Postgres.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Gateway is a namespaced key/value store for JSON documents.
type Gateway interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Put(ctx context.Context, namespace, key string, value []byte) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, namespace, key string) error
	// List returns every key in the namespace. Never nil.
	List(ctx context.Context, namespace string) (map[string][]byte, error)
}

// GetJSON decodes the value at (namespace, key) into out.
func GetJSON(ctx context.Context, g Gateway, namespace, key string, out interface{}) error {
	raw, err := g.Get(ctx, namespace, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", namespace, key, err)
	}
	return nil
}

// PutJSON encodes v and stores it at (namespace, key).
func PutJSON(ctx context.Context, g Gateway, namespace, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", namespace, key, err)
	}
	return g.Put(ctx, namespace, key, raw)
}

func validKey(namespace, key string) error {
	if namespace == "" {
		return errors.New("namespace is required")
	}
	if key == "" {
		return errors.New("key is required")
	}
	return nil
}
