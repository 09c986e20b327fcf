package store

import (
	"context"
	"errors"
)

var ErrEmptyKey = errors.New("key is required")

// Backend is a raw key-value store used to persist per-client state
// between requests.
type Backend interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the value, replacing any previous one
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}
