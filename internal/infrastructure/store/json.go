package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON loads key and decodes it into a T.
func GetJSON[T any](ctx context.Context, b Backend, key string) (T, bool, error) {
	var out T
	raw, ok, err := b.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return out, true, nil
}

// PutJSON encodes value and stores it under key.
func PutJSON(ctx context.Context, b Backend, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return b.Set(ctx, key, raw)
}
