// Package persist is the per-client persistent key-value store. It plays
// the part browser local storage plays for a single-page app: values are
// JSON-encoded, and every failure is treated as missing data rather than
// surfaced to the caller.
package persist

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/homely/homely/internal/infrastructure/store"
)

// Keys used by the cart store.
const (
	KeyCart      = "homely_cart"
	KeyCartItems = "homely_cart_items"
)

const opTimeout = 3 * time.Second

// Store is a namespaced view over a Backend. A nil *Store, or one without a
// backend, ignores writes and reports every key as absent.
type Store struct {
	backend   store.Backend
	namespace string
}

// New returns a store whose keys are prefixed with namespace.
func New(backend store.Backend, namespace string) *Store {
	return &Store{backend: backend, namespace: namespace}
}

// ForClient namespaces a store by browser client id.
func ForClient(backend store.Backend, clientID string) *Store {
	return New(backend, "client:"+clientID)
}

func (s *Store) available() bool {
	return s != nil && s.backend != nil
}

func (s *Store) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}

// Get decodes the value stored under key into T.
func Get[T any](s *Store, key string) (T, bool) {
	var zero T
	if !s.available() {
		return zero, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, ok, err := s.backend.Get(ctx, s.key(key))
	if err != nil {
		log.Printf("[Persist] Error reading %s: %v", s.key(key), err)
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		log.Printf("[Persist] Discarding unreadable value at %s: %v", s.key(key), err)
		return zero, false
	}
	return value, true
}

// Set encodes value as JSON and stores it under key.
func (s *Store) Set(key string, value any) {
	if !s.available() {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("[Persist] Error encoding %s: %v", s.key(key), err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.backend.Set(ctx, s.key(key), raw); err != nil {
		log.Printf("[Persist] Error writing %s: %v", s.key(key), err)
	}
}

// Remove deletes key.
func (s *Store) Remove(key string) {
	if !s.available() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.backend.Delete(ctx, s.key(key)); err != nil {
		log.Printf("[Persist] Error removing %s: %v", s.key(key), err)
	}
}
