// Package memory provides an in-memory object store for tests and
// offline development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ObjectStore = (*Store)(nil)

// Op names a store operation for failure injection.
type Op string

// Operations.
const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpPut    Op = "put"
	OpDelete Op = "delete"
)

// Call records one request made against the store.
type Call struct {
	Op     Op
	Bucket string
	Key    string
	UserID string
}

// Store keeps objects per bucket in memory. It records every call and can
// be told to fail operations, optionally only for matching keys.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	calls   []Call
	fail    map[Op]func(key string) error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		buckets: make(map[string]map[string][]byte),
		fail:    make(map[Op]func(string) error),
	}
}

// FailWith makes op return err for every key accepted by match.
// A nil match matches all keys; a nil err clears the failure.
func (s *Store) FailWith(op Op, err error, match func(key string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = func(key string) error {
		if match == nil || match(key) {
			return err
		}
		return nil
	}
}

// Put seeds an object without recording a call.
func (s *Store) Put(bucket, key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(bucket)[key] = append([]byte(nil), body...)
}

// Keys returns every key in bucket in ascending order.
func (s *Store) Keys(bucket string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.buckets[bucket]))
	for k := range s.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns the recorded calls, optionally only those for op.
func (s *Store) Calls(op Op) []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Call
	for _, c := range s.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ListKeys returns keys under prefix in ascending order.
func (s *Store) ListKeys(ctx context.Context, creds domain.Credentials, bucket, prefix string) ([]string, error) {
	if err := s.begin(ctx, OpList, creds, bucket, prefix); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.buckets[bucket] {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// GetObject returns a copy of the object body.
func (s *Store) GetObject(ctx context.Context, creds domain.Credentials, bucket, key string) ([]byte, error) {
	if err := s.begin(ctx, OpGet, creds, bucket, key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return append([]byte(nil), body...), nil
}

// PutObject stores a copy of body.
func (s *Store) PutObject(ctx context.Context, creds domain.Credentials, bucket, key string, body []byte) error {
	if err := s.begin(ctx, OpPut, creds, bucket, key); err != nil {
		return err
	}
	s.Put(bucket, key, body)
	return nil
}

// DeleteObject removes key.
func (s *Store) DeleteObject(ctx context.Context, creds domain.Credentials, bucket, key string) error {
	if err := s.begin(ctx, OpDelete, creds, bucket, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets[bucket], key)
	return nil
}

// begin records the call and applies injected failures.
func (s *Store) begin(ctx context.Context, op Op, creds domain.Credentials, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: op, Bucket: bucket, Key: key, UserID: creds.UserID})
	if !creds.HasKeys() {
		return fmt.Errorf("%w: no access keys", domain.ErrStoreUnavailable)
	}
	if fail, ok := s.fail[op]; ok {
		return fail(key)
	}
	return nil
}

// bucket requires mu.
func (s *Store) bucket(name string) map[string][]byte {
	b, ok := s.buckets[name]
	if !ok {
		b = make(map[string][]byte)
		s.buckets[name] = b
	}
	return b
}
