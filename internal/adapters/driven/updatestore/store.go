// Package updatestore stores updates as individual objects in a
// namespaced area of an object store and reads them back.
//
// Object keys have the form appId/dataSet/area/<unix-millis>-<id>, so a
// plain prefix listing returns each area's updates in write order.
package updatestore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/logger"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// Ensure Store implements the interface.
var _ driven.RemoteUpdateStore = (*Store)(nil)

// Config selects where updates live.
type Config struct {
	// Bucket holds the update objects.
	Bucket string

	// Namespace scopes keys.
	Namespace domain.Namespace

	// Now is the clock used for key timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Store is the remote update store. It becomes available when the
// credentials source publishes credentials and unavailable on sign-out or
// invalidation. Credentials are captured per operation, so a sign-out
// during a call never changes which user the call runs as.
type Store struct {
	objects driven.ObjectStore
	cfg     Config

	mu    sync.RWMutex
	creds domain.Credentials
	ok    bool

	availability *signal.Value[domain.Availability]
	failures     *signal.Event[error]
	cancel       []func()
}

// New creates a store following source.
func New(objects driven.ObjectStore, source driven.CredentialsSource, cfg Config) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Store{
		objects:      objects,
		cfg:          cfg,
		availability: signal.NewValue(domain.AvailabilityUnknown),
		failures:     signal.NewEvent[error](),
	}
	if state := source.Availability().Get(); state.Available {
		s.creds, s.ok = state.Credentials, true
		s.availability = signal.NewValue(domain.AvailabilityAvailable)
	}
	s.cancel = []func(){
		source.Availability().Subscribe(s.onCredentials),
		source.Invalidated().Subscribe(func(struct{}) { s.onCredentials(domain.Unavailable) }),
	}
	return s
}

// Availability reports whether remote operations can be issued.
func (s *Store) Availability() *signal.Value[domain.Availability] {
	return s.availability
}

// Failures streams diagnostics for failed writes, listings, reads and
// undecodable objects.
func (s *Store) Failures() *signal.Event[error] {
	return s.failures
}

// Close detaches from the credentials source.
func (s *Store) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	for _, c := range cancel {
		c()
	}
}

// Store writes update under the write area.
func (s *Store) Store(ctx context.Context, update domain.Update) error {
	creds, ok := s.credentials()
	if !ok {
		return domain.ErrStoreUnavailable
	}

	key, err := s.cfg.Namespace.WriteKey(update.ID, creds.UserID, s.cfg.Now())
	if err != nil {
		s.report(err)
		return err
	}
	body, err := domain.EncodeUpdate(update)
	if err != nil {
		s.report(err)
		return err
	}

	logger.Debug("Storing update %s", key)
	if err := s.objects.PutObject(ctx, creds, s.cfg.Bucket, key, body); err != nil {
		err = fmt.Errorf("%w: %s: %w", domain.ErrStoreFailed, key, err)
		s.report(err)
		return err
	}
	logger.Debug("Update stored %s", key)
	return nil
}

// FetchAll returns every decodable update in the read areas, ordered by
// read area then key. An ID seen twice is returned once. Listing failures
// abort the fetch and return nil; unreadable objects are skipped.
func (s *Store) FetchAll(ctx context.Context) []domain.Update {
	creds, ok := s.credentials()
	if !ok {
		return nil
	}

	keys, err := s.listAll(ctx, creds)
	if err != nil {
		s.report(fmt.Errorf("listing updates in %s: %w", s.cfg.Bucket, err))
		return nil
	}

	seen := make(map[string]struct{}, len(keys))
	updates := make([]domain.Update, 0, len(keys))
	for _, key := range keys {
		body, err := s.objects.GetObject(ctx, creds, s.cfg.Bucket, key)
		if err != nil {
			s.report(fmt.Errorf("reading %s: %w", key, err))
			continue
		}
		update, err := domain.DecodeUpdate(key, body)
		if err != nil {
			s.report(err)
			continue
		}
		if _, dup := seen[update.ID]; dup {
			continue
		}
		seen[update.ID] = struct{}{}
		updates = append(updates, update)
	}
	logger.Debug("Fetched %d updates from %d keys", len(updates), len(keys))
	return updates
}

// Purge deletes every object in the write area and returns how many were
// removed. Other clients keep any updates they already applied.
func (s *Store) Purge(ctx context.Context) (int, error) {
	creds, ok := s.credentials()
	if !ok {
		return 0, domain.ErrStoreUnavailable
	}
	prefix, err := s.cfg.Namespace.AreaPrefix(s.cfg.Namespace.WriteArea, creds.UserID)
	if err != nil {
		return 0, err
	}
	keys, err := s.objects.ListKeys(ctx, creds, s.cfg.Bucket, prefix)
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", prefix, err)
	}

	deleted := 0
	for _, key := range keys {
		if err := s.objects.DeleteObject(ctx, creds, s.cfg.Bucket, key); err != nil {
			return deleted, fmt.Errorf("deleting %s: %w", key, err)
		}
		deleted++
	}
	logger.Info("Purged %d objects from %s", deleted, prefix)
	return deleted, nil
}

// listAll lists every read area. Areas whose user placeholder cannot be
// resolved are reported and skipped.
func (s *Store) listAll(ctx context.Context, creds domain.Credentials) ([]string, error) {
	var all []string
	for _, area := range s.cfg.Namespace.ReadAreas {
		prefix, err := s.cfg.Namespace.AreaPrefix(area, creds.UserID)
		if err != nil {
			s.report(err)
			continue
		}
		keys, err := s.objects.ListKeys(ctx, creds, s.cfg.Bucket, prefix)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", prefix, err)
		}
		filtered := make([]string, 0, len(keys))
		for _, k := range keys {
			if !strings.HasSuffix(k, "/") {
				filtered = append(filtered, k)
			}
		}
		sort.Strings(filtered)
		all = append(all, filtered...)
	}
	return all, nil
}

func (s *Store) credentials() (domain.Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, s.ok
}

// onCredentials records the credentials before publishing availability,
// so subscribers reacting to the change already see them.
func (s *Store) onCredentials(state domain.CredentialsState) {
	s.mu.Lock()
	if state.Available {
		s.creds, s.ok = state.Credentials, true
	} else {
		s.creds, s.ok = domain.Credentials{}, false
	}
	s.mu.Unlock()

	if s.availability.Set(domain.AvailabilityFrom(state.Available)) {
		if state.Available && state.Credentials.UserID != "" {
			logger.Info("Update store available, user %s", state.Credentials.UserID)
		} else {
			logger.Info("Update store %s", domain.AvailabilityFrom(state.Available))
		}
	}
}

func (s *Store) report(err error) {
	logger.Warn("Update store: %v", err)
	s.failures.Send(err)
}
