package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// mockRemoteStore implements driven.RemoteUpdateStore for testing.
type mockRemoteStore struct {
	mu           sync.Mutex
	availability *signal.Value[domain.Availability]
	remote       []domain.Update
	stored       []domain.Update
	storeCalls   []string
	fetchCalls   int
	// failStore returns an error for a store call; nil means succeed.
	failStore func(u domain.Update) error
	// beforeStore and beforeFetch run outside mu and may block.
	beforeStore func(u domain.Update)
	beforeFetch func()
}

func newMockRemoteStore(a domain.Availability, remote ...domain.Update) *mockRemoteStore {
	return &mockRemoteStore{
		availability: signal.NewValue(a),
		remote:       remote,
	}
}

func (m *mockRemoteStore) Store(_ context.Context, u domain.Update) error {
	if !m.availability.Get().IsAvailable() {
		return domain.ErrStoreUnavailable
	}
	if m.beforeStore != nil {
		m.beforeStore(u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeCalls = append(m.storeCalls, u.ID)
	if m.failStore != nil {
		if err := m.failStore(u); err != nil {
			return err
		}
	}
	m.stored = append(m.stored, u)
	m.remote = append(m.remote, u)
	return nil
}

func (m *mockRemoteStore) FetchAll(_ context.Context) []domain.Update {
	if !m.availability.Get().IsAvailable() {
		return nil
	}
	if m.beforeFetch != nil {
		m.beforeFetch()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	out := make([]domain.Update, len(m.remote))
	copy(out, m.remote)
	return out
}

func (m *mockRemoteStore) Availability() *signal.Value[domain.Availability] {
	return m.availability
}

func (m *mockRemoteStore) addRemote(u ...domain.Update) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remote = append(m.remote, u...)
}

func (m *mockRemoteStore) fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

func (m *mockRemoteStore) storedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ids(m.stored)
}

func (m *mockRemoteStore) attempts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.storeCalls))
	copy(out, m.storeCalls)
	return out
}

// mockLocalLog implements driven.LocalLog in memory with error injection.
type mockLocalLog struct {
	mu      sync.Mutex
	unsaved []domain.Update
	known   []domain.Update

	appendUnsavedErr error
	appendKnownErr   error
	removeErr        error
	listErr          error
	knownIDsErr      error
}

func newMockLocalLog() *mockLocalLog {
	return &mockLocalLog{}
}

func (m *mockLocalLog) AppendUnsaved(_ context.Context, u domain.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendUnsavedErr != nil {
		return m.appendUnsavedErr
	}
	if indexOf(m.unsaved, u.ID) < 0 {
		m.unsaved = append(m.unsaved, u)
	}
	return nil
}

func (m *mockLocalLog) RemoveUnsaved(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	if i := indexOf(m.unsaved, id); i >= 0 {
		m.unsaved = append(m.unsaved[:i:i], m.unsaved[i+1:]...)
	}
	return nil
}

func (m *mockLocalLog) ListUnsaved(_ context.Context) ([]domain.Update, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Update, len(m.unsaved))
	copy(out, m.unsaved)
	return out, nil
}

func (m *mockLocalLog) AppendKnown(_ context.Context, u domain.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendKnownErr != nil {
		return m.appendKnownErr
	}
	if indexOf(m.known, u.ID) < 0 {
		m.known = append(m.known, u)
	}
	return nil
}

func (m *mockLocalLog) ListKnown(_ context.Context) ([]domain.Update, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Update, len(m.known))
	copy(out, m.known)
	return out, nil
}

func (m *mockLocalLog) KnownIDs(_ context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.knownIDsErr != nil {
		return nil, m.knownIDsErr
	}
	set := make(map[string]struct{}, len(m.known))
	for _, u := range m.known {
		set[u.ID] = struct{}{}
	}
	return set, nil
}

func (m *mockLocalLog) unsavedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ids(m.unsaved)
}

func (m *mockLocalLog) knownIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ids(m.known)
}

// recordingApplier implements driven.UpdateApplier and records apply order.
type recordingApplier struct {
	mu      sync.Mutex
	applied []string
}

func (r *recordingApplier) Apply(u domain.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, u.ID)
}

func (r *recordingApplier) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.applied))
	copy(out, r.applied)
	return out
}

// mockCredentialsSource implements driven.CredentialsSource for testing.
type mockCredentialsSource struct {
	availability *signal.Value[domain.CredentialsState]
	invalidated  *signal.Event[struct{}]
}

func newMockCredentialsSource(state domain.CredentialsState) *mockCredentialsSource {
	return &mockCredentialsSource{
		availability: signal.NewValue(state),
		invalidated:  signal.NewEvent[struct{}](),
	}
}

func (m *mockCredentialsSource) Availability() *signal.Value[domain.CredentialsState] {
	return m.availability
}

func (m *mockCredentialsSource) Invalidated() *signal.Event[struct{}] {
	return m.invalidated
}

// Ensure mocks implement interfaces
var (
	_ driven.RemoteUpdateStore = (*mockRemoteStore)(nil)
	_ driven.LocalLog          = (*mockLocalLog)(nil)
	_ driven.UpdateApplier     = (*recordingApplier)(nil)
	_ driven.CredentialsSource = (*mockCredentialsSource)(nil)
)

var errDiskFull = errors.New("disk full")

func update(id string) domain.Update {
	return domain.Update{
		ID:      id,
		Actions: []domain.Action{{Kind: "noop"}},
	}
}

func ids(updates []domain.Update) []string {
	out := make([]string, 0, len(updates))
	for _, u := range updates {
		out = append(out, u.ID)
	}
	return out
}

func indexOf(updates []domain.Update, id string) int {
	for i, u := range updates {
		if u.ID == id {
			return i
		}
	}
	return -1
}
