package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
)

// Ensure LocalLog implements the interface.
var _ driven.LocalLog = (*LocalLog)(nil)

// LocalLog is an in-memory implementation of driven.LocalLog.
// Updates are kept encoded so callers never share action payloads with the log.
// Reusing one LocalLog across engines simulates a process restart.
type LocalLog struct {
	mu      sync.RWMutex
	unsaved []entry
	known   []entry
}

type entry struct {
	id   string
	body []byte
}

// NewLocalLog creates a new in-memory local log.
func NewLocalLog() *LocalLog {
	return &LocalLog{}
}

// AppendUnsaved queues an update. Queuing an ID twice keeps the first entry.
func (l *LocalLog) AppendUnsaved(_ context.Context, update domain.Update) error {
	body, err := domain.EncodeUpdate(update)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if indexOf(l.unsaved, update.ID) < 0 {
		l.unsaved = append(l.unsaved, entry{id: update.ID, body: body})
	}
	return nil
}

// RemoveUnsaved drops a queued update. Missing IDs are ignored.
func (l *LocalLog) RemoveUnsaved(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := indexOf(l.unsaved, id); i >= 0 {
		l.unsaved = append(l.unsaved[:i:i], l.unsaved[i+1:]...)
	}
	return nil
}

// ListUnsaved returns queued updates oldest first.
func (l *LocalLog) ListUnsaved(_ context.Context) ([]domain.Update, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return decodeAll("unsaved", l.unsaved)
}

// AppendKnown records an applied update. Recording an ID twice keeps the first entry.
func (l *LocalLog) AppendKnown(_ context.Context, update domain.Update) error {
	body, err := domain.EncodeUpdate(update)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if indexOf(l.known, update.ID) < 0 {
		l.known = append(l.known, entry{id: update.ID, body: body})
	}
	return nil
}

// ListKnown returns applied updates in application order.
func (l *LocalLog) ListKnown(_ context.Context) ([]domain.Update, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return decodeAll("known", l.known)
}

// KnownIDs returns the IDs of all applied updates.
func (l *LocalLog) KnownIDs(_ context.Context) (map[string]struct{}, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make(map[string]struct{}, len(l.known))
	for _, e := range l.known {
		ids[e.id] = struct{}{}
	}
	return ids, nil
}

func decodeAll(list string, entries []entry) ([]domain.Update, error) {
	updates := make([]domain.Update, 0, len(entries))
	for _, e := range entries {
		u, err := domain.DecodeUpdate(list+"/"+e.id, e.body)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, nil
}

func indexOf(entries []entry, id string) int {
	for i, e := range entries {
		if e.id == id {
			return i
		}
	}
	return -1
}
