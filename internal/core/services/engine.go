package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/core/ports/driving"
	"github.com/custodia-labs/updatesync/internal/logger"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// Ensure Engine implements the interface.
var _ driving.SyncEngine = (*Engine)(nil)

// Sources recorded by SyncMetrics.UpdateApplied.
const (
	sourceLocal  = "local"
	sourceRemote = "remote"
	sourceReplay = "replay"
)

// Engine reconciles the local update log with the remote update store and
// applies every update to application state exactly once.
//
// All changes to the known set, the unsaved queue and application state
// happen under mu. Paths that notify take emitMu before mu. Remote I/O
// happens outside mu and is serialised by passMu, so writes leave in order
// and a dispatched update is never written twice concurrently.
type Engine struct {
	remote  driven.RemoteUpdateStore
	local   driven.LocalLog
	state   driven.UpdateApplier
	metrics driven.SyncMetrics

	mu          sync.Mutex
	known       map[string]struct{}
	queued      map[string]struct{}
	initialised bool
	closed      bool
	// online is the last available state a pass was started for.
	online bool

	// emitMu keeps notifications in apply order without holding mu while
	// subscribers run. Never acquire it while holding mu.
	emitMu sync.Mutex

	passMu  sync.Mutex
	syncing atomic.Bool

	updates  *signal.Event[domain.Update]
	failures *signal.Event[error]

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
}

// NewEngine creates an engine. metrics may be nil.
func NewEngine(
	remote driven.RemoteUpdateStore,
	local driven.LocalLog,
	state driven.UpdateApplier,
	metrics driven.SyncMetrics,
) *Engine {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		remote:   remote,
		local:    local,
		state:    state,
		metrics:  metrics,
		known:    make(map[string]struct{}),
		queued:   make(map[string]struct{}),
		updates:  signal.NewEvent[domain.Update](),
		failures: signal.NewEvent[error](),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Updates streams every update applied to application state, once per ID.
func (e *Engine) Updates() *signal.Event[domain.Update] {
	return e.updates
}

// Failures streams local persistence errors hit by background passes.
// Foreground calls return these errors instead.
func (e *Engine) Failures() *signal.Event[error] {
	return e.failures
}

// Init replays the local log, then synchronises if the remote store is
// available. Later transitions to available trigger a pass each.
func (e *Engine) Init(ctx context.Context) error {
	logger.Section("Engine Init")

	e.lock()
	if e.initialised {
		e.unlock()
		logger.Warn("Engine already initialised")
		return nil
	}

	knownIDs, err := e.local.KnownIDs(ctx)
	if err != nil {
		e.unlock()
		return fmt.Errorf("%w: known ids: %w", domain.ErrLocalPersistence, err)
	}
	known, err := e.local.ListKnown(ctx)
	if err != nil {
		e.unlock()
		return fmt.Errorf("%w: list known: %w", domain.ErrLocalPersistence, err)
	}
	unsaved, err := e.local.ListUnsaved(ctx)
	if err != nil {
		e.unlock()
		return fmt.Errorf("%w: list unsaved: %w", domain.ErrLocalPersistence, err)
	}

	// The known set comes from the log's set view; ListKnown gives the
	// replay order.
	for id := range knownIDs {
		e.known[id] = struct{}{}
	}
	var applied []domain.Update
	replayed := make(map[string]struct{}, len(known))
	for _, u := range known {
		if _, ok := replayed[u.ID]; ok {
			continue
		}
		replayed[u.ID] = struct{}{}
		e.known[u.ID] = struct{}{}
		e.apply(u, sourceReplay)
		applied = append(applied, u)
	}
	for _, u := range unsaved {
		e.queued[u.ID] = struct{}{}
		if !e.markKnown(u.ID) {
			continue
		}
		// The update was queued but never recorded as known.
		if err := e.local.AppendKnown(ctx, u); err != nil {
			e.unlock()
			return fmt.Errorf("%w: append known %s: %w", domain.ErrLocalPersistence, u.ID, err)
		}
		e.apply(u, sourceReplay)
		applied = append(applied, u)
	}
	e.initialised = true
	e.metrics.UnsavedDepth(len(e.queued))
	e.emitLocked(applied)

	logger.Info("Replayed %d known and %d unsaved updates", len(known), len(unsaved))

	// A transition racing the subscription is delivered to onAvailability
	// as well; startPass lets only one of the two react to it.
	unsubscribe := e.remote.Availability().Subscribe(e.onAvailability)
	e.mu.Lock()
	e.unsubscribe = unsubscribe
	start := e.startPass(e.remote.Availability().Get())
	e.mu.Unlock()

	if !start {
		logger.Info("Remote store unavailable or already synchronising, not starting a pass")
		return nil
	}
	return e.runPass(ctx)
}

// DispatchUpdate records update as unsaved, applies it, and stores it
// remotely if possible. Remote failures leave it queued and are not
// returned; only local persistence failures are.
func (e *Engine) DispatchUpdate(ctx context.Context, update domain.Update) error {
	if err := update.Validate(); err != nil {
		return err
	}

	e.lock()
	if !e.initialised {
		e.unlock()
		return domain.ErrEngineNotInitialised
	}
	if _, ok := e.known[update.ID]; ok {
		e.unlock()
		logger.Debug("Update %s already known, ignoring dispatch", update.ID)
		return nil
	}
	if err := e.local.AppendUnsaved(ctx, update); err != nil {
		e.unlock()
		return fmt.Errorf("%w: append unsaved %s: %w", domain.ErrLocalPersistence, update.ID, err)
	}
	e.queued[update.ID] = struct{}{}
	if err := e.local.AppendKnown(ctx, update); err != nil {
		e.unlock()
		return fmt.Errorf("%w: append known %s: %w", domain.ErrLocalPersistence, update.ID, err)
	}
	e.markKnown(update.ID)
	e.apply(update, sourceLocal)
	e.metrics.UnsavedDepth(len(e.queued))
	e.emitLocked([]domain.Update{update})

	if !e.remote.Availability().Get().IsAvailable() {
		logger.Debug("Remote store unavailable, update %s queued", update.ID)
		return nil
	}

	e.passMu.Lock()
	defer e.passMu.Unlock()
	_, err := e.write(ctx, update)
	return err
}

// CheckForUpdates applies remote updates whose IDs are not yet known.
// It is a no-op while the remote store is unavailable.
func (e *Engine) CheckForUpdates(ctx context.Context) (int, error) {
	if err := e.requireInit(); err != nil {
		return 0, err
	}
	if !e.remote.Availability().Get().IsAvailable() {
		return 0, nil
	}

	e.passMu.Lock()
	defer e.passMu.Unlock()
	return e.check(ctx)
}

// Flush writes every queued unsaved update once, in FIFO order.
// It is a no-op while the remote store is unavailable.
func (e *Engine) Flush(ctx context.Context) (int, error) {
	if err := e.requireInit(); err != nil {
		return 0, err
	}
	if !e.remote.Availability().Get().IsAvailable() {
		return 0, nil
	}

	e.passMu.Lock()
	defer e.passMu.Unlock()
	return e.flush(ctx)
}

// Status reports the current engine state.
func (e *Engine) Status(_ context.Context) (*driving.EngineStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &driving.EngineStatus{
		Availability: e.remote.Availability().Get(),
		Known:        len(e.known),
		Unsaved:      len(e.queued),
		Syncing:      e.syncing.Load(),
	}, nil
}

// Wait blocks until passes started by availability transitions finish.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close stops reacting to availability transitions and waits for any
// running pass.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	unsubscribe := e.unsubscribe
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	e.cancel()
	e.wg.Wait()
	return nil
}

// onAvailability runs on the goroutine that changed availability, so the
// pass itself runs in the background.
func (e *Engine) onAvailability(a domain.Availability) {
	e.metrics.Availability(a.IsAvailable())

	e.mu.Lock()
	if e.closed || !e.startPass(a) {
		e.mu.Unlock()
		if !a.IsAvailable() {
			logger.Info("Remote store %s, pausing remote operations", a)
		}
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	logger.Info("Remote store available, synchronising")
	go func() {
		defer e.wg.Done()
		if err := e.runPass(e.ctx); err != nil {
			logger.Error("Synchronisation pass failed: %v", err)
			e.failures.Send(err)
		}
	}()
}

// runPass checks for remote updates before pushing the local backlog.
func (e *Engine) runPass(ctx context.Context) error {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	e.syncing.Store(true)
	defer e.syncing.Store(false)

	if _, err := e.check(ctx); err != nil {
		return err
	}
	_, err := e.flush(ctx)
	return err
}

// check requires passMu.
func (e *Engine) check(ctx context.Context) (int, error) {
	fetched := e.remote.FetchAll(ctx)
	e.metrics.RemoteFetch(len(fetched))

	e.lock()
	var applied []domain.Update
	for _, u := range fetched {
		if _, ok := e.known[u.ID]; ok {
			continue
		}
		if err := e.local.AppendKnown(ctx, u); err != nil {
			// Keep what was already applied visible before failing.
			e.emitLocked(applied)
			return len(applied), fmt.Errorf("%w: append known %s: %w", domain.ErrLocalPersistence, u.ID, err)
		}
		e.markKnown(u.ID)
		e.apply(u, sourceRemote)
		applied = append(applied, u)
	}
	e.emitLocked(applied)

	if len(applied) > 0 {
		logger.Info("Applied %d remote updates", len(applied))
	}
	return len(applied), nil
}

// flush requires passMu. A failed write stays queued for the next pass;
// losing availability mid-pass stops it.
func (e *Engine) flush(ctx context.Context) (int, error) {
	unsaved, err := e.local.ListUnsaved(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: list unsaved: %w", domain.ErrLocalPersistence, err)
	}

	written := 0
	for _, u := range unsaved {
		if ctx.Err() != nil {
			return written, nil
		}
		ok, err := e.write(ctx, u)
		if err != nil {
			return written, err
		}
		if ok {
			written++
			continue
		}
		if !e.remote.Availability().Get().IsAvailable() {
			logger.Info("Remote store became unavailable, stopping flush")
			break
		}
	}
	if written > 0 {
		logger.Info("Flushed %d unsaved updates", written)
	}
	return written, nil
}

// write stores one queued update and dequeues it on success. It requires
// passMu. The returned error is a local persistence failure only.
func (e *Engine) write(ctx context.Context, u domain.Update) (bool, error) {
	e.mu.Lock()
	_, stillQueued := e.queued[u.ID]
	e.mu.Unlock()
	if !stillQueued {
		return true, nil
	}

	if err := e.remote.Store(ctx, u); err != nil {
		e.metrics.RemoteWrite(false)
		if errors.Is(err, domain.ErrStoreUnavailable) {
			logger.Debug("Update %s left queued: %v", u.ID, err)
		} else {
			logger.Warn("Update %s left queued: %v", u.ID, err)
		}
		return false, nil
	}
	e.metrics.RemoteWrite(true)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.local.RemoveUnsaved(ctx, u.ID); err != nil {
		return false, fmt.Errorf("%w: remove unsaved %s: %w", domain.ErrLocalPersistence, u.ID, err)
	}
	delete(e.queued, u.ID)
	e.metrics.UnsavedDepth(len(e.queued))
	return true, nil
}

// markKnown requires mu and reports whether id was new.
func (e *Engine) markKnown(id string) bool {
	if _, ok := e.known[id]; ok {
		return false
	}
	e.known[id] = struct{}{}
	return true
}

// apply requires mu.
func (e *Engine) apply(u domain.Update, source string) {
	e.state.Apply(u)
	e.metrics.UpdateApplied(source)
}

// startPass requires mu. It records a and reports whether a is an
// available state no pass has been started for yet.
func (e *Engine) startPass(a domain.Availability) bool {
	if !a.IsAvailable() {
		e.online = false
		return false
	}
	if e.online {
		return false
	}
	e.online = true
	return true
}

func (e *Engine) lock() {
	e.emitMu.Lock()
	e.mu.Lock()
}

func (e *Engine) unlock() {
	e.mu.Unlock()
	e.emitMu.Unlock()
}

// emitLocked must be called after lock. It releases mu before notifying,
// so subscribers may call Status, and emitMu after.
func (e *Engine) emitLocked(applied []domain.Update) {
	e.mu.Unlock()
	defer e.emitMu.Unlock()
	for _, u := range applied {
		e.updates.Send(u)
	}
}

func (e *Engine) requireInit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialised {
		return domain.ErrEngineNotInitialised
	}
	return nil
}

// nopMetrics discards all measurements.
type nopMetrics struct{}

func (nopMetrics) UpdateApplied(string) {}
func (nopMetrics) RemoteWrite(bool)     {}
func (nopMetrics) RemoteFetch(int)      {}
func (nopMetrics) UnsavedDepth(int)     {}
func (nopMetrics) Availability(bool)    {}
