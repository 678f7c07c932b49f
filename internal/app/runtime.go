// Package app assembles the sync runtime: local log, remote update store,
// credentials, note board, engine and scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/updatesync/internal/adapters/driven/credentials"
	"github.com/custodia-labs/updatesync/internal/adapters/driven/metrics"
	"github.com/custodia-labs/updatesync/internal/adapters/driven/objectstore/s3"
	"github.com/custodia-labs/updatesync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/updatesync/internal/adapters/driven/updatestore"
	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/core/services"
	"github.com/custodia-labs/updatesync/internal/logger"
	"github.com/custodia-labs/updatesync/internal/notes"
)

// providerRefreshInterval is how often AWS chain credentials are re-resolved.
const providerRefreshInterval = time.Minute

// Options configures Open.
type Options struct {
	// Settings are the validated sync settings.
	Settings domain.SyncSettings

	// SchedulerConfig overrides the scheduler derived from Settings.
	SchedulerConfig *domain.SchedulerConfig

	// Registry receives the sync metrics. Nil creates a private registry.
	Registry *prometheus.Registry

	// Objects replaces the S3 object store.
	Objects driven.ObjectStore

	// Credentials replaces the source selected by Settings.
	Credentials driven.CredentialsSource
}

// Runtime holds the assembled components. Close releases them.
type Runtime struct {
	Engine          *services.Engine
	Board           *services.Container[notes.Board]
	Remote          *updatestore.Store
	Scheduler       *services.Scheduler
	SchedulerConfig domain.SchedulerConfig
	Metrics         *metrics.Prometheus
	Credentials     *services.CredentialsSignal

	cancel  context.CancelFunc
	closers []func() error
}

// Open wires the runtime and initialises the engine, replaying the local
// log into the board.
func Open(ctx context.Context, opts Options) (_ *Runtime, err error) {
	settings := opts.Settings
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	rt := &Runtime{cancel: cancel}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	db, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening local log: %w", err)
	}
	rt.onClose(db.Close)

	objects := opts.Objects
	if objects == nil {
		store, err := s3.New(ctx, settings.Remote)
		if err != nil {
			return nil, err
		}
		objects = store
	}

	source := opts.Credentials
	if source == nil {
		source, err = rt.openSource(ctx, runCtx, settings)
		if err != nil {
			return nil, err
		}
	}

	rt.Credentials = services.NewCredentialsSignal(source)
	rt.onClose(func() error { rt.Credentials.Close(); return nil })

	rt.Remote = updatestore.New(objects, rt.Credentials, updatestore.Config{
		Bucket:    settings.Remote.Bucket,
		Namespace: settings.Namespace,
	})
	rt.onClose(func() error { rt.Remote.Close(); return nil })

	rt.Metrics, err = metrics.New(opts.Registry)
	if err != nil {
		return nil, err
	}

	rt.Board = notes.NewContainer()
	rt.Engine = services.NewEngine(
		rt.Remote,
		db.LocalLog(settings.Namespace.AppID, settings.Namespace.DataSet),
		rt.Board,
		rt.Metrics,
	)
	rt.onClose(rt.Engine.Close)

	rt.SchedulerConfig = domain.SchedulerConfigFor(settings)
	if opts.SchedulerConfig != nil {
		rt.SchedulerConfig = *opts.SchedulerConfig
	}
	rt.Scheduler = services.NewScheduler(rt.SchedulerConfig, db.SchedulerStore(), rt.Engine)
	rt.onClose(rt.Scheduler.Stop)

	if err := rt.Engine.Init(ctx); err != nil {
		return nil, err
	}
	logger.Debug("Runtime open, data in %s", db.Path())
	return rt, nil
}

// openSource builds the credentials source named by settings. Background
// work stops when runCtx is cancelled.
func (r *Runtime) openSource(ctx, runCtx context.Context, settings domain.SyncSettings) (driven.CredentialsSource, error) {
	switch settings.CredentialsSource {
	case domain.CredentialsFromAWS:
		source, err := credentials.NewDefaultProviderSource(ctx, settings.Remote.Region, settings.UserID)
		if err != nil {
			return nil, err
		}
		if err := source.Refresh(ctx); err != nil {
			logger.Warn("AWS credentials unavailable: %v", err)
		}
		go refreshLoop(runCtx, source)
		return source, nil
	default:
		path, err := CredentialsPath(settings)
		if err != nil {
			return nil, err
		}
		source := credentials.NewFileSource(path)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating credentials directory: %w", err)
		}
		if err := source.Watch(runCtx); err != nil {
			return nil, err
		}
		r.onClose(source.Close)
		return source, nil
	}
}

func refreshLoop(ctx context.Context, source *credentials.ProviderSource) {
	ticker := time.NewTicker(providerRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := source.Refresh(ctx); err != nil {
				logger.Debug("AWS credentials refresh: %v", err)
			}
		}
	}
}

// CredentialsPath returns the credentials file for settings, defaulting to
// ~/.updatesync/credentials.toml.
func CredentialsPath(settings domain.SyncSettings) (string, error) {
	if settings.CredentialsFile != "" {
		return settings.CredentialsFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".updatesync", "credentials.toml"), nil
}

// Close stops background work and releases resources in reverse order of
// acquisition.
func (r *Runtime) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *Runtime) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}
