// Package metrics records engine activity as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
)

const namespace = "updatesync"

// Ensure Prometheus implements the interface.
var _ driven.SyncMetrics = (*Prometheus)(nil)

// Prometheus implements driven.SyncMetrics with Prometheus collectors.
type Prometheus struct {
	gatherer prometheus.Gatherer

	applied      *prometheus.CounterVec
	writes       *prometheus.CounterVec
	fetched      prometheus.Histogram
	unsaved      prometheus.Gauge
	availability prometheus.Gauge
}

// New creates the collectors and registers them on reg.
// A nil reg uses a fresh registry, which Handler then serves.
func New(reg *prometheus.Registry) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	p := &Prometheus{
		gatherer: reg,
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_applied_total",
			Help:      "Updates applied to application state, by source.",
		}, []string{"source"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_writes_total",
			Help:      "Remote update writes, by result.",
		}, []string{"result"}),
		fetched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_fetch_updates",
			Help:      "Updates returned by one remote fetch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		unsaved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unsaved_updates",
			Help:      "Updates waiting for a remote write.",
		}),
		availability: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remote_available",
			Help:      "1 while the remote store is available.",
		}),
	}

	var err error
	if p.applied, err = register(reg, p.applied); err != nil {
		return nil, err
	}
	if p.writes, err = register(reg, p.writes); err != nil {
		return nil, err
	}
	if p.fetched, err = register(reg, p.fetched); err != nil {
		return nil, err
	}
	if p.unsaved, err = register(reg, p.unsaved); err != nil {
		return nil, err
	}
	if p.availability, err = register(reg, p.availability); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateApplied counts an update reaching application state.
func (p *Prometheus) UpdateApplied(source string) {
	p.applied.WithLabelValues(source).Inc()
}

// RemoteWrite counts a remote write attempt.
func (p *Prometheus) RemoteWrite(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	p.writes.WithLabelValues(result).Inc()
}

// RemoteFetch observes the size of one fetch.
func (p *Prometheus) RemoteFetch(count int) {
	p.fetched.Observe(float64(count))
}

// UnsavedDepth sets the unsaved queue length.
func (p *Prometheus) UnsavedDepth(n int) {
	p.unsaved.Set(float64(n))
}

// Availability sets the availability gauge.
func (p *Prometheus) Availability(available bool) {
	if available {
		p.availability.Set(1)
		return
	}
	p.availability.Set(0)
}

// Handler serves the registered metrics in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// register adds collector to reg. When an identical collector is already
// registered, that one is returned so both users share it.
func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}
