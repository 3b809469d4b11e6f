// Package metric instruments the engine with Prometheus collectors.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ugen"

// Lists whose entries can be pruned.
const (
	// InputsList is the label value for connection lists.
	InputsList = "inputs"
	// DependentsList is the label value for dependents lists.
	DependentsList = "dependents"
)

// Meter holds engine collectors.
type Meter struct {
	blocks        prometheus.Counter
	blockDuration prometheus.Histogram
	allocations   prometheus.Counter
	buffers       prometheus.Gauge
	nodes         prometheus.Gauge
	pruned        *prometheus.CounterVec

	registry *prometheus.Registry
	gatherer prometheus.Gatherer
}

// New creates a meter with a private registry.
func New() *Meter {
	registry := prometheus.NewRegistry()
	m := newMeter()
	registry.MustRegister(m.collectors()...)
	m.registry = registry
	m.gatherer = registry
	return m
}

// NewWith creates a meter and registers collectors with provided
// registerer. Handler serves the default gatherer in this case.
func NewWith(r prometheus.Registerer) (*Meter, error) {
	m := newMeter()
	for _, c := range m.collectors() {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	m.gatherer = prometheus.DefaultGatherer
	if g, ok := r.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m, nil
}

func newMeter() *Meter {
	return &Meter{
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Total number of processed blocks",
		}),
		blockDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "block_duration_seconds",
			Help:      "Time spent to compute a single block",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 14),
		}),
		allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_allocations_total",
			Help:      "Buffers allocated after the pool reserve was exhausted",
		}),
		buffers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_buffers",
			Help:      "Number of buffers owned by the pool",
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes",
			Help:      "Number of live nodes",
		}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pruned_total",
			Help:      "References to deleted nodes removed during traversal",
		}, []string{"list"}),
	}
}

func (m *Meter) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.blocks,
		m.blockDuration,
		m.allocations,
		m.buffers,
		m.nodes,
		m.pruned,
	}
}

// Block records a processed block.
func (m *Meter) Block(d time.Duration) {
	m.blocks.Inc()
	m.blockDuration.Observe(d.Seconds())
}

// PoolGrown records a buffer allocation beyond the reserve.
func (m *Meter) PoolGrown(total int) {
	m.allocations.Inc()
	m.buffers.Set(float64(total))
}

// PoolSize sets the number of buffers owned by the pool.
func (m *Meter) PoolSize(total int) {
	m.buffers.Set(float64(total))
}

// NodeAdded increments live nodes gauge.
func (m *Meter) NodeAdded() {
	m.nodes.Inc()
}

// NodeRemoved decrements live nodes gauge.
func (m *Meter) NodeRemoved() {
	m.nodes.Dec()
}

// Pruned records removal of a reference to a deleted node from the list.
func (m *Meter) Pruned(list string) {
	m.pruned.WithLabelValues(list).Inc()
}

// Handler returns http handler that exposes collected metrics.
func (m *Meter) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Registry returns private registry of the meter. It's nil if meter was
// created with NewWith.
func (m *Meter) Registry() *prometheus.Registry {
	return m.registry
}
