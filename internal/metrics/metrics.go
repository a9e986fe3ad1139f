// Package metrics wires the simulation's runtime counters into Prometheus,
// in the same shape the teacher's HealthLogger registers gauges/counters
// (core/system_health_logging.go): each Metrics owns its own Registry of
// named gauges and counters, registered once at construction.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics owns every gauge/counter the simulation publishes, grounded on
// the DOMAIN STACK table in SPEC_FULL.md: tick duration, per-chunk worker
// accounting, and lane queue depth.
type Metrics struct {
	registry *prometheus.Registry

	TickDuration prometheus.Histogram

	WorkerOps   prometheus.Counter
	WorkerIdle  prometheus.Counter
	WorkerFail  prometheus.Counter
	WorkerClean prometheus.Counter

	LaneQueueDepth prometheus.Gauge
	EnergyProduced prometheus.Gauge
	EnergyConsumed prometheus.Gauge
}

// New constructs and registers every metric against a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "legion_tick_duration_seconds",
			Help: "Wall-clock duration of one world simulation tick.",
		}),
		WorkerOps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "legion_chunk_worker_ops_total",
			Help: "Total producer/consumer matches completed by chunk workers.",
		}),
		WorkerIdle: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "legion_chunk_worker_idle_total",
			Help: "Total worker-slots that found no queued work this tick.",
		}),
		WorkerFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "legion_chunk_worker_fail_total",
			Help: "Total failed consumer/producer match attempts.",
		}),
		WorkerClean: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "legion_chunk_worker_clean_total",
			Help: "Total tombstoned queue slots popped without doing work.",
		}),
		LaneQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "legion_lane_queue_depth",
			Help: "Number of in-flight payloads across all lanes.",
		}),
		EnergyProduced: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "legion_energy_produced",
			Help: "Total energy produced across all chunks this tick.",
		}),
		EnergyConsumed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "legion_energy_consumed",
			Help: "Total energy consumed across all chunks this tick.",
		}),
	}

	reg.MustRegister(
		m.TickDuration,
		m.WorkerOps, m.WorkerIdle, m.WorkerFail, m.WorkerClean,
		m.LaneQueueDepth, m.EnergyProduced, m.EnergyConsumed,
	)

	return m
}

// Registry returns the underlying Prometheus registry, e.g. to mount a
// promhttp.HandlerFor on the admin HTTP surface.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveWorkers records one chunk-step's worker counters in one call.
func (m *Metrics) ObserveWorkers(ops, idle, fail, clean int) {
	m.WorkerOps.Add(float64(ops))
	m.WorkerIdle.Add(float64(idle))
	m.WorkerFail.Add(float64(fail))
	m.WorkerClean.Add(float64(clean))
}
