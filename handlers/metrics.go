package handlers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Lameir47/MapaAD/models"
)

// Metrics holds the API's Prometheus collectors
type Metrics struct {
	Requests        *prometheus.CounterVec
	Errors          *prometheus.CounterVec
	Latency         *prometheus.HistogramVec
	EmptyResults    prometheus.Counter
	Reloads         prometheus.Counter
	ReloadErrors    prometheus.Counter
	ReloadLatency   prometheus.Histogram
	DatasetRows     prometheus.Gauge
	DatasetLoadedAt prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mapaado",
			Subsystem: "api",
			Name:      "requests",
		}, []string{"route"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mapaado",
			Subsystem: "api",
			Name:      "errors",
		}, []string{"route"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mapaado",
			Subsystem: "api",
			Name:      "latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		EmptyResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapaado",
			Subsystem: "api",
			Name:      "empty_results",
		}),
		Reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapaado",
			Subsystem: "dataset",
			Name:      "reloads",
		}),
		ReloadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapaado",
			Subsystem: "dataset",
			Name:      "reload_errors",
		}),
		ReloadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mapaado",
			Subsystem: "dataset",
			Name:      "reload_latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mapaado",
			Subsystem: "dataset",
			Name:      "rows",
		}),
		DatasetLoadedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mapaado",
			Subsystem: "dataset",
			Name:      "last_loaded",
		}),
	}

	reg.MustRegister(
		m.Requests, m.Errors, m.Latency, m.EmptyResults,
		m.Reloads, m.ReloadErrors, m.ReloadLatency, m.DatasetRows, m.DatasetLoadedAt)

	return m
}

// ObserveReload records one dataset reload attempt.
// It matches dataset.ReloadFunc so it can be set as the cache's OnReload hook.
func (m *Metrics) ObserveReload(d *models.Dataset, took time.Duration, err error) {
	m.Reloads.Inc()
	m.ReloadLatency.Observe(took.Seconds())
	if err != nil {
		m.ReloadErrors.Inc()
		return
	}
	m.DatasetRows.Set(float64(d.Len()))
	m.DatasetLoadedAt.SetToCurrentTime()
}

func (m *Metrics) observe(route string, start time.Time, failed bool) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route).Inc()
	m.Latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	if failed {
		m.Errors.WithLabelValues(route).Inc()
	}
}
