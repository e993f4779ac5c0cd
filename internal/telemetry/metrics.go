package telemetry

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics содержит счетчики движка кеша. Все методы безопасны на
// nil-приемнике, чтобы резолверы могли работать без телеметрии.
type Metrics struct {
	cacheHits        *prom.CounterVec
	cacheMisses      *prom.CounterVec
	staleFallbacks   *prom.CounterVec
	upstreamFailures *prom.CounterVec
	snapshotRows     prom.Counter
}

// NewMetrics регистрирует счетчики движка кеша в registry.
func NewMetrics(reg prom.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheHits: factory.NewCounterVec(prom.CounterOpts{
			Name: "supplierhub_cache_hits_total",
			Help: "Cache lookups answered without an upstream call.",
		}, []string{"op"}),
		cacheMisses: factory.NewCounterVec(prom.CounterOpts{
			Name: "supplierhub_cache_misses_total",
			Help: "Cache lookups that required an upstream call.",
		}, []string{"op"}),
		staleFallbacks: factory.NewCounterVec(prom.CounterOpts{
			Name: "supplierhub_cache_stale_fallbacks_total",
			Help: "Upstream failures answered with a stale cached value.",
		}, []string{"op"}),
		upstreamFailures: factory.NewCounterVec(prom.CounterOpts{
			Name: "supplierhub_upstream_failures_total",
			Help: "Upstream calls that failed or returned a non-success envelope.",
		}, []string{"op"}),
		snapshotRows: factory.NewCounter(prom.CounterOpts{
			Name: "supplierhub_snapshot_rows_ingested_total",
			Help: "Catalog rows written by the snapshot feed consumer.",
		}),
	}
}

func (m *Metrics) CacheHit(op string) {
	if m != nil {
		m.cacheHits.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) CacheMiss(op string) {
	if m != nil {
		m.cacheMisses.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) StaleFallback(op string) {
	if m != nil {
		m.staleFallbacks.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) UpstreamFailure(op string) {
	if m != nil {
		m.upstreamFailures.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) SnapshotRowsIngested(n int) {
	if m != nil {
		m.snapshotRows.Add(float64(n))
	}
}
