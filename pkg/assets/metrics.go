package assets

// metrics.go mirrors the teacher cache's metrics abstraction: a thin
// interface over Prometheus so the asset cache can run with or without
// metrics, labeled by asset type rather than by shard.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

type metricsSink interface {
	incLoad(assetType assetkey.Type)
	incDedup(assetType assetkey.Type)
	incFetchFailure()
	incParseFailure(assetType assetkey.Type)
	incReload(assetType assetkey.Type)
	incDrop(assetType assetkey.Type)
	setActiveAssets(n int)
}

type noopMetrics struct{}

func (noopMetrics) incLoad(assetkey.Type)         {}
func (noopMetrics) incDedup(assetkey.Type)        {}
func (noopMetrics) incFetchFailure()              {}
func (noopMetrics) incParseFailure(assetkey.Type) {}
func (noopMetrics) incReload(assetkey.Type)        {}
func (noopMetrics) incDrop(assetkey.Type)          {}
func (noopMetrics) setActiveAssets(int)            {}

type promMetrics struct {
	loads          *prometheus.CounterVec
	dedups         *prometheus.CounterVec
	fetchFailures  prometheus.Counter
	parseFailures  *prometheus.CounterVec
	reloads        *prometheus.CounterVec
	drops          *prometheus.CounterVec
	activeAssets   prometheus.Gauge
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	label := []string{"asset_type"}
	pm := &promMetrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asset_cache", Name: "loads_total", Help: "Number of load requests issued.",
		}, label),
		dedups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asset_cache", Name: "dedup_total", Help: "Number of loads that reused an in-flight or existing handle.",
		}, label),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asset_cache", Name: "fetch_failures_total", Help: "Number of file-backed loads that failed to open their source file.",
		}),
		parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asset_cache", Name: "parse_failures_total", Help: "Number of loads whose lifecycler returned an error.",
		}, label),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asset_cache", Name: "reloads_total", Help: "Number of reload notifications emitted.",
		}, label),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asset_cache", Name: "drops_total", Help: "Number of handle inners deallocated.",
		}, label),
		activeAssets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asset_cache", Name: "active_assets", Help: "Number of live cells in the handle bank.",
		}),
	}
	reg.MustRegister(pm.loads, pm.dedups, pm.fetchFailures, pm.parseFailures, pm.reloads, pm.drops, pm.activeAssets)
	return pm
}

func typeLabel(t assetkey.Type) string { return strconv.Itoa(int(t)) }

func (m *promMetrics) incLoad(t assetkey.Type)          { m.loads.WithLabelValues(typeLabel(t)).Inc() }
func (m *promMetrics) incDedup(t assetkey.Type)         { m.dedups.WithLabelValues(typeLabel(t)).Inc() }
func (m *promMetrics) incFetchFailure()                 { m.fetchFailures.Inc() }
func (m *promMetrics) incParseFailure(t assetkey.Type)  { m.parseFailures.WithLabelValues(typeLabel(t)).Inc() }
func (m *promMetrics) incReload(t assetkey.Type)        { m.reloads.WithLabelValues(typeLabel(t)).Inc() }
func (m *promMetrics) incDrop(t assetkey.Type)          { m.drops.WithLabelValues(typeLabel(t)).Inc() }
func (m *promMetrics) setActiveAssets(n int)            { m.activeAssets.Set(float64(n)) }

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
