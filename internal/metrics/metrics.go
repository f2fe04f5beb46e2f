package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RenderPassesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_render_passes_total",
		Help: "Total number of completed render passes",
	})
	RenderPassesDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_render_passes_dropped_total",
		Help: "Render requests dropped because a pass was already in flight",
	})
	RenderEmptyTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_render_empty_total",
		Help: "Render passes that had no aggregate domain to color",
	})
	RenderDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "atlas_render_duration_ms",
		Help:    "Render pass duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
	})
	MatchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "atlas_match_duration_ms",
		Help:    "Record to boundary matching duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	BoundariesPaintedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_boundaries_painted_total",
		Help: "Boundaries painted, by whether they carried data",
	}, []string{"data"})
	PaintFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_paint_failures_total",
		Help: "Boundaries whose paint step failed",
	})
	BoundaryCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_boundary_cache_total",
		Help: "Boundary cache lookups by tier and result",
	}, []string{"tier", "result"})
	BoundaryLoadFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_boundary_load_fail_total",
		Help: "Countries whose boundaries could not be loaded",
	})
)

func init() {
	prometheus.MustRegister(RenderPassesTotal)
	prometheus.MustRegister(RenderPassesDroppedTotal)
	prometheus.MustRegister(RenderEmptyTotal)
	prometheus.MustRegister(RenderDurationMs)
	prometheus.MustRegister(MatchDurationMs)
	prometheus.MustRegister(BoundariesPaintedTotal)
	prometheus.MustRegister(PaintFailuresTotal)
	prometheus.MustRegister(BoundaryCacheTotal)
	prometheus.MustRegister(BoundaryLoadFailTotal)
}

// 文档注释：返回 Prometheus 指标处理器，挂载到 {API_BASE}/metrics
func Handler() http.Handler { return promhttp.Handler() }
