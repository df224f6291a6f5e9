package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry 应用自有的 Prometheus 收集器
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "propdao",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propdao",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "propdao",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	votesCast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propdao",
			Subsystem: "dao",
			Name:      "votes_total",
			Help:      "Vote attempts by outcome.",
		},
		[]string{"outcome"},
	)

	indexRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propdao",
			Subsystem: "indexer",
			Name:      "runs_total",
			Help:      "Total number of chain index runs.",
		},
		[]string{"success"},
	)

	indexedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "propdao",
			Subsystem: "indexer",
			Name:      "events_total",
			Help:      "Total number of chain events stored.",
		},
	)

	indexDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "propdao",
			Subsystem: "indexer",
			Name:      "run_duration_seconds",
			Help:      "Duration of chain index runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		votesCast,
		indexRuns,
		indexedEvents,
		indexDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler 暴露已注册的指标
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware 记录 HTTP 请求指标，路径使用路由模板避免高基数
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordVote 记录投票结果，outcome 为 accepted 或拒绝原因
func RecordVote(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	votesCast.WithLabelValues(outcome).Inc()
}

// RecordIndexRun 记录一次链上事件索引
func RecordIndexRun(duration time.Duration, events int, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	indexRuns.WithLabelValues(strconv.FormatBool(success)).Inc()
	indexedEvents.Add(float64(events))
	indexDuration.Observe(duration.Seconds())
}
