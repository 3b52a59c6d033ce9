package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SpraxDev/NAS-Web/internal/timing"
)

// 指标定义：
// - http_requests_total：按路径与方法统计请求次数（附带状态码标签）
// - http_request_duration_seconds：按路径与方法统计请求耗时分布
// - server_timing_phase_duration_seconds：Server-Timing 各分段耗时分布（按分段名）
var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP 请求计数（按路径/方法/状态）"},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP 请求耗时（秒）", Buckets: prometheus.DefBuckets},
		[]string{"path", "method"},
	)
	PhaseLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "server_timing_phase_duration_seconds", Help: "Server-Timing 分段耗时（秒）", Buckets: prometheus.DefBuckets},
		[]string{"phase"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, PhaseLatency)
}

// Handler 返回记录基础 HTTP 指标的中间件（QPS/耗时）。
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		dur := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		HTTPLatency.WithLabelValues(path, c.Request.Method).Observe(dur)
		HTTPRequests.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// ObservePhases 把一次请求的 Server-Timing 分段计入 PhaseLatency，可作为 timing.Observer 使用。
func ObservePhases(segments []timing.Segment) {
	for _, s := range segments {
		PhaseLatency.WithLabelValues(s.Name).Observe(s.Duration.Seconds())
	}
}

var _ timing.Observer = ObservePhases

// Exposer 返回标准 Prometheus 暴露处理器。
func Exposer() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }
