package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 未匹配路由统一使用该标签，避免扫描请求导致标签数量膨胀
const unmatchedRoute = "unmatched"

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route template and status",
		},
		[]string{"method", "route", "status"},
	)

	// 调用评分模型时每道主观题需要数秒
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route template",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 180},
		},
		[]string{"method", "route"},
	)

	registerOnce sync.Once
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		RequestCounter,
		RequestDuration,
		ResponsesGraded,
		OracleDuration,
		AttemptsEvaluated,
		ScoreOverrides,
	}
}

// Init 注册全部指标，重复调用无副作用
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(collectors()...)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		RequestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
