// Prometheus 指标导出
package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 包含所有 API Server 指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// 博客指标
	BlogReviewsTotal  *prometheus.CounterVec
	CoverUploadsTotal prometheus.Counter
}

// NewMetrics 创建指标实例
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		BlogReviewsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blog_reviews_total",
				Help:      "Total blog review decisions",
			},
			[]string{"decision"},
		),
		CoverUploadsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cover_uploads_total",
				Help:      "Total cover image uploads",
			},
		),
	}
}

// MetricsMiddleware 创建 HTTP 指标中间件
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// 包装 ResponseWriter 以捕获状态码
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter 包装 http.ResponseWriter 以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath 规范化路径，将 ID 替换为占位符
// 例如 /api/v1/blogs/blog-a1b2c3 -> /api/v1/blogs/{id}，避免指标高基数
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/admin/blogs/"):
		rest := path[len("/api/v1/admin/blogs/"):]
		if rest == "pending" {
			return path
		}
		if strings.HasSuffix(rest, "/approve") {
			return "/api/v1/admin/blogs/{id}/approve"
		}
		if strings.HasSuffix(rest, "/reject") {
			return "/api/v1/admin/blogs/{id}/reject"
		}
		return "/api/v1/admin/blogs/{id}"
	case strings.HasPrefix(path, "/api/v1/blogs/"):
		if strings.HasSuffix(path, "/cover") {
			return "/api/v1/blogs/{id}/cover"
		}
		return "/api/v1/blogs/{id}"
	case strings.HasPrefix(path, "/api/v1/auth/users/"):
		if strings.HasSuffix(path, "/role") {
			return "/api/v1/auth/users/{id}/role"
		}
		return "/api/v1/auth/users/{id}"
	default:
		return path
	}
}

// MetricsHandler 返回 Prometheus HTTP Handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordReview 记录审核决定（approved / rejected）
func (m *Metrics) RecordReview(decision string) {
	m.BlogReviewsTotal.WithLabelValues(decision).Inc()
}

// RecordCoverUpload 记录封面图上传
func (m *Metrics) RecordCoverUpload() {
	m.CoverUploadsTotal.Inc()
}
