// Package metrics 提供 Prometheus 指标集合，覆盖 HTTP/gRPC 请求与定价业务指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合。所有 Record 方法对 nil 接收者安全，便于在测试与 CLI 中省略。
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// gRPC 请求计数
	GRPCRequestsTotal *prometheus.CounterVec
	// gRPC 请求耗时
	GRPCRequestDuration *prometheus.HistogramVec

	// 业务指标
	OptionsPriced       *prometheus.CounterVec
	PricingDuration     prometheus.Histogram
	MarketDataRequests  *prometheus.CounterVec
	VolatilityFallbacks prometheus.Counter
}

// New 创建并注册指标，每个实例使用独立的 Registry
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		GRPCRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "grpc_requests_total",
			Help:        "Total gRPC requests",
			ConstLabels: constLabels,
		}, []string{"method", "code"}),
		GRPCRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "grpc_request_duration_seconds",
			Help:        "gRPC request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method"}),

		OptionsPriced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "options_priced_total",
			Help:        "Total option valuations by type and outcome",
			ConstLabels: constLabels,
		}, []string{"type", "status"}),
		PricingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "pricing_duration_seconds",
			Help:        "Black-Scholes evaluation duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 1e-2},
		}),
		MarketDataRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "market_data_requests_total",
			Help:        "Upstream market data requests by outcome",
			ConstLabels: constLabels,
		}, []string{"status"}),
		VolatilityFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "volatility_fallbacks_total",
			Help:        "Times the default volatility replaced a failed estimate",
			ConstLabels: constLabels,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GRPCRequestsTotal,
		m.GRPCRequestDuration,
		m.OptionsPriced,
		m.PricingDuration,
		m.MarketDataRequests,
		m.VolatilityFallbacks,
	)
	return m
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 的 HTTP 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGRPCRequest 记录 gRPC 请求
func (m *Metrics) RecordGRPCRequest(method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordPricing 记录一次估值，status 为 ok / invalid / domain / error
func (m *Metrics) RecordPricing(optionType, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.OptionsPriced.WithLabelValues(optionType, status).Inc()
	m.PricingDuration.Observe(duration.Seconds())
}

// RecordMarketData 记录一次上游行情请求
func (m *Metrics) RecordMarketData(status string) {
	if m == nil {
		return
	}
	m.MarketDataRequests.WithLabelValues(status).Inc()
}

// RecordVolatilityFallback 记录一次波动率降级
func (m *Metrics) RecordVolatilityFallback() {
	if m == nil {
		return
	}
	m.VolatilityFallbacks.Inc()
}
