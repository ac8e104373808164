package metrics

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	grpc_prom "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/Nazarious-ucu/weather-voice-assistant/internal/models"
)

const divisor = 100

// Metrics holds Prometheus metric vectors for the assistant.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// gRPC server metrics
	GRPC *grpc_prom.ServerMetrics

	// Domain metrics
	LookupsTotal    *prometheus.CounterVec
	LookupDuration  *prometheus.HistogramVec
	ToolInvocations *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a private registry.
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests received",
			},
			[]string{"method", "endpoint", "status_class"},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: serviceName,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of HTTP request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		GRPC: grpc_prom.NewServerMetrics(),

		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "weather_lookups_total",
				Help:      "Weather lookups by outcome",
			},
			[]string{"kind"},
		),

		LookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: serviceName,
				Name:      "weather_lookup_duration_seconds",
				Help:      "Weather lookup latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		ToolInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "tool_invocations_total",
				Help:      "Tool calls made by the language model",
			},
			[]string{"tool", "result"},
		),
	}

	m.GRPC.EnableHandlingTimeHistogram()

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GRPC,
		m.LookupsTotal,
		m.LookupDuration,
		m.ToolInvocations,
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(
				collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/sched/latencies:seconds")},
			),
		),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// HTTPMiddleware returns a Gin middleware to instrument HTTP endpoints.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		d := time.Since(start)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		m.HTTPRequestsTotal.With(prometheus.Labels{
			"method":       c.Request.Method,
			"endpoint":     endpoint,
			"status_class": getStatusClass(c.Writer.Status()),
		}).Inc()
		m.HTTPRequestDuration.With(prometheus.Labels{
			"method":   c.Request.Method,
			"endpoint": endpoint,
		}).Observe(d.Seconds())
	}
}

// ObserveLookup records the outcome of one weather lookup.
func (m *Metrics) ObserveLookup(kind models.LookupKind, d time.Duration) {
	m.LookupsTotal.WithLabelValues(string(kind)).Inc()
	m.LookupDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

// ObserveToolCall records a tool invocation; err marks it as failed.
func (m *Metrics) ObserveToolCall(tool string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ToolInvocations.WithLabelValues(tool, result).Inc()
}

// UnaryInterceptor returns a gRPC UnaryServerInterceptor for metrics.
func (m *Metrics) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return m.GRPC.UnaryServerInterceptor()
}

// StreamInterceptor returns a gRPC StreamServerInterceptor for metrics.
func (m *Metrics) StreamInterceptor() grpc.StreamServerInterceptor {
	return m.GRPC.StreamServerInterceptor()
}

func getStatusClass(code int) string {
	return fmt.Sprintf("%dxx", code/divisor)
}
