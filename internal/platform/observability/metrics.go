package observability

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const meterNamespace = "github.com/kirana-pos/api/internal/platform/observability"

type requestMetrics struct {
	requests        metric.Int64Counter
	requestsEnabled bool
	latency         metric.Float64Histogram
	latencyEnabled  bool
}

// MetricsOption customises the request metrics middleware.
type MetricsOption func(*metricsConfig)

type metricsConfig struct {
	meter  metric.Meter
	logger *zap.Logger
}

// WithMetricsMeter injects a custom OpenTelemetry meter.
func WithMetricsMeter(m metric.Meter) MetricsOption {
	return func(cfg *metricsConfig) {
		cfg.meter = m
	}
}

// WithMetricsLogger routes instrument registration warnings to the given logger.
func WithMetricsLogger(logger *zap.Logger) MetricsOption {
	return func(cfg *metricsConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// RequestMetricsMiddleware records request counts and latency per route pattern.
// Instruments that fail to register are skipped rather than failing the server.
func RequestMetricsMiddleware(opts ...MetricsOption) func(http.Handler) http.Handler {
	cfg := metricsConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	meter := cfg.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterNamespace)
	}

	m := &requestMetrics{}

	requests, requestsErr := meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Count of handled HTTP requests"),
	)
	if requestsErr != nil {
		cfg.logger.Warn("observability: unable to register request counter", zap.Error(requestsErr))
	} else {
		m.requests = requests
		m.requestsEnabled = true
	}

	latency, latencyErr := meter.Float64Histogram(
		"http.server.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds for handled HTTP requests"),
	)
	if latencyErr != nil {
		cfg.logger.Warn("observability: unable to register latency histogram", zap.Error(latencyErr))
	} else {
		m.latency = latency
		m.latencyEnabled = true
	}

	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := newResponseRecorder(w)
			start := time.Now()
			next.ServeHTTP(recorder, r)

			attrs := []attribute.KeyValue{
				attribute.String("method", SanitizeMethod(r.Method)),
				attribute.String("route", SanitizeRoute(routePattern(r))),
				attribute.Int("status", recorder.Status()),
			}
			ctx := r.Context()
			if m.requestsEnabled {
				m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if m.latencyEnabled {
				elapsed := float64(time.Since(start)) / float64(time.Millisecond)
				m.latency.Record(ctx, elapsed, metric.WithAttributes(attrs...))
			}
		})
	}
}
