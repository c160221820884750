package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	CacheLookups      metric.Int64Counter
	RoutingOverrides  metric.Int64Counter
	RoutingFanout     metric.Int64Histogram
	RetrievedChunks   metric.Int64Histogram
	GeminiCalls       metric.Int64Counter
	AuditEventsLogged metric.Int64Counter
}

// metrics is populated by InitMetrics; recording helpers are nil-safe
// so code paths exercised in tests work without initialization.
var metrics *Metrics

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("onboarding-copilot")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"cache.lookups.total",
		metric.WithDescription("Semantic cache lookups by outcome"),
	)
	if err != nil {
		return nil, err
	}

	routingOverrides, err := meter.Int64Counter(
		"routing.overrides.total",
		metric.WithDescription("Routing decisions overridden by keyword signals"),
	)
	if err != nil {
		return nil, err
	}

	routingFanout, err := meter.Int64Histogram(
		"routing.fanout",
		metric.WithDescription("Department branches per request"),
	)
	if err != nil {
		return nil, err
	}

	retrievedChunks, err := meter.Int64Histogram(
		"retrieval.chunks",
		metric.WithDescription("Fused chunks per department branch"),
	)
	if err != nil {
		return nil, err
	}

	geminiCalls, err := meter.Int64Counter(
		"gemini.calls.total",
		metric.WithDescription("Gemini API calls by operation and outcome"),
	)
	if err != nil {
		return nil, err
	}

	auditEventsLogged, err := meter.Int64Counter(
		"audit.events.logged",
		metric.WithDescription("Total audit events logged"),
	)
	if err != nil {
		return nil, err
	}

	metrics = &Metrics{
		RequestCounter:    requestCounter,
		RequestDuration:   requestDuration,
		CacheLookups:      cacheLookups,
		RoutingOverrides:  routingOverrides,
		RoutingFanout:     routingFanout,
		RetrievedChunks:   retrievedChunks,
		GeminiCalls:       geminiCalls,
		AuditEventsLogged: auditEventsLogged,
	}
	return metrics, nil
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, path, status string, duration float64) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}
	metrics.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordCacheHit records a cache lookup that was answered from cache
func RecordCacheHit(ctx context.Context) {
	if metrics == nil {
		return
	}
	metrics.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "hit")))
}

// RecordCacheMiss records a cache lookup that fell through to the pipeline
func RecordCacheMiss(ctx context.Context) {
	if metrics == nil {
		return
	}
	metrics.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "miss")))
}

// RecordRoutingOverride records a keyword override of the classifier
func RecordRoutingOverride(ctx context.Context, department string) {
	if metrics == nil {
		return
	}
	metrics.RoutingOverrides.Add(ctx, 1, metric.WithAttributes(attribute.String("department", department)))
}

// RecordFanout records the number of department branches for a request
func RecordFanout(ctx context.Context, branches int) {
	if metrics == nil {
		return
	}
	metrics.RoutingFanout.Record(ctx, int64(branches))
}

// RecordRetrieval records the fused result count for one branch
func RecordRetrieval(ctx context.Context, department string, chunks int) {
	if metrics == nil {
		return
	}
	metrics.RetrievedChunks.Record(ctx, int64(chunks), metric.WithAttributes(attribute.String("department", department)))
}

// RecordGeminiCall records a Gemini API call
func RecordGeminiCall(ctx context.Context, operation string, success bool) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("gemini.operation", operation),
		attribute.Bool("gemini.success", success),
	}
	metrics.GeminiCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAuditEvent records audit event logging
func RecordAuditEvent(ctx context.Context, eventType string) {
	if metrics == nil {
		return
	}
	metrics.AuditEventsLogged.Add(ctx, 1, metric.WithAttributes(attribute.String("audit.type", eventType)))
}
