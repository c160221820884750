package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"onboarding-copilot/internal/telemetry"
)

// Tracing starts a server span per request via otelgin. Register
// TraceAttributes after it so the attributes land on the span while it
// is still recording.
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// TraceAttributes annotates the active span with request identity and
// records request metrics once the handler chain finishes.
func TraceAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			span.SetAttributes(
				attribute.String("request.id", GetRequestID(c)),
				attribute.String("client.ip", c.ClientIP()),
			)
		}

		c.Next()

		telemetry.RecordRequest(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
