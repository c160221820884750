package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"onboarding-copilot/internal/queue"
	"onboarding-copilot/models"
)

// Audit records lightweight API-level audit events for every request.
// Events are enqueued for background persistence; the chat handler
// additionally records a richer chat-level event with the full
// routing decision.
func Audit(enqueuer *queue.Enqueuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		enqueuer.EnqueueAudit(models.AuditEvent{
			EventType:  "api",
			RequestID:  GetRequestID(c),
			Method:     c.Request.Method,
			Path:       c.FullPath(),
			StatusCode: status,
			DurationMS: float64(time.Since(start).Microseconds()) / 1000.0,
			ClientIP:   c.ClientIP(),
			Success:    status < 400,
			CreatedAt:  time.Now().UTC(),
		})
	}
}
