package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"

	"onboarding-copilot/internal/logger"
	"onboarding-copilot/internal/telemetry"
	"onboarding-copilot/models"
)

const TaskAuditLog = "audit:log"

// NewAuditLogTask packages an audit event for background persistence.
func NewAuditLogTask(event models.AuditEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit event: %w", err)
	}
	return asynq.NewTask(TaskAuditLog, payload, asynq.MaxRetry(3), asynq.Timeout(30*time.Second)), nil
}

// Enqueuer wraps the asynq client. A nil Enqueuer (no Redis
// configured) drops events with a debug log instead of failing the
// request path.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(redisAddr, password string, db int) *Enqueuer {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})
	return &Enqueuer{client: client}
}

// EnqueueAudit queues an audit event for background persistence.
func (e *Enqueuer) EnqueueAudit(event models.AuditEvent) {
	if e == nil || e.client == nil {
		logger.Debug("Audit queue not configured, dropping event", "type", event.EventType)
		return
	}

	task, err := NewAuditLogTask(event)
	if err != nil {
		logger.Error("Failed to build audit task", "error", err)
		return
	}
	if _, err := e.client.Enqueue(task, asynq.Queue("audit")); err != nil {
		logger.Error("Failed to enqueue audit task", "error", err)
	}
}

func (e *Enqueuer) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	return e.client.Close()
}

// AuditHandler persists audit events from the queue into MongoDB.
type AuditHandler struct {
	collection *mongo.Collection
}

func NewAuditHandler(db *mongo.Database) *AuditHandler {
	return &AuditHandler{collection: db.Collection("audit_events")}
}

// HandleAuditLogTask writes one audit event. Failures are returned so
// asynq retries with backoff.
func (h *AuditHandler) HandleAuditLogTask(ctx context.Context, t *asynq.Task) error {
	var event models.AuditEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return fmt.Errorf("failed to unmarshal audit event: %v: %w", err, asynq.SkipRetry)
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	if _, err := h.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to persist audit event: %w", err)
	}

	telemetry.RecordAuditEvent(ctx, event.EventType)
	logger.Debug("Audit event persisted", "type", event.EventType, "request_id", event.RequestID)
	return nil
}
