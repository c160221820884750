package models

import "time"

// AuditEvent is one fire-and-forget audit record. Chat events carry
// the full (query, response, routing, timing) tuple; API events carry
// only request metadata.
type AuditEvent struct {
	EventType  string           `json:"event_type" bson:"event_type"` // "chat" or "api"
	RequestID  string           `json:"request_id" bson:"request_id"`
	UserID     int              `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Method     string           `json:"method,omitempty" bson:"method,omitempty"`
	Path       string           `json:"path,omitempty" bson:"path,omitempty"`
	StatusCode int              `json:"status_code,omitempty" bson:"status_code,omitempty"`
	Query      string           `json:"query,omitempty" bson:"query,omitempty"`
	Response   string           `json:"response,omitempty" bson:"response,omitempty"`
	Routing    *RoutingDecision `json:"routing,omitempty" bson:"routing,omitempty"`
	DurationMS float64          `json:"duration_ms" bson:"duration_ms"`
	ClientIP   string           `json:"client_ip,omitempty" bson:"client_ip,omitempty"`
	Success    bool             `json:"success" bson:"success"`
	CreatedAt  time.Time        `json:"created_at" bson:"created_at"`
}
