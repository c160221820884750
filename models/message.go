package models

import "time"

// ChatRequest is the inbound /chat payload.
type ChatRequest struct {
	UserID   int    `json:"user_id" binding:"required"`
	Message  string `json:"message" binding:"required,min=1,max=2000"`
	Language string `json:"language,omitempty" binding:"omitempty,oneof=en ar"`
}

// ChatResponse is the outbound /chat payload.
type ChatResponse struct {
	Response  string          `json:"response"`
	MessageID int64           `json:"message_id"`
	Routing   RoutingDecision `json:"routing"`
	Sources   []SourceRef     `json:"sources"`
	Advisory  string          `json:"advisory,omitempty"`
	Followups []string        `json:"suggested_followups,omitempty"`
}

// Message is the persisted record of one chat exchange.
type Message struct {
	MessageID int64           `json:"message_id" bson:"message_id"`
	UserID    int             `json:"user_id" bson:"user_id"`
	Query     string          `json:"query" bson:"query"`
	Response  string          `json:"response" bson:"response"`
	Language  string          `json:"language" bson:"language"`
	Routing   RoutingDecision `json:"routing" bson:"routing"`
	Sources   []SourceRef     `json:"sources,omitempty" bson:"sources,omitempty"`
	LatencyMS float64         `json:"latency_ms" bson:"latency_ms"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
}
