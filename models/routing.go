package models

// RoutingDecision captures how a query was routed. It is attached to
// every response as metadata and persisted with the audit trail.
type RoutingDecision struct {
	PredictedDepartment  string             `json:"predicted_department" bson:"predicted_department"`
	PredictionConfidence float64            `json:"prediction_confidence" bson:"prediction_confidence"`
	FinalDepartment      string             `json:"final_department" bson:"final_department"`
	WasOverridden        bool               `json:"was_overridden" bson:"was_overridden"`
	OverrideReason       string             `json:"override_reason,omitempty" bson:"override_reason,omitempty"`
	IsMultiIntent        bool               `json:"is_multi_intent" bson:"is_multi_intent"`
	IsCached             bool               `json:"is_cached" bson:"is_cached"`
	LowConfidence        bool               `json:"low_confidence" bson:"low_confidence"`
	Departments          []string           `json:"departments,omitempty" bson:"departments,omitempty"`
	AllProbabilities     map[string]float64 `json:"all_probabilities,omitempty" bson:"all_probabilities,omitempty"`
	RetrievalConfidence  map[string]float64 `json:"retrieval_confidence,omitempty" bson:"retrieval_confidence,omitempty"`
}
