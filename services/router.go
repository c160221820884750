package services

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"onboarding-copilot/internal/logger"
	"onboarding-copilot/models"
)

// RouterModel is a TF-IDF vectorizer plus a linear multi-class
// classifier, loaded from a JSON training artifact. Inference is a
// sparse dot product followed by a softmax, so predictions are cheap
// and fully deterministic.
type RouterModel struct {
	Vocabulary map[string]int `json:"vocabulary"`
	Idf        []float64      `json:"idf"`
	Classes    []string       `json:"classes"`
	Coef       [][]float64    `json:"coef"`
	Intercept  []float64      `json:"intercept"`
}

// RoutingPrediction is the classifier's raw output before any
// keyword override is applied.
type RoutingPrediction struct {
	Department       string
	Confidence       float64
	AllProbabilities map[string]float64
}

func LoadRouterModel(path string) (*RouterModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read router model: %w", err)
	}

	var model RouterModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse router model: %w", err)
	}

	if len(model.Classes) == 0 || len(model.Coef) != len(model.Classes) ||
		len(model.Intercept) != len(model.Classes) || len(model.Idf) != len(model.Vocabulary) {
		return nil, fmt.Errorf("router model is malformed: %d classes, %d coef rows, %d intercepts, %d idf terms, %d vocabulary terms",
			len(model.Classes), len(model.Coef), len(model.Intercept), len(model.Idf), len(model.Vocabulary))
	}

	logger.Info("Router model loaded", "path", path, "classes", model.Classes, "vocabulary", len(model.Vocabulary))
	return &model, nil
}

// Predict classifies the query text into a department.
func (m *RouterModel) Predict(query string) RoutingPrediction {
	vec := m.vectorize(query)

	scores := make([]float64, len(m.Classes))
	for i, row := range m.Coef {
		score := m.Intercept[i]
		for termIdx, weight := range vec {
			score += row[termIdx] * weight
		}
		scores[i] = score
	}

	probs := softmax(scores)

	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	all := make(map[string]float64, len(m.Classes))
	for i, class := range m.Classes {
		all[class] = probs[i]
	}

	return RoutingPrediction{
		Department:       m.Classes[best],
		Confidence:       probs[best],
		AllProbabilities: all,
	}
}

// vectorize builds the l2-normalized TF-IDF representation of the
// query as a sparse term-index -> weight map.
func (m *RouterModel) vectorize(query string) map[int]float64 {
	counts := make(map[int]float64)
	for _, tok := range Tokenize(query) {
		if idx, ok := m.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}

	var sumSquares float64
	for idx := range counts {
		counts[idx] *= m.Idf[idx]
		sumSquares += counts[idx] * counts[idx]
	}
	if sumSquares > 0 {
		norm := math.Sqrt(sumSquares)
		for idx := range counts {
			counts[idx] /= norm
		}
	}
	return counts
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}

	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Router combines the trained classifier with keyword overrides,
// multi-intent detection and low-confidence escalation.
type Router struct {
	model             *RouterModel
	overrideThreshold float64
	escalationFloor   float64
	multiIntent       bool
}

func NewRouter(model *RouterModel, overrideThreshold, escalationFloor float64, multiIntent bool) *Router {
	return &Router{
		model:             model,
		overrideThreshold: overrideThreshold,
		escalationFloor:   escalationFloor,
		multiIntent:       multiIntent,
	}
}

// Decide routes the query to one or more departments.
//
// Precedence: keyword signals spanning two or more departments make
// the query multi-intent. A single keyword department overrides a
// classifier prediction below the override threshold. Below the
// escalation floor with no keyword signal, routing falls back to
// General with a low-confidence advisory. Otherwise the classifier's
// prediction stands.
func (r *Router) Decide(query string) models.RoutingDecision {
	prediction := r.model.Predict(query)
	signals := DomainSignals(query)

	decision := models.RoutingDecision{
		PredictedDepartment:  prediction.Department,
		PredictionConfidence: prediction.Confidence,
		FinalDepartment:      prediction.Department,
		Departments:          []string{prediction.Department},
		AllProbabilities:     prediction.AllProbabilities,
	}

	if r.multiIntent && len(signals) >= 2 {
		depts := make([]string, len(signals))
		for i, sig := range signals {
			depts[i] = sig.Department
		}
		decision.IsMultiIntent = true
		decision.Departments = depts
		decision.FinalDepartment = depts[0]
		if depts[0] != prediction.Department {
			decision.WasOverridden = true
			decision.OverrideReason = fmt.Sprintf("multi-intent keywords span %v", depts)
		}
		return decision
	}

	if len(signals) == 1 {
		keywordDept := signals[0].Department
		if prediction.Confidence < r.overrideThreshold && keywordDept != prediction.Department {
			decision.FinalDepartment = keywordDept
			decision.Departments = []string{keywordDept}
			decision.WasOverridden = true
			decision.OverrideReason = fmt.Sprintf("keyword %q maps to %s, classifier confidence %.2f below %.2f",
				signals[0].Keywords[0], keywordDept, prediction.Confidence, r.overrideThreshold)
		}
		return decision
	}

	if prediction.Confidence < r.escalationFloor {
		decision.FinalDepartment = models.DepartmentGeneral
		decision.Departments = []string{models.DepartmentGeneral}
		decision.LowConfidence = true
		if prediction.Department != models.DepartmentGeneral {
			decision.WasOverridden = true
			decision.OverrideReason = fmt.Sprintf("classifier confidence %.2f below escalation floor %.2f",
				prediction.Confidence, r.escalationFloor)
		}
	}
	return decision
}
