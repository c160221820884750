package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-copilot/models"
)

// testRouterModel builds a deliberately tiny classifier. A single
// matched vocabulary word, after l2 normalization, produces a score
// equal to its class weight; with all other scores at zero the
// softmax confidence for weight 1.0 is ~0.405 and for weight 2.0
// is ~0.649.
func testRouterModel(weights map[string]struct {
	class  string
	weight float64
}) *RouterModel {
	vocab := make(map[string]int)
	for word := range weights {
		vocab[word] = len(vocab)
	}

	classes := models.Departments
	classIdx := make(map[string]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	idf := make([]float64, len(vocab))
	for i := range idf {
		idf[i] = 1.0
	}

	coef := make([][]float64, len(classes))
	for i := range coef {
		coef[i] = make([]float64, len(vocab))
	}
	for word, w := range weights {
		coef[classIdx[w.class]][vocab[word]] = w.weight
	}

	return &RouterModel{
		Vocabulary: vocab,
		Idf:        idf,
		Classes:    classes,
		Coef:       coef,
		Intercept:  make([]float64, len(classes)),
	}
}

func newTestRouter(model *RouterModel) *Router {
	return NewRouter(model, 0.6, 0.3, true)
}

func TestRouterKeywordOverridesWeakClassifier(t *testing.T) {
	// Classifier leans Finance at ~0.41 confidence, but "benefits" is
	// an HR keyword, so the decision flips to HR.
	model := testRouterModel(map[string]struct {
		class  string
		weight float64
	}{
		"benefits": {models.DepartmentFinance, 1.0},
	})

	decision := newTestRouter(model).Decide("benefits question")

	assert.Equal(t, models.DepartmentFinance, decision.PredictedDepartment)
	assert.Less(t, decision.PredictionConfidence, 0.6)
	assert.Equal(t, models.DepartmentHR, decision.FinalDepartment)
	assert.True(t, decision.WasOverridden)
	assert.NotEmpty(t, decision.OverrideReason)
	assert.False(t, decision.IsMultiIntent)
}

func TestRouterConfidentClassifierBeatsKeyword(t *testing.T) {
	model := testRouterModel(map[string]struct {
		class  string
		weight float64
	}{
		"benefits": {models.DepartmentFinance, 2.0},
	})

	decision := newTestRouter(model).Decide("benefits stuff")

	assert.GreaterOrEqual(t, decision.PredictionConfidence, 0.6)
	assert.Equal(t, models.DepartmentFinance, decision.FinalDepartment)
	assert.False(t, decision.WasOverridden)
}

func TestRouterKeywordConfirmsClassifier(t *testing.T) {
	model := testRouterModel(map[string]struct {
		class  string
		weight float64
	}{
		"payroll": {models.DepartmentFinance, 1.0},
	})

	decision := newTestRouter(model).Decide("payroll question")

	assert.Equal(t, models.DepartmentFinance, decision.FinalDepartment)
	assert.False(t, decision.WasOverridden)
}

func TestRouterLowConfidenceEscalatesToGeneral(t *testing.T) {
	// No vocabulary match: uniform softmax over five classes is 0.2,
	// below the escalation floor, and "thing" matches no keyword.
	model := testRouterModel(map[string]struct {
		class  string
		weight float64
	}{
		"unrelated": {models.DepartmentIT, 1.0},
	})

	decision := newTestRouter(model).Decide("thing")

	assert.InDelta(t, 0.2, decision.PredictionConfidence, 1e-9)
	assert.Equal(t, models.DepartmentGeneral, decision.FinalDepartment)
	assert.True(t, decision.LowConfidence)
}

func TestRouterMidConfidenceNoKeywordStandsUnchanged(t *testing.T) {
	model := testRouterModel(map[string]struct {
		class  string
		weight float64
	}{
		"hello": {models.DepartmentIT, 1.0},
	})

	decision := newTestRouter(model).Decide("hello there")

	assert.Greater(t, decision.PredictionConfidence, 0.3)
	assert.Less(t, decision.PredictionConfidence, 0.6)
	assert.Equal(t, models.DepartmentIT, decision.FinalDepartment)
	assert.False(t, decision.WasOverridden)
	assert.False(t, decision.LowConfidence)
}

func TestRouterMultiIntentSpansDepartmentsInQueryOrder(t *testing.T) {
	model := testRouterModel(map[string]struct {
		class  string
		weight float64
	}{
		"laptop": {models.DepartmentIT, 1.0},
	})

	decision := newTestRouter(model).Decide("I need a laptop and a payroll question answered")

	require.True(t, decision.IsMultiIntent)
	assert.Equal(t, []string{models.DepartmentIT, models.DepartmentFinance}, decision.Departments)
	assert.Equal(t, models.DepartmentIT, decision.FinalDepartment)
}

func TestRouterMultiIntentDisabled(t *testing.T) {
	model := testRouterModel(map[string]struct {
		class  string
		weight float64
	}{
		"laptop": {models.DepartmentIT, 1.0},
	})
	router := NewRouter(model, 0.6, 0.3, false)

	decision := router.Decide("I need a laptop and a payroll question answered")
	assert.False(t, decision.IsMultiIntent)
	assert.Len(t, decision.Departments, 1)
}

func TestLoadRouterModelRoundTrip(t *testing.T) {
	model := testRouterModel(map[string]struct {
		class  string
		weight float64
	}{
		"vpn": {models.DepartmentIT, 2.0},
	})

	path := filepath.Join(t.TempDir(), "router.json")
	data, err := json.Marshal(model)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadRouterModel(path)
	require.NoError(t, err)

	prediction := loaded.Predict("vpn help")
	assert.Equal(t, models.DepartmentIT, prediction.Department)
	assert.Greater(t, prediction.Confidence, 0.6)
}

func TestLoadRouterModelRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"classes":["A"],"coef":[],"intercept":[]}`), 0o644))

	_, err := LoadRouterModel(path)
	assert.Error(t, err)

	_, err = LoadRouterModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestPredictReportsAllProbabilities(t *testing.T) {
	model := testRouterModel(map[string]struct {
		class  string
		weight float64
	}{
		"vpn": {models.DepartmentIT, 1.0},
	})

	prediction := model.Predict("vpn")
	require.Len(t, prediction.AllProbabilities, len(models.Departments))

	var sum float64
	for _, p := range prediction.AllProbabilities {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
