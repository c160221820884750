package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-copilot/models"
)

func TestDomainSignalsSingleDepartment(t *testing.T) {
	signals := DomainSignals("how do I connect to the vpn")
	require.Len(t, signals, 1)
	assert.Equal(t, models.DepartmentIT, signals[0].Department)
	assert.Contains(t, signals[0].Keywords, "vpn")
}

func TestDomainSignalsOrderedByFirstMatch(t *testing.T) {
	signals := DomainSignals("my laptop broke and I also have a payroll question")
	require.Len(t, signals, 2)
	assert.Equal(t, models.DepartmentIT, signals[0].Department)
	assert.Equal(t, models.DepartmentFinance, signals[1].Department)

	// Reversed phrasing reverses the detection order.
	signals = DomainSignals("payroll question, and my laptop broke")
	require.Len(t, signals, 2)
	assert.Equal(t, models.DepartmentFinance, signals[0].Department)
	assert.Equal(t, models.DepartmentIT, signals[1].Department)
}

func TestDomainSignalsRespectWordBoundaries(t *testing.T) {
	// "pto" must not match inside other words.
	assert.Empty(t, DomainSignals("I bought a raptor optometry kit"))

	signals := DomainSignals("how much pto do I get")
	require.Len(t, signals, 1)
	assert.Equal(t, models.DepartmentHR, signals[0].Department)
}

func TestDomainSignalsCaseInsensitive(t *testing.T) {
	signals := DomainSignals("What is the PHISHING policy?")
	require.Len(t, signals, 1)
	assert.Equal(t, models.DepartmentSecurity, signals[0].Department)
}

func TestDomainSignalsArabicKeywords(t *testing.T) {
	signals := DomainSignals("كيف أطلب إجازة؟")
	require.Len(t, signals, 1)
	assert.Equal(t, models.DepartmentHR, signals[0].Department)
}

func TestDomainSignalsNoMatch(t *testing.T) {
	assert.Empty(t, DomainSignals("thing"))
	assert.Empty(t, DomainSignals(""))
}
