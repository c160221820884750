package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "how do i reset my password?", NormalizeQuery("  How Do I Reset My Password?  "))
	assert.Equal(t, "", NormalizeQuery("   "))
}

func TestQueryHashStableAcrossCosmeticVariants(t *testing.T) {
	a := QueryHash("How do I connect to the VPN?")
	b := QueryHash("  how do i connect to the vpn?  ")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c := QueryHash("How do I connect to the VPN")
	assert.NotEqual(t, a, c)
}
