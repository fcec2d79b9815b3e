package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	a := DeriveKey("Jane Doe", "2026-02", 100000)
	b := DeriveKey("Jane Doe", "2026-02", 100000)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex sha-256
}

func TestDeriveKey_NormalizesName(t *testing.T) {
	base := DeriveKey("Jane Doe", "2026-02", 100000)
	assert.Equal(t, base, DeriveKey("  Jane Doe  ", "2026-02", 100000))
	assert.Equal(t, base, DeriveKey("JANE DOE", "2026-02", 100000))
}

func TestDeriveKey_DistinctInputs(t *testing.T) {
	base := DeriveKey("Jane Doe", "2026-02", 100000)
	assert.NotEqual(t, base, DeriveKey("Jane Doe", "2026-03", 100000))
	assert.NotEqual(t, base, DeriveKey("Jane Doe", "2026-02", 100001))
	assert.NotEqual(t, base, DeriveKey("John Doe", "2026-02", 100000))
}
