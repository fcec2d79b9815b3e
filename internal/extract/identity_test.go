package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityScore_Tiers(t *testing.T) {
	const name = "Michael Richter"

	cases := []struct {
		text string
		want float64
	}{
		{"Lohnabrechnung für Michael Richter, Februar", 1.0},
		{"Richter, Michael — Personalnummer 0042", 0.7},
		{"Empfänger: Richter", 0.4},
		{"Michael bekommt diesen Monat mehr", 0.2},
		{"Anna Schneider", 0.0},
		{"", 0.0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IdentityScore(tc.text, name), "text: %q", tc.text)
	}
}

func TestIdentityScore_CaseInsensitive(t *testing.T) {
	assert.Equal(t, 1.0, IdentityScore("MICHAEL RICHTER", "Michael Richter"))
}

func TestIdentityScore_SingleTokenName(t *testing.T) {
	assert.Equal(t, 1.0, IdentityScore("Madonna tritt auf", "Madonna"))
	assert.Equal(t, 0.0, IdentityScore("jemand anderes", "Madonna"))
}

func TestIdentityScore_EmptyName(t *testing.T) {
	assert.Equal(t, 0.0, IdentityScore("irgendein Text", "  "))
}
