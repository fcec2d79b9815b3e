package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_LabeledPayout(t *testing.T) {
	assert.Equal(t, int64(763363), Amount("Auszahlungsbetrag: 7.633,63 EUR"))
}

func TestAmount_ZeroTreatedAsNotFound(t *testing.T) {
	assert.Equal(t, int64(0), Amount("Betrag 0,00"))
}

func TestAmount_ColumnHeaderLayout(t *testing.T) {
	text := "Bruttogehalt    Steuern    Auszahlungsbetrag\n5.000,00        1.022,37   3.977,63 EUR\n"
	assert.Equal(t, int64(397763), Amount(text))
}

func TestAmount_PayoutLabelBeatsGenericLabel(t *testing.T) {
	// The generic "Betrag" line comes first in the text but the labeled
	// payout field must win.
	text := "Betrag: 9.999,99 EUR\nAuszahlungsbetrag: 1.234,56 EUR\n"
	assert.Equal(t, int64(123456), Amount(text))
}

func TestAmount_NettoVariants(t *testing.T) {
	cases := map[string]int64{
		"Nettolohn: 2.500,00":          250000,
		"Nettogehalt = 3.100,50 EUR":   310050,
		"Netto 1.999,99":               199999,
		"Zahlbetrag: EUR 450,10":       45010,
		"Überweisungsbetrag - 800,00":  80000,
		"820,55 EUR":                   82055,
	}
	for text, want := range cases {
		assert.Equal(t, want, Amount(text), "text: %s", text)
	}
}

func TestAmount_NoMatch(t *testing.T) {
	assert.Equal(t, int64(0), Amount("Deckblatt Lohnabrechnungen Februar"))
	assert.Equal(t, int64(0), Amount(""))
}

func TestParseCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"7.633,63", 763363},
		{"0,00", 0},
		{"1.000.000,00", 100000000},
		{"5", 500},
		{"12,5", 1250},
	}
	for _, tc := range cases {
		got, err := ParseCents(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseCents_RoundHalfUp(t *testing.T) {
	got, err := ParseCents("1,005")
	require.NoError(t, err)
	assert.Equal(t, int64(101), got)

	got, err = ParseCents("1,004")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got)
}

func TestParseCents_Invalid(t *testing.T) {
	_, err := ParseCents("abc")
	assert.Error(t, err)
}
