// Package extract pulls payout amounts and employee identities out of raw
// payslip page text.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// German payroll conventions: dot as thousands separator, comma as decimal
// separator, optional EUR/€ marker.
const (
	sep = `\s*[:\-=]?\s*`
	amt = `(\d{1,3}(?:\.\d{3})*,\d{2})`
	eur = `(?:(?:EUR|€)\s*)?`
)

// amountPatterns is ordered by specificity: explicitly labeled payout
// fields win over generic amount fields. The first pattern that yields a
// strictly positive value is taken.
var amountPatterns = []*regexp.Regexp{
	// Column-header layout: "Auszahlungsbetrag" as a table header with the
	// value on the following line.
	regexp.MustCompile(`(?i)auszahlungsbetrag[^\n]*\n(?:[^\n]*[^0-9.\n])?` + amt),
	regexp.MustCompile(`(?i)auszahlungsbetrag` + sep + eur + amt),
	regexp.MustCompile(`(?i)nettolohn` + sep + eur + amt),
	regexp.MustCompile(`(?i)nettogehalt` + sep + eur + amt),
	regexp.MustCompile(`(?i)netto` + sep + eur + amt),
	regexp.MustCompile(`(?i)überweisung\w*` + sep + eur + amt),
	regexp.MustCompile(`(?i)zahlbetrag` + sep + eur + amt),
	regexp.MustCompile(`(?i)betrag` + sep + eur + amt),
	regexp.MustCompile(amt + `\s*(?:EUR|€)`),
}

// Amount scans page text for a payout amount and returns it in cents.
// Zero means no positive amount was found; callers treat that as "not
// found" rather than an error, so an ambiguous page never turns into a
// zero-value transfer.
func Amount(text string) int64 {
	for _, p := range amountPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cents, err := ParseCents(m[1])
		if err != nil {
			continue
		}
		if cents > 0 {
			return cents
		}
	}
	return 0
}

// ParseCents converts a German-formatted amount string ("7.633,63") into
// cents. Fractions longer than two digits are rounded half-up.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	whole := s
	frac := ""
	if i := strings.LastIndex(s, ","); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	whole = strings.ReplaceAll(whole, ".", "")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	cents := units * 100
	switch {
	case frac == "":
	case len(frac) <= 2:
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse amount %q: %w", s, err)
		}
		if len(frac) == 1 {
			f *= 10
		}
		cents += f
	default:
		f, err := strconv.ParseInt(frac[:2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse amount %q: %w", s, err)
		}
		cents += f
		if frac[2] >= '5' {
			cents++
		}
	}
	return cents, nil
}
