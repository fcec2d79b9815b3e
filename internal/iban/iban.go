// Package iban validates beneficiary account numbers with the ISO 13616
// MOD-97 checksum.
package iban

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// countryLengths maps country code to the expected total IBAN length.
var countryLengths = map[string]int{
	"AL": 28, "AD": 24, "AT": 20, "AZ": 28, "BH": 22,
	"BE": 16, "BA": 20, "BR": 29, "BG": 22, "CR": 22,
	"HR": 21, "CY": 28, "CZ": 24, "DK": 18, "DO": 28,
	"EE": 20, "EG": 29, "FO": 18, "FI": 18, "FR": 27,
	"GE": 22, "DE": 22, "GI": 23, "GR": 27, "GL": 18,
	"GT": 28, "HU": 28, "IS": 26, "IQ": 23, "IE": 22,
	"IL": 23, "IT": 27, "JO": 30, "KZ": 20, "XK": 20,
	"KW": 30, "LV": 21, "LB": 28, "LI": 21, "LT": 20,
	"LU": 20, "MT": 31, "MR": 27, "MU": 30, "MD": 24,
	"MC": 27, "ME": 22, "NL": 18, "MK": 19, "NO": 15,
	"PK": 24, "PS": 29, "PL": 28, "PT": 25, "QA": 29,
	"RO": 24, "LC": 32, "SM": 27, "SA": 24, "RS": 22,
	"SK": 24, "SI": 19, "ES": 24, "SE": 24, "CH": 21,
	"TL": 23, "TN": 24, "TR": 26, "UA": 29, "AE": 23,
	"GB": 22, "VA": 22, "VG": 24, "YE": 30,
}

var ibanPattern = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z0-9]+$`)

var mod97 = big.NewInt(97)

// Normalize strips spaces and upper-cases a raw IBAN string.
func Normalize(raw string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
}

// Mask keeps the first and last four characters visible, for logs and
// user-facing listings.
func Mask(iban string) string {
	if len(iban) < 8 {
		return iban
	}
	return iban[:4] + strings.Repeat("*", len(iban)-8) + iban[len(iban)-4:]
}

// Validate normalizes and checks an IBAN. The returned string is the
// normalized form, valid only when err is nil.
func Validate(raw string) (string, error) {
	iban := Normalize(raw)
	if len(iban) < 5 {
		return iban, fmt.Errorf("iban too short")
	}
	country := iban[:2]
	if country[0] < 'A' || country[0] > 'Z' || country[1] < 'A' || country[1] > 'Z' {
		return iban, fmt.Errorf("invalid country code %q", country)
	}
	want, ok := countryLengths[country]
	if !ok {
		return iban, fmt.Errorf("unknown country code %q", country)
	}
	if len(iban) != want {
		return iban, fmt.Errorf("wrong length for %s: expected %d, got %d", country, want, len(iban))
	}
	if !ibanPattern.MatchString(iban) {
		return iban, fmt.Errorf("invalid characters")
	}
	if !checksumOK(iban) {
		return iban, fmt.Errorf("MOD-97 checksum failed")
	}
	return iban, nil
}

// checksumOK rearranges the IBAN (body + country/check digits), expands
// letters to two-digit numbers and verifies the value mod 97 equals 1.
func checksumOK(iban string) bool {
	rearranged := iban[4:] + iban[:4]
	var digits strings.Builder
	digits.Grow(len(rearranged) * 2)
	for _, ch := range rearranged {
		if ch >= 'A' && ch <= 'Z' {
			fmt.Fprintf(&digits, "%d", ch-'A'+10)
		} else {
			digits.WriteRune(ch)
		}
	}
	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, mod97).Int64() == 1
}
