package extract

import "strings"

// Identity match confidence tiers. A page needs at least the last name to
// clear the matcher's acceptance threshold.
const (
	scoreFullName  = 1.0
	scoreAllTokens = 0.7
	scoreLastName  = 0.4
	scoreFirstName = 0.2
)

// IdentityScore rates how strongly page text refers to the given employee
// name: full-name containment beats all-tokens-present beats last-name-only
// beats first-name-only.
func IdentityScore(text, name string) float64 {
	textLower := strings.ToLower(text)
	nameLower := strings.ToLower(strings.TrimSpace(name))
	if nameLower == "" {
		return 0
	}
	if strings.Contains(textLower, nameLower) {
		return scoreFullName
	}
	parts := strings.Fields(nameLower)
	if len(parts) < 2 {
		if strings.Contains(textLower, parts[0]) {
			return scoreFullName
		}
		return 0
	}
	all := true
	for _, part := range parts {
		if !strings.Contains(textLower, part) {
			all = false
			break
		}
	}
	if all {
		return scoreAllTokens
	}
	if strings.Contains(textLower, parts[len(parts)-1]) {
		return scoreLastName
	}
	if strings.Contains(textLower, parts[0]) {
		return scoreFirstName
	}
	return 0
}
