package bank

import "fmt"

// AuthError means no valid bearer credential exists and none could be
// refreshed silently. The caller has to complete an out-of-band
// authorization before retrying; ledger state is unaffected.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("bank authorization required: %s (re-run the authorization flow, then retry)", e.Reason)
}

// VerificationError means payee verification could not be completed — the
// API was unreachable or returned a non-success status. It is distinct
// from an advisory "no match" verdict, which never blocks a transfer.
type VerificationError struct {
	Name       string
	StatusCode int
	Detail     string
}

func (e *VerificationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payee verification for %s failed: HTTP %d: %s", e.Name, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("payee verification for %s failed: %s", e.Name, e.Detail)
}
