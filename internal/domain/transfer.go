package domain

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

type TransferStatus string

const (
	StatusPending TransferStatus = "pending"
	StatusSuccess TransferStatus = "success"
	StatusFailed  TransferStatus = "failed"
)

// TransferRecord is one row of the idempotency ledger. A record is created
// as pending before the transfer request leaves the process and transitions
// to success or failed exactly once. Once success, the row is immutable.
type TransferRecord struct {
	IdempotencyKey string         `json:"idempotency_key"`
	EmployeeName   string         `json:"employee_name"`
	Period         string         `json:"period"`
	AmountCents    int64          `json:"amount_cents"`
	Status         TransferStatus `json:"status"`
	TransferID     string         `json:"transfer_id,omitempty"`
	FailureReason  string         `json:"failure_reason,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// DeriveKey computes the idempotency key for one disbursement intent.
// The same (name, period, amount) always maps to the same key; the name is
// trimmed and lower-cased so re-runs with cosmetic roster edits still hit
// the same row.
func DeriveKey(name, period string, amountCents int64) string {
	raw := fmt.Sprintf("%s|%s|%d", strings.ToLower(strings.TrimSpace(name)), period, amountCents)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// TransferOutcome is the transient per-employee result of one orchestrator
// step. Its fields are folded into the ledger row; it is not persisted.
type TransferOutcome struct {
	Success    bool   `json:"success"`
	TransferID string `json:"transfer_id,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}
