package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lohnwerk/disburser/internal/domain"
)

// TransferRepo is the idempotency ledger. Each row tracks one disbursement
// intent keyed by its idempotency key through pending → success|failed.
type TransferRepo struct {
	db *sql.DB
}

func NewTransferRepo(db *sql.DB) *TransferRepo {
	return &TransferRepo{db: db}
}

// IsProcessed reports whether the key has already reached success. A
// missing row and a failed row both return false so failed attempts stay
// retryable.
func (r *TransferRepo) IsProcessed(key string) (bool, error) {
	var status string
	err := r.db.QueryRow(
		"SELECT status FROM transfers WHERE idempotency_key = ?", key,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query status: %w", err)
	}
	return domain.TransferStatus(status) == domain.StatusSuccess, nil
}

// RecordPending upserts the row to pending. Re-running after a crash
// mid-flight refreshes the existing row instead of failing. A row that
// already reached success is left untouched.
func (r *TransferRepo) RecordPending(key, name, period string, amountCents int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(
		`INSERT INTO transfers
			(idempotency_key, employee_name, period, amount_cents, status, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(idempotency_key) DO UPDATE SET
			status = excluded.status,
			failure_reason = NULL,
			updated_at = excluded.updated_at
		WHERE transfers.status != ?`,
		key, name, period, amountCents, string(domain.StatusPending), now, now,
		string(domain.StatusSuccess),
	)
	if err != nil {
		return fmt.Errorf("record pending: %w", err)
	}
	return nil
}

// RecordSuccess transitions the row to success. The guard makes the
// transition one-way: a row already at success is never rewritten, so the
// external transfer id of the first confirmation wins.
func (r *TransferRepo) RecordSuccess(key, transferID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(
		`UPDATE transfers
		SET status = ?, transfer_id = ?, failure_reason = NULL, updated_at = ?
		WHERE idempotency_key = ? AND status != ?`,
		string(domain.StatusSuccess), nullable(transferID), now, key,
		string(domain.StatusSuccess),
	)
	if err != nil {
		return fmt.Errorf("record success: %w", err)
	}
	return nil
}

// RecordFailure transitions the row to failed, keeping it as audit trail.
// A success row is never demoted.
func (r *TransferRepo) RecordFailure(key, reason string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(
		`UPDATE transfers
		SET status = ?, failure_reason = ?, updated_at = ?
		WHERE idempotency_key = ? AND status != ?`,
		string(domain.StatusFailed), nullable(reason), now, key,
		string(domain.StatusSuccess),
	)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// Get returns the record for a key, or nil when absent.
func (r *TransferRepo) Get(key string) (*domain.TransferRecord, error) {
	row := r.db.QueryRow(
		`SELECT idempotency_key, employee_name, period, amount_cents, status,
			transfer_id, failure_reason, created_at, updated_at
		FROM transfers WHERE idempotency_key = ?`, key,
	)
	rec, err := scanTransfer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return rec, nil
}

// List returns ledger rows, newest period first, newest row first within a
// period. An empty period lists everything.
func (r *TransferRepo) List(period string) ([]domain.TransferRecord, error) {
	query := `SELECT idempotency_key, employee_name, period, amount_cents, status,
			transfer_id, failure_reason, created_at, updated_at
		FROM transfers`
	var args []any
	if period != "" {
		query += " WHERE period = ?"
		args = append(args, period)
	}
	query += " ORDER BY period DESC, created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var records []domain.TransferRecord
	for rows.Next() {
		rec, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransfer(s scanner) (*domain.TransferRecord, error) {
	var rec domain.TransferRecord
	var status, createdAt, updatedAt string
	var transferID, failureReason sql.NullString

	err := s.Scan(&rec.IdempotencyKey, &rec.EmployeeName, &rec.Period,
		&rec.AmountCents, &status, &transferID, &failureReason,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rec.Status = domain.TransferStatus(status)
	rec.TransferID = transferID.String
	rec.FailureReason = failureReason.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
