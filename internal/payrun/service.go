// Package payrun orchestrates one payroll disbursement run: match payslip
// pages to employees, then execute one exactly-once transfer per employee
// against the ledger.
package payrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lohnwerk/disburser/internal/bank"
	"github.com/lohnwerk/disburser/internal/document"
	"github.com/lohnwerk/disburser/internal/domain"
	"github.com/lohnwerk/disburser/internal/match"
	"github.com/lohnwerk/disburser/internal/repository"
	"github.com/lohnwerk/disburser/internal/roster"
)

// TransferClient is the banking collaborator of the orchestrator.
type TransferClient interface {
	Resolve(ctx context.Context) error
	VerifyPayee(ctx context.Context, iban, name string) (string, error)
	InitiateTransfer(ctx context.Context, req bank.TransferRequest) (bank.Result, error)
}

// Approver resolves a step-up challenge, blocking until the human decides
// or the deadline passes.
type Approver interface {
	Await(ctx context.Context, sessionToken string) bool
}

// Service runs payroll disbursements. Employees are processed sequentially:
// each transfer may block minutes on human approval, and duplicate
// protection comes from the ledger plus the bank-side idempotency key, not
// from mutual exclusion here.
type Service struct {
	repo      *repository.TransferRepo
	matcher   *match.Matcher
	bank      TransferClient
	approvals Approver
	log       *slog.Logger
}

func NewService(repo *repository.TransferRepo, matcher *match.Matcher, bankClient TransferClient, approvals Approver, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		matcher:   matcher,
		bank:      bankClient,
		approvals: approvals,
		log:       log.With("component", "payrun"),
	}
}

// Request describes one payroll run.
type Request struct {
	DocumentPath string `json:"document_path"`
	RosterPath   string `json:"roster_path"`
	// Period is the billing period as YYYY-MM; empty means current month.
	Period string `json:"period,omitempty"`
	// SkipTransfers saves payslip documents but moves no money.
	SkipTransfers bool `json:"skip_transfers,omitempty"`
}

// Report is the structured outcome of one run.
type Report struct {
	RunID  string `json:"run_id"`
	Period string `json:"period"`

	Employees      int      `json:"employees"`
	SavedFiles     []string `json:"saved_files,omitempty"`
	UnmatchedPages []int    `json:"unmatched_pages,omitempty"`
	DuplicatePages []int    `json:"duplicate_pages,omitempty"`
	DocumentErrors []string `json:"document_errors,omitempty"`

	TransfersOK     []string `json:"transfers_ok,omitempty"`
	TransfersFailed []string `json:"transfers_failed,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`

	SkippedTransfers bool `json:"skipped_transfers,omitempty"`
}

// Process executes one full payroll run. The roster must parse cleanly:
// any roster validation error is fatal for the whole run, before a single
// page is touched. Everything after that is per-item: one employee's
// failure never blocks the others.
func (s *Service) Process(ctx context.Context, req Request) (*Report, error) {
	period := req.Period
	if period == "" {
		period = time.Now().Format("2006-01")
	}

	report := &Report{
		RunID:  uuid.NewString(),
		Period: period,
	}
	log := s.log.With("run_id", report.RunID, "period", period)

	parsed, err := roster.ParseFile(req.RosterPath)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	if !parsed.Valid() {
		if len(parsed.Errors) > 0 {
			return nil, fmt.Errorf("roster invalid: %s", parsed.Errors[0])
		}
		return nil, fmt.Errorf("roster contains no valid employees")
	}
	employees := parsed.Employees
	report.Employees = len(employees)
	log.Info("roster loaded", "employees", len(employees))

	doc, err := document.OpenTextFile(req.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}

	matched := s.matcher.Pages(doc, employees, period)
	report.SavedFiles = matched.SavedFiles
	report.UnmatchedPages = matched.UnmatchedPages
	report.DuplicatePages = matched.DuplicatePages
	report.DocumentErrors = matched.Errors

	if req.SkipTransfers {
		log.Info("transfers skipped by request")
		report.SkippedTransfers = true
		return report, nil
	}

	if s.bank == nil {
		return nil, fmt.Errorf("banking API not configured; set the BANK_* environment or use skip_transfers")
	}
	if err := s.bank.Resolve(ctx); err != nil {
		return nil, fmt.Errorf("bank: %w", err)
	}

	for _, emp := range employees {
		s.disburse(ctx, log, report, emp, matched.Assignments[emp.Name], period)
	}

	log.Info("run finished",
		"saved", len(report.SavedFiles),
		"transfers_ok", len(report.TransfersOK),
		"transfers_failed", len(report.TransfersFailed))
	return report, nil
}

// disburse pushes one employee through the ledger-guarded transfer flow.
// Every outcome is recorded; the run continues regardless.
func (s *Service) disburse(ctx context.Context, log *slog.Logger, report *Report, emp domain.EmployeeRecord, assignment domain.PageAssignment, period string) {
	amount := assignment.AmountCents
	if amount <= 0 {
		// An ambiguous payslip must never turn into a zero-value
		// transfer; no ledger row is created for it either.
		s.warn(log, report, "%s: no payout amount found, transfer skipped", emp.Name)
		report.TransfersFailed = append(report.TransfersFailed, emp.Name)
		return
	}

	key := domain.DeriveKey(emp.Name, period, amount)

	done, err := s.repo.IsProcessed(key)
	if err != nil {
		s.fail(log, report, emp.Name, fmt.Sprintf("ledger read failed: %v", err))
		return
	}
	if done {
		log.Info("already processed, skipping", "employee", emp.Name)
		report.TransfersOK = append(report.TransfersOK, emp.Name)
		return
	}

	// The pending row must be durable before the request leaves the
	// process; if it cannot be written, the transfer is not sent.
	if err := s.repo.RecordPending(key, emp.Name, period, amount); err != nil {
		s.fail(log, report, emp.Name, fmt.Sprintf("ledger write failed: %v", err))
		return
	}

	log.Info("initiating transfer", "employee", emp.Name,
		"iban", emp.IBANMasked, "amount_cents", amount)

	proofToken, err := s.bank.VerifyPayee(ctx, emp.IBAN, emp.Name)
	if err != nil {
		s.recordFailure(log, report, key, emp.Name, err.Error())
		return
	}

	transferReq := bank.TransferRequest{
		BeneficiaryName: emp.Name,
		BeneficiaryIBAN: emp.IBAN,
		AmountCents:     amount,
		Period:          period,
		IdempotencyKey:  key,
		ProofToken:      proofToken,
	}

	result, err := s.bank.InitiateTransfer(ctx, transferReq)
	if err != nil {
		s.recordFailure(log, report, key, emp.Name, err.Error())
		return
	}

	if challenge, ok := result.(bank.ChallengeRequired); ok {
		s.warn(log, report, "%s: please confirm the transfer in the banking app", emp.Name)
		if !s.approvals.Await(ctx, challenge.SessionToken) {
			s.recordFailure(log, report, key, emp.Name, "step-up approval denied or timed out")
			return
		}
		// Resubmit the identical request (same idempotency key) with the
		// approved session attached.
		transferReq.SCASessionToken = challenge.SessionToken
		result, err = s.bank.InitiateTransfer(ctx, transferReq)
		if err != nil {
			s.recordFailure(log, report, key, emp.Name, err.Error())
			return
		}
	}

	switch r := result.(type) {
	case bank.Created:
		if err := s.repo.RecordSuccess(key, r.TransferID); err != nil {
			s.warn(log, report, "%s: transfer created but ledger write failed: %v", emp.Name, err)
		}
		log.Info("transfer succeeded", "employee", emp.Name, "transfer_id", r.TransferID)
		report.TransfersOK = append(report.TransfersOK, emp.Name)
	case bank.AlreadyProcessed:
		if err := s.repo.RecordSuccess(key, ""); err != nil {
			s.warn(log, report, "%s: ledger write failed: %v", emp.Name, err)
		}
		log.Info("transfer already existed bank-side", "employee", emp.Name)
		report.TransfersOK = append(report.TransfersOK, emp.Name)
	case bank.Rejected:
		s.recordFailure(log, report, key, emp.Name,
			fmt.Sprintf("rejected (HTTP %d): %s", r.Code, r.Reason))
	case bank.ChallengeRequired:
		s.recordFailure(log, report, key, emp.Name,
			"bank demanded a second step-up challenge after approval")
	default:
		s.recordFailure(log, report, key, emp.Name,
			fmt.Sprintf("unexpected transfer result %T", result))
	}
}

func (s *Service) recordFailure(log *slog.Logger, report *Report, key, name, reason string) {
	if err := s.repo.RecordFailure(key, reason); err != nil {
		log.Error("ledger write failed", "employee", name, "error", err)
	}
	s.fail(log, report, name, reason)
}

func (s *Service) fail(log *slog.Logger, report *Report, name, reason string) {
	log.Error("transfer failed", "employee", name, "reason", reason)
	report.TransfersFailed = append(report.TransfersFailed, name)
	report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", name, reason))
}

func (s *Service) warn(log *slog.Logger, report *Report, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Warn(msg)
	report.Warnings = append(report.Warnings, msg)
}
