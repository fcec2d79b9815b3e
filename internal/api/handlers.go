package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/lohnwerk/disburser/internal/domain"
	"github.com/lohnwerk/disburser/internal/payrun"
	"github.com/lohnwerk/disburser/internal/repository"
	"github.com/lohnwerk/disburser/internal/roster"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	repo   *repository.TransferRepo
	runSvc *payrun.Service
	log    *slog.Logger
}

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "component", "api", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- ListEmployees ---

func (h *Handlers) ListEmployees(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("roster")
	if path == "" {
		writeError(w, http.StatusBadRequest, "roster query parameter is required")
		return
	}

	result, err := roster.ParseFile(path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"employees": result.Employees,
		"errors":    result.Errors,
		"count":     len(result.Employees),
	})
}

// --- ListTransfers ---

func (h *Handlers) ListTransfers(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period != "" && !periodPattern.MatchString(period) {
		writeError(w, http.StatusBadRequest, "period must be YYYY-MM")
		return
	}

	records, err := h.repo.List(period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transfers": records,
		"total":     len(records),
	})
}

// --- TransferStatus ---

func (h *Handlers) TransferStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	period := q.Get("period")
	amountStr := q.Get("amount_cents")

	if name == "" || period == "" || amountStr == "" {
		writeError(w, http.StatusBadRequest, "name, period and amount_cents are required")
		return
	}
	if !periodPattern.MatchString(period) {
		writeError(w, http.StatusBadRequest, "period must be YYYY-MM")
		return
	}
	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil || amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount_cents must be a positive integer")
		return
	}

	key := domain.DeriveKey(name, period, amount)
	record, err := h.repo.Get(key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{
		"name":            name,
		"period":          period,
		"amount_cents":    amount,
		"idempotency_key": key,
		"processed":       record != nil && record.Status == domain.StatusSuccess,
	}
	if record != nil {
		resp["record"] = record
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- ProcessPayroll ---

func (h *Handlers) ProcessPayroll(w http.ResponseWriter, r *http.Request) {
	var req payrun.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.DocumentPath == "" || req.RosterPath == "" {
		writeError(w, http.StatusBadRequest, "document_path and roster_path are required")
		return
	}
	if req.Period != "" && !periodPattern.MatchString(req.Period) {
		writeError(w, http.StatusBadRequest, "period must be YYYY-MM")
		return
	}

	h.log.Info("payroll run requested", "document", req.DocumentPath,
		"roster", req.RosterPath, "period", req.Period,
		"skip_transfers", req.SkipTransfers)

	report, err := h.runSvc.Process(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}
