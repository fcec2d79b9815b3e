package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lohnwerk/disburser/internal/payrun"
	"github.com/lohnwerk/disburser/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(repo *repository.TransferRepo, runSvc *payrun.Service, log *slog.Logger) http.Handler {
	h := &Handlers{
		repo:   repo,
		runSvc: runSvc,
		log:    log.With("component", "api"),
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Roster.
		r.Get("/employees", h.ListEmployees)

		// Ledger queries.
		r.Get("/transfers", h.ListTransfers)
		r.Get("/transfers/status", h.TransferStatus)

		// Payroll run.
		r.Post("/payroll/process", h.ProcessPayroll)
	})

	return r
}
