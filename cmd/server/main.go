package main

import (
	"log"
	"net/http"

	"github.com/lohnwerk/disburser/internal/api"
	"github.com/lohnwerk/disburser/internal/bank"
	"github.com/lohnwerk/disburser/internal/config"
	"github.com/lohnwerk/disburser/internal/logging"
	"github.com/lohnwerk/disburser/internal/match"
	"github.com/lohnwerk/disburser/internal/payrun"
	"github.com/lohnwerk/disburser/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	logger.Info("initializing ledger database", "path", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	repo := repository.NewTransferRepo(db)
	matcher := match.New(logger)

	// The banking client is optional: without it the server still serves
	// ledger queries and documents-only runs.
	var bankClient payrun.TransferClient
	var approvals payrun.Approver
	if cfg.Bank.Configured() {
		client := bank.NewClient(bank.Settings{
			BaseURL:   cfg.Bank.BaseURL,
			Login:     cfg.Bank.Login,
			SecretKey: cfg.Bank.SecretKey,
			DebitIBAN: cfg.Bank.DebitIBAN,
		}, &bank.FileTokenSource{
			Path:         cfg.Bank.TokenCachePath,
			TokenURL:     cfg.Bank.TokenURL,
			ClientID:     cfg.Bank.ClientID,
			ClientSecret: cfg.Bank.ClientSecret,
		}, logger)

		scaApprovals := bank.NewApprovals(client, logger)
		scaApprovals.Deadline = cfg.Bank.ApprovalDeadline

		bankClient = client
		approvals = scaApprovals
	} else {
		logger.Warn("banking API not configured, transfers disabled",
			"missing", cfg.Bank.Missing())
	}

	runSvc := payrun.NewService(repo, matcher, bankClient, approvals, logger)
	router := api.NewRouter(repo, runSvc, logger)

	logger.Info("payroll disbursement service",
		"addr", "http://localhost:"+cfg.Port,
		"api_base", "/api/v1")
	logger.Info("endpoints",
		"process", "POST /api/v1/payroll/process",
		"employees", "GET /api/v1/employees",
		"transfers", "GET /api/v1/transfers",
		"status", "GET /api/v1/transfers/status")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
