// Package config builds the validated application configuration once at
// startup. Components receive the struct by reference instead of reading
// the environment themselves.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json

	Bank Bank
}

// Bank holds the banking API credentials. The block is optional as a
// whole: documents-only runs need none of it, but a run that moves money
// requires every field.
type Bank struct {
	BaseURL   string
	Login     string
	SecretKey string
	DebitIBAN string

	ClientID       string
	ClientSecret   string
	TokenURL       string
	TokenCachePath string

	ApprovalDeadline time.Duration
}

const (
	defaultPort             = "8080"
	defaultDBPath           = "disburser.db"
	defaultLogLevel         = "info"
	defaultLogFormat        = "text"
	defaultApprovalDeadline = 300 * time.Second
)

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cachePath := os.Getenv("BANK_TOKEN_CACHE")
	if cachePath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cachePath = filepath.Join(home, ".disburser", "tokens.json")
		}
	}

	cfg := &Config{
		Port:      getEnv("PORT", defaultPort),
		DBPath:    getEnv("DB_PATH", defaultDBPath),
		LogLevel:  getEnv("LOG_LEVEL", defaultLogLevel),
		LogFormat: getEnv("LOG_FORMAT", defaultLogFormat),
		Bank: Bank{
			BaseURL:          strings.TrimRight(os.Getenv("BANK_API_BASE_URL"), "/"),
			Login:            strings.TrimSpace(os.Getenv("BANK_LOGIN")),
			SecretKey:        strings.TrimSpace(os.Getenv("BANK_SECRET_KEY")),
			DebitIBAN:        strings.TrimSpace(os.Getenv("BANK_DEBIT_IBAN")),
			ClientID:         strings.TrimSpace(os.Getenv("BANK_CLIENT_ID")),
			ClientSecret:     strings.TrimSpace(os.Getenv("BANK_CLIENT_SECRET")),
			TokenURL:         os.Getenv("BANK_TOKEN_URL"),
			TokenCachePath:   cachePath,
			ApprovalDeadline: getEnvSeconds("SCA_DEADLINE_SECONDS", defaultApprovalDeadline),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the always-required settings and, when any banking field
// is set, demands the complete block so a half-configured client cannot
// reach the transfer path.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.Bank.partial() {
		return fmt.Errorf("banking API partially configured, missing: %s",
			strings.Join(c.Bank.Missing(), ", "))
	}
	return nil
}

// Configured reports whether the banking block is fully set.
func (b *Bank) Configured() bool {
	return len(b.Missing()) == 0
}

func (b *Bank) partial() bool {
	missing := b.Missing()
	return len(missing) > 0 && len(missing) < 7
}

// Missing lists the unset required banking environment variables.
func (b *Bank) Missing() []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"BANK_API_BASE_URL", b.BaseURL},
		{"BANK_LOGIN", b.Login},
		{"BANK_SECRET_KEY", b.SecretKey},
		{"BANK_DEBIT_IBAN", b.DebitIBAN},
		{"BANK_CLIENT_ID", b.ClientID},
		{"BANK_CLIENT_SECRET", b.ClientSecret},
		{"BANK_TOKEN_URL", b.TokenURL},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
