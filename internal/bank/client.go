// Package bank talks to the SEPA banking API: payee verification, transfer
// initiation with request-level idempotency, and the step-up (SCA)
// approval flow.
package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lohnwerk/disburser/internal/retry"
)

// Settings configures the API client. Zero values fall back to the
// defaults below.
type Settings struct {
	BaseURL   string
	Login     string // organisation login slug, key auth for read endpoints
	SecretKey string
	DebitIBAN string

	RequestTimeout time.Duration // per-call timeout, default 30s
	MaxRetries     int           // transient-error retries after the first attempt, default 3
	RetryBaseDelay time.Duration // first backoff step, default 2s
}

const (
	defaultTimeout    = 30 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = 2 * time.Second

	headerIdempotencyKey = "X-Idempotency-Key"
	header2FAPreference  = "X-2fa-Preference"
	headerSCASession     = "X-Sca-Session-Token"
)

// Client is a thread-safe banking API client. Resolve must be called once
// before any payment operation.
type Client struct {
	settings Settings
	tokens   TokenSource
	http     *http.Client
	log      *slog.Logger

	accountID string
}

func NewClient(settings Settings, tokens TokenSource, log *slog.Logger) *Client {
	if settings.RequestTimeout == 0 {
		settings.RequestTimeout = defaultTimeout
	}
	if settings.MaxRetries == 0 {
		settings.MaxRetries = defaultRetries
	}
	if settings.RetryBaseDelay == 0 {
		settings.RetryBaseDelay = defaultRetryDelay
	}
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")

	return &Client{
		settings: settings,
		tokens:   tokens,
		http:     &http.Client{Timeout: settings.RequestTimeout},
		log:      log.With("component", "bank"),
	}
}

// Resolve looks up the bank account id for the configured debit IBAN via
// the organization endpoint. It must succeed before transfers are sent.
func (c *Client) Resolve(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/organizations/me", nil, requestOpts{})
	if err != nil {
		return fmt.Errorf("resolve debit account: %w", err)
	}
	if resp.status != http.StatusOK {
		return fmt.Errorf("resolve debit account: HTTP %d", resp.status)
	}

	var body struct {
		Organization struct {
			LegalName    string `json:"legal_name"`
			BankAccounts []struct {
				ID   string `json:"id"`
				IBAN string `json:"iban"`
			} `json:"bank_accounts"`
		} `json:"organization"`
	}
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return fmt.Errorf("resolve debit account: decode: %w", err)
	}

	for _, account := range body.Organization.BankAccounts {
		if account.IBAN == c.settings.DebitIBAN {
			c.accountID = account.ID
			c.log.Info("debit account resolved",
				"organization", body.Organization.LegalName, "account_id", account.ID)
			return nil
		}
	}
	return fmt.Errorf("no bank account with IBAN %s in organization %q",
		c.settings.DebitIBAN, body.Organization.LegalName)
}

// response is a fully drained HTTP result. Transport-level retries are
// already spent by the time callers see one.
type response struct {
	status int
	body   []byte
}

type requestOpts struct {
	idempotencyKey string
	useOAuth       bool
	extraHeaders   map[string]string
}

// do performs one API call with the transient-error retry budget: 429 and
// 5xx responses and connection errors are retried with exponential backoff
// (honouring Retry-After); other statuses are returned to the caller for
// interpretation.
func (c *Client) do(ctx context.Context, method, path string, payload any, opts requestOpts) (*response, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	url := c.settings.BaseURL + "/" + strings.TrimLeft(path, "/")

	var result *response
	attempt := 0
	err := retry.Do(ctx, c.settings.MaxRetries+1, c.settings.RetryBaseDelay, func() error {
		attempt++

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(reqBody))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if opts.useOAuth {
			token, err := c.tokens.Token(ctx)
			if err != nil {
				return retry.Permanent(err)
			}
			req.Header.Set("Authorization", "Bearer "+token)
		} else {
			req.Header.Set("Authorization", c.settings.Login+":"+c.settings.SecretKey)
		}
		if opts.idempotencyKey != "" {
			req.Header.Set(headerIdempotencyKey, opts.idempotencyKey)
		}
		for k, v := range opts.extraHeaders {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Warn("request failed", "method", method, "path", path,
				"attempt", attempt, "error", err)
			return err
		}
		defer resp.Body.Close()

		body := new(bytes.Buffer)
		if _, err := body.ReadFrom(resp.Body); err != nil {
			c.log.Warn("read response failed", "method", method, "path", path,
				"attempt", attempt, "error", err)
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			err := fmt.Errorf("HTTP %d from %s %s", resp.StatusCode, method, path)
			c.log.Warn("transient API status", "method", method, "path", path,
				"status", resp.StatusCode, "attempt", attempt)
			if after := parseRetryAfter(resp.Header.Get("Retry-After")); after > 0 {
				return &retry.DelayedError{Err: err, After: after}
			}
			return err
		}

		result = &response{status: resp.StatusCode, body: body.Bytes()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// apiError extracts a readable message from an API error body.
func apiError(body []byte) string {
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if len(parsed.Errors) > 0 {
			msgs := make([]string, 0, len(parsed.Errors))
			for _, e := range parsed.Errors {
				if e.Message != "" {
					msgs = append(msgs, e.Message)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
