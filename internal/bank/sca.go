package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Step-up polling cadence. Approval happens on a human's phone, so the
// session endpoint is polled slowly and progress is surfaced even more
// coarsely.
const (
	defaultPollInterval     = 2 * time.Second
	defaultProgressInterval = 10 * time.Second
	defaultApprovalDeadline = 5 * time.Minute
)

// Approvals waits for the human side of a step-up (SCA) challenge: the
// bank pushes a confirmation to the operator's paired device and we poll
// the session until it resolves or the deadline passes.
type Approvals struct {
	client *Client
	log    *slog.Logger

	PollInterval     time.Duration
	ProgressInterval time.Duration
	Deadline         time.Duration

	// Notify, when set, receives coarse human-readable progress messages.
	Notify func(msg string)

	// Injected clock, swapped out in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewApprovals(client *Client, log *slog.Logger) *Approvals {
	return &Approvals{
		client:           client,
		log:              log.With("component", "sca"),
		PollInterval:     defaultPollInterval,
		ProgressInterval: defaultProgressInterval,
		Deadline:         defaultApprovalDeadline,
		now:              time.Now,
		sleep:            sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Await polls the session until the human approves, denies, or the
// deadline passes. Transient poll failures are tolerated; the deadline is
// the only cancellation path. Returns true only on an explicit allow.
func (a *Approvals) Await(ctx context.Context, sessionToken string) bool {
	deadline := a.now().Add(a.Deadline)
	var lastProgress time.Time

	for a.now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}

		if now := a.now(); now.Sub(lastProgress) >= a.ProgressInterval {
			remaining := int(deadline.Sub(now).Seconds())
			a.notify(fmt.Sprintf("waiting for approval in the banking app … (%ds remaining)", remaining))
			lastProgress = now
		}

		result, err := a.client.scaSession(ctx, sessionToken)
		if err != nil {
			a.log.Warn("session poll failed", "error", err)
			a.sleep(ctx, a.PollInterval)
			continue
		}

		switch result {
		case "allow":
			return true
		case "deny", "denied", "rejected", "cancel":
			a.notify("step-up approval was declined")
			return false
		}

		a.sleep(ctx, a.PollInterval)
	}

	a.notify("step-up approval timed out")
	return false
}

func (a *Approvals) notify(msg string) {
	a.log.Info(msg)
	if a.Notify != nil {
		a.Notify(msg)
	}
}

// scaSession reads the current state of a step-up session. The empty
// string means the session is still pending (including the not-yet-visible
// 404/425 window right after challenge creation).
func (c *Client) scaSession(ctx context.Context, token string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/sca_sessions/"+token, nil,
		requestOpts{useOAuth: true})
	if err != nil {
		return "", err
	}

	switch resp.status {
	case http.StatusOK:
		var body struct {
			SCASession struct {
				Result string `json:"result"`
				Status string `json:"status"`
			} `json:"sca_session"`
		}
		if err := json.Unmarshal(resp.body, &body); err != nil {
			return "", fmt.Errorf("decode session: %w", err)
		}
		if body.SCASession.Result != "" {
			return body.SCASession.Result, nil
		}
		return body.SCASession.Status, nil
	case http.StatusNotFound, http.StatusTooEarly:
		return "", nil
	default:
		return "", fmt.Errorf("HTTP %d from session endpoint: %s", resp.status, apiError(resp.body))
	}
}
