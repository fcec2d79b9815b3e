package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Result is the outcome of one transfer initiation attempt.
//
// Exactly one of the concrete types is returned:
//
//	Created           — the bank accepted and created the transfer
//	ChallengeRequired — the bank demands a step-up approval first
//	AlreadyProcessed  — request-level idempotency conflict, an identical
//	                    transfer already exists bank-side
//	Rejected          — the bank declined the transfer
type Result interface {
	isResult()
}

type Created struct {
	TransferID string
}

type ChallengeRequired struct {
	SessionToken string
}

type AlreadyProcessed struct{}

type Rejected struct {
	Reason string
	Code   int
}

func (Created) isResult()           {}
func (ChallengeRequired) isResult() {}
func (AlreadyProcessed) isResult()  {}
func (Rejected) isResult()          {}

// VerifyPayee checks the beneficiary name against the account with the
// bank and returns the verification proof token. A "no match" or "close
// match" verdict is advisory: it is logged and the transfer proceeds. Only
// an unreachable API or a non-success status is an error.
func (c *Client) VerifyPayee(ctx context.Context, iban, name string) (string, error) {
	payload := map[string]string{
		"iban":             iban,
		"beneficiary_name": name,
	}
	resp, err := c.do(ctx, http.MethodPost, "/sepa/verify_payee", payload,
		requestOpts{useOAuth: true})
	if err != nil {
		return "", &VerificationError{Name: name, Detail: err.Error()}
	}
	if resp.status != http.StatusOK {
		return "", &VerificationError{Name: name, StatusCode: resp.status, Detail: apiError(resp.body)}
	}

	var body struct {
		MatchResult string `json:"match_result"`
		ProofToken  struct {
			Token string `json:"token"`
		} `json:"proof_token"`
	}
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return "", &VerificationError{Name: name, Detail: fmt.Sprintf("decode: %v", err)}
	}
	if body.ProofToken.Token == "" {
		return "", &VerificationError{Name: name, Detail: "response carried no proof token"}
	}

	if body.MatchResult == "MATCH_RESULT_MATCH" {
		c.log.Info("payee name verified", "name", name)
	} else {
		c.log.Warn("payee verification verdict", "name", name,
			"verdict", body.MatchResult, "action", "proceeding anyway")
	}
	return body.ProofToken.Token, nil
}

// TransferRequest describes one SEPA credit transfer.
type TransferRequest struct {
	BeneficiaryName string
	BeneficiaryIBAN string
	AmountCents     int64
	Period          string
	IdempotencyKey  string
	ProofToken      string
	// SCASessionToken attaches an approved step-up session when
	// resubmitting after a challenge.
	SCASessionToken string
}

// InitiateTransfer submits a transfer. The idempotency key rides as a
// request header, so a resubmission after a dropped response cannot create
// a second transfer bank-side.
func (c *Client) InitiateTransfer(ctx context.Context, req TransferRequest) (Result, error) {
	if c.accountID == "" {
		return nil, fmt.Errorf("initiate transfer: debit account not resolved")
	}

	reference := fmt.Sprintf("Gehalt %s", req.Period)
	payload := map[string]any{
		"vop_proof_token": req.ProofToken,
		"transfer": map[string]any{
			"bank_account_id": c.accountID,
			"beneficiary": map[string]string{
				"name": req.BeneficiaryName,
				"iban": req.BeneficiaryIBAN,
			},
			"reference": reference,
			"amount":    formatAmount(req.AmountCents),
			"note":      reference,
		},
	}

	opts := requestOpts{
		idempotencyKey: req.IdempotencyKey,
		useOAuth:       true,
		extraHeaders:   map[string]string{header2FAPreference: "paired-device"},
	}
	if req.SCASessionToken != "" {
		opts.extraHeaders[headerSCASession] = req.SCASessionToken
	}

	resp, err := c.do(ctx, http.MethodPost, "/sepa/transfers", payload, opts)
	if err != nil {
		return nil, fmt.Errorf("initiate transfer: %w", err)
	}

	switch {
	case resp.status == http.StatusOK || resp.status == http.StatusCreated:
		var body struct {
			Transfer struct {
				ID   string `json:"id"`
				UUID string `json:"uuid"`
			} `json:"transfer"`
		}
		if err := json.Unmarshal(resp.body, &body); err != nil {
			return nil, fmt.Errorf("initiate transfer: decode: %w", err)
		}
		id := body.Transfer.ID
		if id == "" {
			id = body.Transfer.UUID
		}
		c.log.Info("transfer created", "name", req.BeneficiaryName, "transfer_id", id)
		return Created{TransferID: id}, nil

	case resp.status == http.StatusPreconditionRequired:
		var body struct {
			SCASessionToken string `json:"sca_session_token"`
		}
		if err := json.Unmarshal(resp.body, &body); err != nil || body.SCASessionToken == "" {
			return Rejected{
				Reason: "step-up required but response carried no session token",
				Code:   resp.status,
			}, nil
		}
		return ChallengeRequired{SessionToken: body.SCASessionToken}, nil

	case resp.status == http.StatusUnprocessableEntity:
		detail := apiError(resp.body)
		lower := strings.ToLower(detail + string(resp.body))
		if strings.Contains(lower, "idempoten") || strings.Contains(lower, "already") {
			c.log.Info("transfer already exists bank-side", "name", req.BeneficiaryName)
			return AlreadyProcessed{}, nil
		}
		return Rejected{Reason: detail, Code: resp.status}, nil

	default:
		return Rejected{Reason: apiError(resp.body), Code: resp.status}, nil
	}
}

// formatAmount renders cents as a decimal string without going through
// floating point.
func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
