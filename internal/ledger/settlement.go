package ledger

import (
	"context"
	"fmt"
	"strings"
)

// Settlement is the LEDGER_B backend: an account-based network. Evidence is
// anchored as a zero-value treasury self-transfer carrying the payload as memo.
type Settlement struct {
	client   *jsonClient
	treasury string
}

type transferRequest struct {
	Kind   string  `json:"kind"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Memo   string  `json:"memo,omitempty"`
}

type transferResponse struct {
	TxHash  string `json:"tx_hash"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// NewSettlement creates a LEDGER_B adapter
func NewSettlement(config Config) (*Settlement, error) {
	if config.Treasury == "" {
		return nil, fmt.Errorf("treasury account is required for mode %s", ModeSettlement)
	}

	client, err := newJSONClient(config)
	if err != nil {
		return nil, err
	}

	return &Settlement{client: client, treasury: config.Treasury}, nil
}

// Name returns the backend mode
func (s *Settlement) Name() string {
	return string(ModeSettlement)
}

// LogEvidence anchors payload as a memo
func (s *Settlement) LogEvidence(ctx context.Context, payload string) (string, error) {
	return s.transfer(ctx, transferRequest{
		Kind: "MEMO",
		From: s.treasury,
		To:   s.treasury,
		Memo: payload,
	})
}

// PayoutClaim transfers amount from the treasury to recipient
func (s *Settlement) PayoutClaim(ctx context.Context, amount float64, recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("payout: recipient is required")
	}
	if amount <= 0 {
		return "", fmt.Errorf("payout: amount must be positive, got %v", amount)
	}
	return s.transfer(ctx, transferRequest{
		Kind:   "PAYOUT",
		From:   s.treasury,
		To:     recipient,
		Amount: amount,
	})
}

// Stake moves the bond from user into the treasury escrow
func (s *Settlement) Stake(ctx context.Context, user string, amount float64) (string, error) {
	return s.bond(ctx, "STAKE", user, s.treasury, user, amount)
}

// Slash burns the escrowed bond of user
func (s *Settlement) Slash(ctx context.Context, user string, amount float64) (string, error) {
	return s.bond(ctx, "SLASH", s.treasury, s.treasury, user, amount)
}

// ReturnStake releases the escrowed bond back to user
func (s *Settlement) ReturnStake(ctx context.Context, user string, amount float64) (string, error) {
	return s.bond(ctx, "RETURN_STAKE", s.treasury, user, user, amount)
}

func (s *Settlement) bond(ctx context.Context, kind, from, to, user string, amount float64) (string, error) {
	if user == "" {
		return "", fmt.Errorf("%s: account is required", strings.ToLower(kind))
	}
	return s.transfer(ctx, transferRequest{
		Kind:   kind,
		From:   from,
		To:     to,
		Amount: amount,
		Memo:   "bond:" + user,
	})
}

func (s *Settlement) transfer(ctx context.Context, req transferRequest) (string, error) {
	var resp transferResponse
	if err := s.client.post(ctx, "/v1/transactions", req, &resp); err != nil {
		return "", fmt.Errorf("settlement %s: %w", strings.ToLower(req.Kind), err)
	}
	if !resp.Success {
		reason := resp.Reason
		if reason == "" {
			reason = "rejected by network"
		}
		return "", fmt.Errorf("settlement %s: %s", strings.ToLower(req.Kind), reason)
	}
	if resp.TxHash == "" {
		return "", fmt.Errorf("settlement %s: empty transaction hash", strings.ToLower(req.Kind))
	}
	return resp.TxHash, nil
}
