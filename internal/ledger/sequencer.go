package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Sequencer is the LEDGER_A backend: an append-only, namespaced log that
// assigns each submitted message a sequence number. Value movements are
// recorded as ordered intents in the same log.
type Sequencer struct {
	client    *jsonClient
	namespace string
}

type submitRequest struct {
	Namespace string `json:"namespace"`
	Data      string `json:"data"` // base64
}

type submitResponse struct {
	SequenceNumber uint64 `json:"sequence_number"`
	Digest         string `json:"digest"`
}

// intent is the log entry for a value movement
type intent struct {
	Type    string  `json:"type"`
	Account string  `json:"account"`
	Amount  float64 `json:"amount"`
}

// NewSequencer creates a LEDGER_A adapter
func NewSequencer(config Config) (*Sequencer, error) {
	client, err := newJSONClient(config)
	if err != nil {
		return nil, err
	}

	namespace := config.Namespace
	if namespace == "" {
		namespace = "tribunal"
	}

	return &Sequencer{client: client, namespace: namespace}, nil
}

// Name returns the backend mode
func (s *Sequencer) Name() string {
	return string(ModeSequencer)
}

// LogEvidence appends payload to the namespace log
func (s *Sequencer) LogEvidence(ctx context.Context, payload string) (string, error) {
	return s.submit(ctx, []byte(payload))
}

// PayoutClaim records a payout intent
func (s *Sequencer) PayoutClaim(ctx context.Context, amount float64, recipient string) (string, error) {
	return s.record(ctx, "PAYOUT", recipient, amount)
}

// Stake records a bond intent
func (s *Sequencer) Stake(ctx context.Context, user string, amount float64) (string, error) {
	return s.record(ctx, "STAKE", user, amount)
}

// Slash records a slashing intent
func (s *Sequencer) Slash(ctx context.Context, user string, amount float64) (string, error) {
	return s.record(ctx, "SLASH", user, amount)
}

// ReturnStake records a bond release intent
func (s *Sequencer) ReturnStake(ctx context.Context, user string, amount float64) (string, error) {
	return s.record(ctx, "RETURN_STAKE", user, amount)
}

func (s *Sequencer) record(ctx context.Context, kind, account string, amount float64) (string, error) {
	if account == "" {
		return "", fmt.Errorf("%s: account is required", kind)
	}
	data, err := json.Marshal(intent{Type: kind, Account: account, Amount: amount})
	if err != nil {
		return "", fmt.Errorf("marshal intent: %w", err)
	}
	return s.submit(ctx, data)
}

func (s *Sequencer) submit(ctx context.Context, data []byte) (string, error) {
	var resp submitResponse
	err := s.client.post(ctx, "/v1/submit", submitRequest{
		Namespace: s.namespace,
		Data:      base64.StdEncoding.EncodeToString(data),
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("sequencer submit: %w", err)
	}
	if resp.Digest == "" {
		return "", fmt.Errorf("sequencer submit: empty digest")
	}
	return fmt.Sprintf("%s/%d/%s", s.namespace, resp.SequenceNumber, resp.Digest), nil
}
