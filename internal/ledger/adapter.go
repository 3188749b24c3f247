package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/tribunal/internal/model"
)

// ErrDisabled is returned when an operation requires a ledger and none is configured
var ErrDisabled = errors.New("ledger not configured")

// Mode selects the ledger backend
type Mode string

const (
	// ModeSequencer appends payloads to an ordered, namespaced log
	ModeSequencer Mode = "LEDGER_A"
	// ModeSettlement records payloads and moves value on an account-based network
	ModeSettlement Mode = "LEDGER_B"
	// ModeDisabled keeps every turn off-chain
	ModeDisabled Mode = ""
)

// Adapter is the tamper-evident ledger capability. Every method may fail;
// callers that must not block on the ledger go through Recorder.
type Adapter interface {
	// Name returns the backend mode, also used as the settlement chain label
	Name() string

	// LogEvidence anchors an arbitrary payload and returns its proof id
	LogEvidence(ctx context.Context, payload string) (string, error)

	// PayoutClaim pays amount to recipient
	PayoutClaim(ctx context.Context, amount float64, recipient string) (string, error)

	// Stake bonds collateral from user
	Stake(ctx context.Context, user string, amount float64) (string, error)

	// Slash confiscates user's bonded collateral
	Slash(ctx context.Context, user string, amount float64) (string, error)

	// ReturnStake releases user's bonded collateral
	ReturnStake(ctx context.Context, user string, amount float64) (string, error)
}

// Config holds ledger backend configuration
type Config struct {
	Mode      Mode
	BaseURL   string
	APIKey    string
	Namespace string // sequencer log namespace
	Treasury  string // settlement account that pays claims and holds bonds
	Timeout   int    // seconds

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts the application config to ledger.Config
func ConfigFromModel(ledgerConfig model.LedgerConfig, httpConfig model.HTTPConfig) Config {
	return Config{
		Mode:       ParseMode(ledgerConfig.Mode),
		BaseURL:    ledgerConfig.BaseURL,
		APIKey:     ledgerConfig.APIKey,
		Namespace:  ledgerConfig.Namespace,
		Treasury:   ledgerConfig.Treasury,
		Timeout:    ledgerConfig.Timeout,
		HTTPProxy:  httpConfig.HTTPProxy,
		HTTPSProxy: httpConfig.HTTPSProxy,
		NoProxy:    httpConfig.NoProxy,
	}
}

// ParseMode normalizes a configured mode string
func ParseMode(s string) Mode {
	return Mode(strings.ToUpper(strings.TrimSpace(s)))
}

// NewAdapter creates the backend selected by config.Mode.
// ModeDisabled returns a nil adapter and no error.
func NewAdapter(config Config) (Adapter, error) {
	switch config.Mode {
	case ModeSequencer:
		return NewSequencer(config)

	case ModeSettlement:
		return NewSettlement(config)

	case ModeDisabled:
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown ledger mode: %s (supported: %s, %s)", config.Mode, ModeSequencer, ModeSettlement)
	}
}
