package ledger

import (
	"context"
	"time"

	"github.com/ppiankov/tribunal/internal/cache"
	"github.com/ppiankov/tribunal/internal/logging"
)

// Proof is the outcome of a best-effort ledger call. OK is false when the
// ledger is disabled or the call failed; ID is set only when OK.
type Proof struct {
	ID string
	OK bool
}

// Recorder wraps an Adapter so that ledger failures never reach the
// deliberation workflow. Every method except Payout absorbs errors into Proof.
type Recorder struct {
	adapter  Adapter
	proofs   cache.Cache
	proofTTL time.Duration
	logger   *logging.Logger
}

// NewRecorder creates a recorder. adapter may be nil (ledger disabled);
// proofs may be nil (no proof reuse).
func NewRecorder(adapter Adapter, proofs cache.Cache, proofTTL time.Duration, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Recorder{
		adapter:  adapter,
		proofs:   proofs,
		proofTTL: proofTTL,
		logger:   logger,
	}
}

// Enabled reports whether a backend is configured
func (r *Recorder) Enabled() bool {
	return r != nil && r.adapter != nil
}

// Backend returns the backend name, or empty when disabled
func (r *Recorder) Backend() string {
	if !r.Enabled() {
		return ""
	}
	return r.adapter.Name()
}

// Mirror anchors payload. Proofs are deduplicated by content: an identical
// payload already anchored on the same backend reuses its cached proof id, so
// callers that need one proof per record put the record's id in the payload.
func (r *Recorder) Mirror(ctx context.Context, payload string) Proof {
	if !r.Enabled() {
		return Proof{}
	}

	key := cache.ProofKey(r.adapter.Name(), payload)
	if r.proofs != nil {
		if id, ok := r.proofs.Get(key); ok {
			r.logger.Debug("ledger proof reused", "backend", r.adapter.Name(), "proof_id", string(id))
			return Proof{ID: string(id), OK: true}
		}
	}

	id, err := r.adapter.LogEvidence(ctx, payload)
	if err != nil {
		r.logger.Warn("ledger mirror failed, continuing off-chain", "backend", r.adapter.Name(), "error", err.Error())
		return Proof{}
	}

	if r.proofs != nil {
		if err := r.proofs.Set(key, []byte(id), r.proofTTL); err != nil {
			r.logger.Warn("proof cache write failed", "error", err.Error())
		}
	}
	return Proof{ID: id, OK: true}
}

// Stake bonds collateral, best-effort
func (r *Recorder) Stake(ctx context.Context, user string, amount float64) Proof {
	return r.bond(ctx, "stake", user, amount, func(a Adapter) (string, error) {
		return a.Stake(ctx, user, amount)
	})
}

// Slash confiscates collateral, best-effort
func (r *Recorder) Slash(ctx context.Context, user string, amount float64) Proof {
	return r.bond(ctx, "slash", user, amount, func(a Adapter) (string, error) {
		return a.Slash(ctx, user, amount)
	})
}

// ReturnStake releases collateral, best-effort
func (r *Recorder) ReturnStake(ctx context.Context, user string, amount float64) Proof {
	return r.bond(ctx, "return_stake", user, amount, func(a Adapter) (string, error) {
		return a.ReturnStake(ctx, user, amount)
	})
}

func (r *Recorder) bond(ctx context.Context, op, user string, amount float64, call func(Adapter) (string, error)) Proof {
	if !r.Enabled() {
		return Proof{}
	}

	id, err := call(r.adapter)
	if err != nil {
		r.logger.Warn("ledger "+op+" failed", "backend", r.adapter.Name(), "account", user, "amount", amount, "error", err.Error())
		return Proof{}
	}

	r.logger.Info("ledger "+op+" recorded", "backend", r.adapter.Name(), "account", user, "amount", amount, "proof_id", id)
	return Proof{ID: id, OK: true}
}

// Payout pays a settled claim. Unlike the other calls its failure is
// returned, since a settlement without a transfer must not be stamped.
func (r *Recorder) Payout(ctx context.Context, amount float64, recipient string) (Proof, error) {
	if !r.Enabled() {
		return Proof{}, ErrDisabled
	}

	id, err := r.adapter.PayoutClaim(ctx, amount, recipient)
	if err != nil {
		return Proof{}, err
	}
	return Proof{ID: id, OK: true}, nil
}
