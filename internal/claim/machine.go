package claim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/tribunal/internal/logging"
	"github.com/ppiankov/tribunal/internal/model"
	"github.com/ppiankov/tribunal/internal/store"
)

var (
	// ErrBusy is returned by Begin when another run holds the claim
	ErrBusy = errors.New("claim has an active run")

	// ErrNotEligible is returned by Begin when the claim's status does not allow the run
	ErrNotEligible = errors.New("claim not eligible for run")
)

// Store is the persistence the machine needs
type Store interface {
	GetClaim(ctx context.Context, id string) (*model.Claim, error)
	PatchClaim(ctx context.Context, id string, patch model.ClaimPatch) error
	CompareAndSetStatus(ctx context.Context, id string, to model.ClaimStatus, from ...model.ClaimStatus) (bool, error)
	AcquireRun(ctx context.Context, id, runID string, until time.Time, to model.ClaimStatus, from ...model.ClaimStatus) error
	ReleaseRun(ctx context.Context, id, runID string) error
}

// Machine applies status changes to stored claims
type Machine struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time
}

// NewMachine creates a state machine over store
func NewMachine(s Store, logger *logging.Logger) *Machine {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Machine{store: s, logger: logger, now: time.Now}
}

// Transition overwrites the claim's status. Callers are responsible for
// requesting lifecycle edges; an edge outside the table is logged, not refused.
func (m *Machine) Transition(ctx context.Context, claimID string, to model.ClaimStatus) error {
	return m.TransitionWith(ctx, claimID, to, model.ClaimPatch{})
}

// TransitionWith overwrites the status and applies extra fields in the same write
func (m *Machine) TransitionWith(ctx context.Context, claimID string, to model.ClaimStatus, extra model.ClaimPatch) error {
	if err := ValidateStatus(to); err != nil {
		return err
	}

	current, err := m.store.GetClaim(ctx, claimID)
	if err != nil {
		return fmt.Errorf("transition: %w", err)
	}

	guard := CanTransition(TransitionContext{ClaimID: claimID, From: current.Status, To: to})
	if !guard.Allowed && current.Status != to {
		m.logger.Warn("transition outside lifecycle", "claim_id", claimID, "from", current.Status, "to", to, "reason", guard.Reason)
	}

	_, patch := ApplyTransition(*current, to, m.now())
	patch.VoiceAnalysis = extra.VoiceAnalysis
	patch.VoiceEvidenceRef = extra.VoiceEvidenceRef
	patch.PayoutPercent = extra.PayoutPercent
	patch.Verdict = extra.Verdict
	patch.StakeProofID = extra.StakeProofID
	patch.Settlement = extra.Settlement

	if err := m.store.PatchClaim(ctx, claimID, patch); err != nil {
		return fmt.Errorf("transition: %w", err)
	}

	m.logger.Info("claim transitioned", "claim_id", claimID, "from", current.Status, "to", to)
	return nil
}

// CompareAndSet moves the claim to `to` only if it is currently in one of `from`
func (m *Machine) CompareAndSet(ctx context.Context, claimID string, to model.ClaimStatus, from ...model.ClaimStatus) (bool, error) {
	ok, err := m.store.CompareAndSetStatus(ctx, claimID, to, from...)
	if err != nil {
		return false, fmt.Errorf("compare and set: %w", err)
	}
	if ok {
		m.logger.Info("claim transitioned", "claim_id", claimID, "from", from, "to", to)
	}
	return ok, nil
}

// Begin takes the claim's run lock for ttl and moves it to `to`, provided its
// status is one of `from`. Only one holder can begin a run on a claim at a time.
func (m *Machine) Begin(ctx context.Context, claimID, runID string, ttl time.Duration, to model.ClaimStatus, from ...model.ClaimStatus) error {
	err := m.store.AcquireRun(ctx, claimID, runID, m.now().Add(ttl), to, from...)
	switch {
	case err == nil:
		m.logger.Debug("run started", "claim_id", claimID, "run_id", runID, "status", to)
		return nil
	case errors.Is(err, store.ErrRunLocked):
		return fmt.Errorf("%w: %w", ErrBusy, err)
	case errors.Is(err, store.ErrStatusMismatch):
		return fmt.Errorf("%w: %w", ErrNotEligible, err)
	default:
		return fmt.Errorf("begin run: %w", err)
	}
}

// End releases the run lock taken by Begin
func (m *Machine) End(ctx context.Context, claimID, runID string) {
	if err := m.store.ReleaseRun(ctx, claimID, runID); err != nil {
		m.logger.Warn("release run lock failed", "claim_id", claimID, "run_id", runID, "error", err.Error())
		return
	}
	m.logger.Debug("run ended", "claim_id", claimID, "run_id", runID)
}
