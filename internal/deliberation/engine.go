// Package deliberation runs the claim adjudication workflows: the linear
// debate, the interrogation sub-flow, the fractal investigation and
// settlement. Every run holds the claim exclusively and under a deadline.
package deliberation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/tribunal/internal/cache"
	"github.com/ppiankov/tribunal/internal/claim"
	"github.com/ppiankov/tribunal/internal/ledger"
	"github.com/ppiankov/tribunal/internal/llm"
	"github.com/ppiankov/tribunal/internal/logging"
	"github.com/ppiankov/tribunal/internal/media"
	"github.com/ppiankov/tribunal/internal/model"
)

var (
	// ErrRunInProgress is returned when another run holds the claim
	ErrRunInProgress = errors.New("a deliberation run is already in progress for this claim")

	// ErrInvalidState is returned when the claim's status does not allow the operation
	ErrInvalidState = errors.New("claim is not in a valid state for this operation")

	// ErrMalformedResponse is returned when generated text lacks the structure a step requires
	ErrMalformedResponse = errors.New("malformed generation response")

	// ErrTimedOut is returned when a run exceeds its deadline
	ErrTimedOut = errors.New("deliberation run timed out")
)

// Store is the persistence the engine needs
type Store interface {
	claim.Store
	CreateClaim(ctx context.Context, c *model.Claim) error
	InsertTurn(ctx context.Context, t *model.Turn) error
	GetTurns(ctx context.Context, claimID string) ([]model.Turn, error)
}

// MediaLoader loads the evidence image attached to a claim
type MediaLoader interface {
	LoadEvidence(ctx context.Context, e model.Evidence) (*media.Asset, error)
}

// Options configures an Engine
type Options struct {
	Store     Store
	Generator llm.MediaGenerator
	Recorder  *ledger.Recorder // nil disables ledger mirroring
	Media     MediaLoader      // nil sends testimony without the evidence image
	Config    model.DeliberationConfig
	Logger    *logging.Logger
}

// Engine drives claims through the deliberation workflows
type Engine struct {
	store    Store
	machine  *claim.Machine
	gen      llm.MediaGenerator
	recorder *ledger.Recorder
	media    MediaLoader
	leases   *cache.LeaseTable
	config   model.DeliberationConfig
	logger   *logging.Logger
}

// New creates an engine
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("deliberation: store is required")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("deliberation: generator is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = ledger.NewRecorder(nil, nil, 0, logger)
	}

	config := opts.Config
	defaults := model.DefaultConfig().Deliberation
	if config.FraudScoreThreshold <= 0 {
		config.FraudScoreThreshold = defaults.FraudScoreThreshold
	}
	if config.MaxBranches <= 0 {
		config.MaxBranches = defaults.MaxBranches
	}
	if config.LeaseGrace <= 0 {
		config.LeaseGrace = defaults.LeaseGrace
	}

	e := &Engine{
		store:    opts.Store,
		machine:  claim.NewMachine(opts.Store, logger),
		gen:      opts.Generator,
		recorder: recorder,
		media:    opts.Media,
		config:   config,
		logger:   logger,
	}
	e.leases = cache.NewLeaseTable(e.leaseTTL())
	return e, nil
}

// leaseTTL bounds how long a crashed run can block a claim
func (e *Engine) leaseTTL() time.Duration {
	if e.config.RunTimeout <= 0 {
		return 30 * time.Minute
	}
	return e.config.RunTimeout + e.config.LeaseGrace
}

// Outcome summarizes a finished run
type Outcome struct {
	ClaimID    string
	Strategy   Strategy
	Status     model.ClaimStatus
	Halted     bool                 // linear debate stopped for interrogation
	Verdict    *model.Verdict       // nil when no verdict was reached
	Voice      *model.VoiceAnalysis // interrogation result
	Plan       *Plan                // fractal investigation plan
	Settlement *model.Settlement
	Turns      int // turns written by this run
	Duration   time.Duration
}

// run is the state of one exclusive run over a claim
type run struct {
	engine   *Engine
	id       string
	claim    *model.Claim
	strategy Strategy
	logger   *logging.Logger
	written  int
}

// runSpec describes how a run takes hold of its claim
type runSpec struct {
	strategy Strategy
	to       model.ClaimStatus   // status while the run holds the claim
	from     []model.ClaimStatus // statuses the run may start from
	deadline bool                // apply RunTimeout and fall back to TIMED_OUT
}

// exclusive runs fn while holding the claim's process lease and store run
// lock. With spec.deadline the run is bounded by RunTimeout, and a run that
// exceeds it leaves the claim TIMED_OUT.
func (e *Engine) exclusive(ctx context.Context, c *model.Claim, spec runSpec, fn func(ctx context.Context, r *run) (*Outcome, error)) (*Outcome, error) {
	r := &run{
		engine:   e,
		id:       uuid.Must(uuid.NewV7()).String(),
		claim:    c,
		strategy: spec.strategy,
	}
	r.logger = e.logger.WithClaim(c.ID).WithStrategy(string(spec.strategy)).With("run_id", r.id)

	release, ok := e.leases.Acquire(c.ID, r.id)
	if !ok {
		holder, _ := e.leases.Holder(c.ID)
		return nil, fmt.Errorf("%w: %s (run %s)", ErrRunInProgress, c.ID, holder)
	}
	defer release()

	if err := e.machine.Begin(ctx, c.ID, r.id, e.leaseTTL(), spec.to, spec.from...); err != nil {
		switch {
		case errors.Is(err, claim.ErrBusy):
			return nil, fmt.Errorf("%w: %w", ErrRunInProgress, err)
		case errors.Is(err, claim.ErrNotEligible):
			return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
		default:
			return nil, err
		}
	}
	defer e.machine.End(context.WithoutCancel(ctx), c.ID, r.id)

	runCtx := ctx
	if spec.deadline && e.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.config.RunTimeout)
		defer cancel()
	}

	start := time.Now()
	r.logger.Info("deliberation started")

	out, err := fn(runCtx, r)
	if err != nil {
		if spec.deadline && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			e.timeOut(context.WithoutCancel(ctx), r)
			err = fmt.Errorf("%w: %w", ErrTimedOut, err)
		}
		r.logger.Error("deliberation failed", "turns", r.written, "duration_ms", time.Since(start).Milliseconds(), "error", err.Error())
		return nil, err
	}

	out.ClaimID = c.ID
	out.Strategy = spec.strategy
	out.Turns = r.written
	out.Duration = time.Since(start)
	r.logger.Info("deliberation finished", "status", out.Status, "halted", out.Halted, "turns", r.written, "duration_ms", out.Duration.Milliseconds())
	return out, nil
}

// timeOut moves a run that exceeded its deadline to TIMED_OUT and records why
func (e *Engine) timeOut(ctx context.Context, r *run) {
	ok, err := e.machine.CompareAndSet(ctx, r.claim.ID, model.StatusTimedOut, model.StatusDebateInProgress)
	if err != nil {
		r.logger.Error("timeout fallback failed", "error", err.Error())
		return
	}
	if !ok {
		return
	}

	_, err = r.insert(ctx, model.Turn{
		AgentRole: model.RoleSystem,
		AgentName: NameSystem,
		Content:   fmt.Sprintf("Run exceeded its %s deadline. The claim is marked TIMED_OUT and may be deliberated again.", e.config.RunTimeout),
		Round:     model.RoundTimeout,
	})
	if err != nil {
		r.logger.Error("timeout turn not recorded", "error", err.Error())
	}
}

// mirrorPayload is what gets anchored on the ledger for a turn
type mirrorPayload struct {
	TurnID   string           `json:"turn_id"`
	ClaimID  string           `json:"claim_id"`
	Role     model.AgentRole  `json:"role"`
	Agent    string           `json:"agent"`
	Round    float64          `json:"round"`
	Branch   model.BranchType `json:"branch,omitempty"`
	ParentID string           `json:"parent_id,omitempty"`
	Content  string           `json:"content"`
}

// record mirrors a turn to the ledger (best-effort) and appends it to the log
func (r *run) record(ctx context.Context, t model.Turn) (model.Turn, error) {
	t, err := r.mirror(ctx, t)
	if err != nil {
		return model.Turn{}, err
	}
	return r.insert(ctx, t)
}

// mirror anchors a turn on the ledger and sets its proof fields. The turn id
// is assigned here so that it is part of the anchored payload.
func (r *run) mirror(ctx context.Context, t model.Turn) (model.Turn, error) {
	t.ClaimID = r.claim.ID
	if t.ID == "" {
		t.ID = uuid.Must(uuid.NewV7()).String()
	}
	payload, err := json.Marshal(mirrorPayload{
		TurnID:   t.ID,
		ClaimID:  t.ClaimID,
		Role:     t.AgentRole,
		Agent:    t.AgentName,
		Round:    t.Round,
		Branch:   t.BranchType,
		ParentID: t.ParentID,
		Content:  t.Content,
	})
	if err != nil {
		return model.Turn{}, fmt.Errorf("encode turn: %w", err)
	}

	proof := r.engine.recorder.Mirror(ctx, string(payload))
	t.IsOnChain = proof.OK
	t.ProofID = proof.ID
	return t, nil
}

// insert appends a turn without touching the ledger
func (r *run) insert(ctx context.Context, t model.Turn) (model.Turn, error) {
	t.ClaimID = r.claim.ID
	if err := r.engine.store.InsertTurn(ctx, &t); err != nil {
		return model.Turn{}, err
	}
	r.written++
	r.logger.Debug("turn recorded",
		"turn_id", t.ID,
		"role", t.AgentRole,
		"round", t.Round,
		"branch", t.BranchType,
		"on_chain", t.IsOnChain,
	)
	return t, nil
}

// releaseBond returns the claimant's collateral after a non-fraud verdict.
// With note set the attempt is documented as a SYSTEM turn.
func (r *run) releaseBond(ctx context.Context, note bool) error {
	c := r.claim
	if c.BondAmount <= 0 || c.ClaimantAddress == "" {
		return nil
	}

	proof := r.engine.recorder.ReturnStake(ctx, c.ClaimantAddress, c.BondAmount)
	if !note {
		return nil
	}

	content := fmt.Sprintf("Bond of %.2f returned to %s (proof %s).", c.BondAmount, c.ClaimantAddress, proof.ID)
	if !proof.OK {
		content = fmt.Sprintf("Bond return of %.2f to %s attempted. The ledger did not confirm it; recorded off-chain.", c.BondAmount, c.ClaimantAddress)
	}
	_, err := r.insert(ctx, model.Turn{
		AgentRole: model.RoleSystem,
		AgentName: NameSystem,
		Content:   content,
		Round:     model.RoundAftermath,
		IsOnChain: proof.OK,
		ProofID:   proof.ID,
	})
	return err
}

// load fetches a claim, checking ctx first
func (e *Engine) load(ctx context.Context, claimID string) (*model.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.store.GetClaim(ctx, claimID)
}

// Submit stores a new claim and, when it carries a bond, stakes it on the
// ledger. A failed stake leaves the claim without a stake proof.
func (e *Engine) Submit(ctx context.Context, c *model.Claim) error {
	if err := e.store.CreateClaim(ctx, c); err != nil {
		return err
	}
	logger := e.logger.WithClaim(c.ID)
	logger.Info("claim submitted", "status", c.Status, "damage", c.InitialAnalysis.DamageLevel)

	if c.BondAmount <= 0 || c.ClaimantAddress == "" {
		return nil
	}
	proof := e.recorder.Stake(ctx, c.ClaimantAddress, c.BondAmount)
	if !proof.OK {
		return nil
	}
	if err := e.store.PatchClaim(ctx, c.ID, model.ClaimPatch{StakeProofID: &proof.ID}); err != nil {
		return fmt.Errorf("record stake proof: %w", err)
	}
	c.StakeProofID = proof.ID
	return nil
}

// Settle pays an approved claim through the ledger and marks it SETTLED.
// Unlike mirroring, a failed payout is returned and the claim stays APPROVED.
func (e *Engine) Settle(ctx context.Context, claimID string) (*Outcome, error) {
	c, err := e.load(ctx, claimID)
	if err != nil {
		return nil, err
	}

	amount := c.PayoutAmount()
	guard := claim.CanSettle(claim.SettleContext{
		ClaimID:         c.ID,
		Status:          c.Status,
		ClaimantAddress: c.ClaimantAddress,
		Amount:          amount,
	})
	if !guard.Allowed {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, guard.Error())
	}

	spec := runSpec{
		strategy: StrategySettlement,
		to:       model.StatusApproved,
		from:     []model.ClaimStatus{model.StatusApproved},
	}
	return e.exclusive(ctx, c, spec, func(ctx context.Context, r *run) (*Outcome, error) {
		proof, err := e.recorder.Payout(ctx, amount, c.ClaimantAddress)
		if err != nil {
			return nil, fmt.Errorf("payout: %w", err)
		}

		settlement := &model.Settlement{
			Chain:   e.recorder.Backend(),
			Amount:  amount,
			ProofID: proof.ID,
		}
		if err := e.machine.TransitionWith(ctx, c.ID, model.StatusSettled, model.ClaimPatch{Settlement: settlement}); err != nil {
			return nil, err
		}
		r.logger.Info("claim settled", "amount", amount, "recipient", c.ClaimantAddress, "proof_id", proof.ID)
		return &Outcome{Status: model.StatusSettled, Settlement: settlement}, nil
	})
}
