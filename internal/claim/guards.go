package claim

import (
	"fmt"

	"github.com/ppiankov/tribunal/internal/model"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// TransitionContext provides context for a status change.
type TransitionContext struct {
	ClaimID string
	From    model.ClaimStatus
	To      model.ClaimStatus
}

// CanTransition evaluates whether a claim may move between two statuses.
func CanTransition(ctx TransitionContext) GuardResult {
	if err := ValidateTransition(ctx.From, ctx.To); err != nil {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("claim %s cannot move %s -> %s", ctx.ClaimID, ctx.From, ctx.To),
		}
	}
	return GuardResult{Allowed: true}
}

// DebateContext provides context for starting a linear debate.
type DebateContext struct {
	ClaimID string
	Status  model.ClaimStatus
}

// DebateEntryStatuses are the statuses a fresh linear debate or fractal
// investigation may start from.
func DebateEntryStatuses() []model.ClaimStatus {
	return []model.ClaimStatus{
		model.StatusPendingAnalysis,
		model.StatusDebateInProgress,
		model.StatusTimedOut,
	}
}

// CanStartDebate evaluates whether a deliberation may start.
// Rules:
// - Status must be PENDING_ANALYSIS, DEBATE_IN_PROGRESS or TIMED_OUT
func CanStartDebate(ctx DebateContext) GuardResult {
	for _, s := range DebateEntryStatuses() {
		if ctx.Status == s {
			return GuardResult{Allowed: true}
		}
	}
	return GuardResult{
		Allowed: false,
		Reason:  fmt.Sprintf("claim %s cannot start a deliberation (current status: %s)", ctx.ClaimID, ctx.Status),
	}
}

// InterrogationContext provides context for the interrogation sub-flow.
type InterrogationContext struct {
	ClaimID      string
	Status       model.ClaimStatus
	HasTestimony bool
}

// CanInterrogate evaluates whether testimony can be judged.
// Rules:
// - Status must be INTERROGATION_PENDING
// - Testimony must be supplied
func CanInterrogate(ctx InterrogationContext) GuardResult {
	if ctx.Status != model.StatusInterrogationPending {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("claim %s is not awaiting interrogation (current status: %s)", ctx.ClaimID, ctx.Status),
		}
	}
	if !ctx.HasTestimony {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("claim %s: testimony recording is required", ctx.ClaimID),
		}
	}
	return GuardResult{Allowed: true}
}

// ResumeContext provides context for resuming a debate after interrogation.
type ResumeContext struct {
	ClaimID      string
	Status       model.ClaimStatus
	Interrogated bool // testimony was judged genuine
	HasAuditor   bool
	HasVerdict   bool
}

// CanResume evaluates whether the judge round can run on its own.
// Rules:
// - Status must be DEBATE_IN_PROGRESS, or TIMED_OUT for an interrogated claim
// - The auditor round must already exist
// - No verdict may exist yet
func CanResume(ctx ResumeContext) GuardResult {
	resumable := ctx.Status == model.StatusDebateInProgress ||
		(ctx.Status == model.StatusTimedOut && ctx.Interrogated)
	if !resumable {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("claim %s cannot resume (current status: %s)", ctx.ClaimID, ctx.Status),
		}
	}
	if !ctx.HasAuditor {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("claim %s has no auditor round to resume from. Run: tribunal debate run %s", ctx.ClaimID, ctx.ClaimID),
		}
	}
	if ctx.HasVerdict {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("claim %s already has a verdict", ctx.ClaimID),
		}
	}
	return GuardResult{Allowed: true}
}

// SettleContext provides context for settlement.
type SettleContext struct {
	ClaimID         string
	Status          model.ClaimStatus
	ClaimantAddress string
	Amount          float64
}

// CanSettle evaluates whether a payout may be sent.
// Rules:
// - Status must be APPROVED
// - A claimant address is required
// - The amount must be positive
func CanSettle(ctx SettleContext) GuardResult {
	if ctx.Status != model.StatusApproved {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only settle approved claims (claim %s is %s)", ctx.ClaimID, ctx.Status),
		}
	}
	if ctx.ClaimantAddress == "" {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("claim %s has no claimant address", ctx.ClaimID),
		}
	}
	if ctx.Amount <= 0 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("claim %s has nothing to pay (amount %.2f)", ctx.ClaimID, ctx.Amount),
		}
	}
	return GuardResult{Allowed: true}
}
