package deliberation

import (
	"context"
	"fmt"

	"github.com/ppiankov/tribunal/internal/claim"
	"github.com/ppiankov/tribunal/internal/model"
)

// RunDebate runs the linear advocate, auditor and judge deliberation.
// When the fraud screen flags the auditor's statement the claim moves to
// INTERROGATION_PENDING and the run returns a halted outcome without a verdict.
func (e *Engine) RunDebate(ctx context.Context, claimID string) (*Outcome, error) {
	c, err := e.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if guard := claim.CanStartDebate(claim.DebateContext{ClaimID: c.ID, Status: c.Status}); !guard.Allowed {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, guard.Error())
	}
	if interrogated(c) && (c.Status == model.StatusDebateInProgress || c.Status == model.StatusTimedOut) {
		return nil, fmt.Errorf("%w: claim %s passed interrogation. Run: tribunal debate resume %s", ErrInvalidState, c.ID, c.ID)
	}

	spec := runSpec{
		strategy: StrategyLinear,
		to:       model.StatusDebateInProgress,
		from:     claim.DebateEntryStatuses(),
		deadline: true,
	}
	return e.exclusive(ctx, c, spec, func(ctx context.Context, r *run) (*Outcome, error) {
		analysis := c.InitialAnalysis

		advocate, err := e.gen.Generate(ctx, AdvocatePrompt(analysis))
		if err != nil {
			return nil, fmt.Errorf("advocate round: %w", err)
		}
		if _, err := r.record(ctx, model.Turn{
			AgentRole: model.RoleLawyer,
			AgentName: NameAdvocate,
			Content:   advocate,
			Round:     model.RoundAdvocate,
		}); err != nil {
			return nil, err
		}

		auditor, err := e.gen.Generate(ctx, AuditorPrompt(analysis, advocate))
		if err != nil {
			return nil, fmt.Errorf("auditor round: %w", err)
		}
		if _, err := r.record(ctx, model.Turn{
			AgentRole: model.RoleAuditor,
			AgentName: NameAuditor,
			Content:   auditor,
			Round:     model.RoundAuditor,
		}); err != nil {
			return nil, err
		}

		screen, err := e.gen.Generate(ctx, SuspicionPrompt(auditor))
		if err != nil {
			return nil, fmt.Errorf("fraud screen: %w", err)
		}
		if ParseSuspicion(screen) {
			r.logger.Warn("fraud suspected, halting for interrogation", "screen", screen)
			if err := e.machine.Transition(ctx, c.ID, model.StatusInterrogationPending); err != nil {
				return nil, err
			}
			if _, err := r.record(ctx, model.Turn{
				AgentRole: model.RoleSystem,
				AgentName: NameSystem,
				Content:   "Deliberation halted: the auditor's findings suggest fraud or a material inconsistency. Claimant testimony is required before a verdict.",
				Round:     model.RoundIntermission,
			}); err != nil {
				return nil, err
			}
			return &Outcome{Status: model.StatusInterrogationPending, Halted: true}, nil
		}

		return r.judge(ctx, advocate, auditor, nil)
	})
}

// ResumeDebate runs the judge round for a claim that passed interrogation.
// The earlier advocate and auditor statements are reused from the log.
func (e *Engine) ResumeDebate(ctx context.Context, claimID string) (*Outcome, error) {
	c, err := e.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	turns, err := e.store.GetTurns(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	advocate, hasAdvocate := latestLinear(turns, model.RoleLawyer)
	auditor, hasAuditor := latestLinear(turns, model.RoleAuditor)
	guard := claim.CanResume(claim.ResumeContext{
		ClaimID:      c.ID,
		Status:       c.Status,
		Interrogated: interrogated(c),
		HasAuditor:   hasAdvocate && hasAuditor,
		HasVerdict:   model.CountRole(turns, model.RoleVerdict) > 0,
	})
	if !guard.Allowed {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, guard.Error())
	}

	spec := runSpec{
		strategy: StrategyLinear,
		to:       model.StatusDebateInProgress,
		from:     []model.ClaimStatus{model.StatusDebateInProgress, model.StatusTimedOut},
		deadline: true,
	}
	return e.exclusive(ctx, c, spec, func(ctx context.Context, r *run) (*Outcome, error) {
		return r.judge(ctx, advocate.Content, auditor.Content, c.VoiceAnalysis)
	})
}

// interrogated reports whether the claimant's testimony was judged genuine
func interrogated(c *model.Claim) bool {
	return c.VoiceAnalysis != nil && c.VoiceAnalysis.IsReal
}

// judge runs round 3 and stamps the claim with the verdict
func (r *run) judge(ctx context.Context, advocate, auditor string, testimony *model.VoiceAnalysis) (*Outcome, error) {
	e := r.engine
	c := r.claim

	text, err := e.gen.Generate(ctx, JudgePrompt(c.InitialAnalysis, advocate, auditor, testimony))
	if err != nil {
		return nil, fmt.Errorf("judge round: %w", err)
	}
	verdict := ParseVerdict(text)
	if !verdict.Structured {
		r.logger.Warn("verdict outside the fixed grammar, using token fallback", "decision", verdict.Decision)
	}

	if _, err := r.record(ctx, model.Turn{
		AgentRole: model.RoleVerdict,
		AgentName: NameJudge,
		Content:   text,
		Round:     model.RoundJudge,
	}); err != nil {
		return nil, err
	}

	status, err := r.stampVerdict(ctx, verdict)
	if err != nil {
		return nil, err
	}
	if err := r.releaseBond(ctx, true); err != nil {
		return nil, err
	}
	return &Outcome{Status: status, Verdict: &verdict}, nil
}

// stampVerdict transitions the claim to the verdict's status with its payout
func (r *run) stampVerdict(ctx context.Context, verdict model.Verdict) (model.ClaimStatus, error) {
	status := verdict.Decision.Status()
	payout := verdict.PayoutPercent
	text := verdict.Raw
	err := r.engine.machine.TransitionWith(ctx, r.claim.ID, status, model.ClaimPatch{
		PayoutPercent: &payout,
		Verdict:       &text,
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// latestLinear returns the last non-branch turn with role
func latestLinear(turns []model.Turn, role model.AgentRole) (model.Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].AgentRole == role && turns[i].BranchType == "" {
			return turns[i], true
		}
	}
	return model.Turn{}, false
}
