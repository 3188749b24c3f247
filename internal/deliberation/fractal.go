package deliberation

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/tribunal/internal/claim"
	"github.com/ppiankov/tribunal/internal/model"
)

// RunInvestigation runs the fractal strategy: a planner picks up to three
// branches, each branch holds a two-role specialist debate under its own
// announcement turn, and a final synthesis produces the verdict.
// Branches run one after another in the planner's order.
func (e *Engine) RunInvestigation(ctx context.Context, claimID string) (*Outcome, error) {
	c, err := e.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if guard := claim.CanStartDebate(claim.DebateContext{ClaimID: c.ID, Status: c.Status}); !guard.Allowed {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, guard.Error())
	}

	spec := runSpec{
		strategy: StrategyFractal,
		to:       model.StatusDebateInProgress,
		from:     claim.DebateEntryStatuses(),
		deadline: true,
	}
	return e.exclusive(ctx, c, spec, func(ctx context.Context, r *run) (*Outcome, error) {
		analysis := c.InitialAnalysis

		planText, err := e.gen.Generate(ctx, PlannerPrompt(analysis))
		if err != nil {
			return nil, fmt.Errorf("planner: %w", err)
		}
		plan, err := ParsePlan(planText, e.config.MaxBranches)
		if err != nil {
			return nil, err
		}

		root, err := r.record(ctx, model.Turn{
			AgentRole: model.RoleSystem,
			AgentName: NamePlanner,
			Content:   describePlan(plan),
			Round:     model.RoundRoot,
		})
		if err != nil {
			return nil, err
		}

		reports := make([]BranchReport, 0, len(plan.Branches))
		for _, branch := range plan.Branches {
			report, err := r.investigate(ctx, root, branch)
			if err != nil {
				return nil, err
			}
			reports = append(reports, report)
		}

		text, err := e.gen.Generate(ctx, SynthesisPrompt(analysis, plan.Strategy, reports))
		if err != nil {
			return nil, fmt.Errorf("synthesis: %w", err)
		}
		// The consolidated verdict is flagged on-chain whether or not the
		// mirror confirmed it; ProofID is only set when it did.
		verdictTurn, err := r.mirror(ctx, model.Turn{
			ParentID:  root.ID,
			AgentRole: model.RoleVerdict,
			AgentName: NameSynthesizer,
			Content:   text,
			Round:     model.RoundConsolidated,
		})
		if err != nil {
			return nil, err
		}
		verdictTurn.IsOnChain = true
		if _, err := r.insert(ctx, verdictTurn); err != nil {
			return nil, err
		}

		verdict := ParseVerdict(text)
		status, err := r.stampVerdict(ctx, verdict)
		if err != nil {
			return nil, err
		}
		if err := r.releaseBond(ctx, false); err != nil {
			return nil, err
		}
		return &Outcome{Status: status, Verdict: &verdict, Plan: &plan}, nil
	})
}

// investigate runs one branch: announcement, defender and critic
func (r *run) investigate(ctx context.Context, root model.Turn, branch model.BranchType) (BranchReport, error) {
	e := r.engine
	analysis := r.claim.InitialAnalysis
	logger := r.logger.WithBranch(string(branch))

	if !branch.IsKnown() {
		logger.Warn("unknown branch, using PHYSICAL templates")
	}
	t := TemplateFor(branch)

	announcement, err := r.record(ctx, model.Turn{
		ParentID:   root.ID,
		AgentRole:  model.RoleSystem,
		AgentName:  NameSystem,
		Content:    fmt.Sprintf("Opening %s investigation: %s.", branch, t.Focus),
		Round:      model.RoundBranch,
		BranchType: branch,
	})
	if err != nil {
		return BranchReport{}, err
	}

	defense, err := e.gen.Generate(ctx, t.DefenderPrompt(analysis))
	if err != nil {
		return BranchReport{}, fmt.Errorf("%s defender: %w", branch, err)
	}
	if _, err := r.record(ctx, model.Turn{
		ParentID:   announcement.ID,
		AgentRole:  model.RoleLawyer,
		AgentName:  t.Defender,
		Content:    defense,
		Round:      model.RoundDefender,
		BranchType: branch,
	}); err != nil {
		return BranchReport{}, err
	}

	critique, err := e.gen.Generate(ctx, t.CriticPrompt(analysis, defense))
	if err != nil {
		return BranchReport{}, fmt.Errorf("%s critic: %w", branch, err)
	}
	if _, err := r.record(ctx, model.Turn{
		ParentID:   announcement.ID,
		AgentRole:  model.RoleAuditor,
		AgentName:  t.Critic,
		Content:    critique,
		Round:      model.RoundCritic,
		BranchType: branch,
	}); err != nil {
		return BranchReport{}, err
	}

	logger.Debug("branch complete")
	return BranchReport{Branch: branch, Defense: defense, Critique: critique}, nil
}

func describePlan(p Plan) string {
	branches := "none"
	if len(p.Branches) > 0 {
		names := make([]string, len(p.Branches))
		for i, b := range p.Branches {
			names[i] = string(b)
		}
		branches = strings.Join(names, ", ")
	}
	strategy := p.Strategy
	if strategy == "" {
		strategy = "(no strategy given)"
	}
	return fmt.Sprintf("Investigation strategy: %s Branches: %s.", strategy, branches)
}
