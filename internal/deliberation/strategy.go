package deliberation

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/tribunal/internal/model"
	"github.com/ppiankov/tribunal/internal/worker"
)

// Strategy names a kind of run
type Strategy string

const (
	StrategyLinear        Strategy = "linear"
	StrategyFractal       Strategy = "fractal"
	StrategyInterrogation Strategy = "interrogation"
	StrategySettlement    Strategy = "settlement"
)

// ParseStrategy parses an orchestration strategy name (linear or fractal)
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyLinear, "":
		return StrategyLinear, nil
	case StrategyFractal:
		return StrategyFractal, nil
	default:
		return "", fmt.Errorf("unknown strategy: %s (supported: linear, fractal)", s)
	}
}

// Run starts a deliberation with the given orchestration strategy
func (e *Engine) Run(ctx context.Context, claimID string, strategy Strategy) (*Outcome, error) {
	switch strategy {
	case StrategyLinear:
		return e.RunDebate(ctx, claimID)
	case StrategyFractal:
		return e.RunInvestigation(ctx, claimID)
	default:
		return nil, fmt.Errorf("strategy %s cannot start a deliberation", strategy)
	}
}

// Adjudicator adapts the engine to batch processing with a fixed strategy
func (e *Engine) Adjudicator(strategy Strategy) worker.Adjudicator {
	return &adjudicator{engine: e, strategy: strategy}
}

type adjudicator struct {
	engine   *Engine
	strategy Strategy
}

// Adjudicate implements worker.Adjudicator
func (a *adjudicator) Adjudicate(ctx context.Context, claimID string) (model.ClaimStatus, error) {
	out, err := a.engine.Run(ctx, claimID, a.strategy)
	if err != nil {
		return "", err
	}
	return out.Status, nil
}
