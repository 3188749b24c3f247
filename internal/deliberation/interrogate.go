package deliberation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/tribunal/internal/claim"
	"github.com/ppiankov/tribunal/internal/llm"
	"github.com/ppiankov/tribunal/internal/media"
	"github.com/ppiankov/tribunal/internal/model"
)

// Interrogate judges the claimant's recorded testimony against the evidence.
// Genuine testimony returns the claim to DEBATE_IN_PROGRESS so the caller can
// resume the debate; anything else slashes the bond and rejects the claim as
// fraud. A response that is not the expected JSON fails the run.
func (e *Engine) Interrogate(ctx context.Context, claimID string, testimony *media.Asset) (*Outcome, error) {
	c, err := e.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	guard := claim.CanInterrogate(claim.InterrogationContext{
		ClaimID:      c.ID,
		Status:       c.Status,
		HasTestimony: testimony != nil && len(testimony.Data) > 0,
	})
	if !guard.Allowed {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, guard.Error())
	}

	spec := runSpec{
		strategy: StrategyInterrogation,
		to:       model.StatusInterrogationPending,
		from:     []model.ClaimStatus{model.StatusInterrogationPending},
		deadline: true,
	}
	return e.exclusive(ctx, c, spec, func(ctx context.Context, r *run) (*Outcome, error) {
		attachments := []llm.Attachment{testimony.Attachment()}
		if e.media != nil && !c.Evidence.IsZero() {
			image, err := e.media.LoadEvidence(ctx, c.Evidence)
			if err != nil {
				return nil, fmt.Errorf("load evidence: %w", err)
			}
			attachments = append(attachments, image.Attachment())
		}

		text, err := e.gen.GenerateWithMedia(ctx, InterrogationPrompt(c, len(attachments) > 1), attachments)
		if err != nil {
			return nil, fmt.Errorf("interrogation: %w", err)
		}
		voice, err := ParseTestimony(text, e.config.FraudScoreThreshold)
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(struct {
			ClaimID string              `json:"claim_id"`
			Voice   model.VoiceAnalysis `json:"voice_analysis"`
		}{c.ID, voice})
		if err != nil {
			return nil, fmt.Errorf("encode voice analysis: %w", err)
		}
		proof := e.recorder.Mirror(ctx, string(payload))
		voice.ProofID = proof.ID

		ref := testimony.Ref
		if err := e.store.PatchClaim(ctx, c.ID, model.ClaimPatch{VoiceAnalysis: &voice, VoiceEvidenceRef: &ref}); err != nil {
			return nil, err
		}

		judged := "inconsistent with the evidence"
		if voice.IsReal {
			judged = "consistent with the evidence"
		}
		if _, err := r.insert(ctx, model.Turn{
			AgentRole: model.RoleSystem,
			AgentName: NameInterrogator,
			Content:   fmt.Sprintf("Testimony judged %s (consistency %d/100). %s", judged, voice.ConsistencyScore, voice.Analysis),
			Round:     model.RoundIntermission,
			IsOnChain: proof.OK,
			ProofID:   proof.ID,
		}); err != nil {
			return nil, err
		}

		if voice.IsReal {
			r.logger.Info("testimony accepted, claim eligible to resume", "score", voice.ConsistencyScore)
			if err := e.machine.Transition(ctx, c.ID, model.StatusDebateInProgress); err != nil {
				return nil, err
			}
			return &Outcome{Status: model.StatusDebateInProgress, Voice: &voice}, nil
		}

		r.logger.Warn("testimony rejected, applying penalty", "score", voice.ConsistencyScore)
		if err := r.penalize(ctx); err != nil {
			return nil, err
		}
		if err := e.machine.Transition(ctx, c.ID, model.StatusRejectedFraudDetected); err != nil {
			return nil, err
		}
		return &Outcome{Status: model.StatusRejectedFraudDetected, Voice: &voice}, nil
	})
}

// penalize slashes the claimant's bond and documents the attempt whatever
// the ledger answered
func (r *run) penalize(ctx context.Context) error {
	c := r.claim

	if c.BondAmount <= 0 || c.ClaimantAddress == "" {
		_, err := r.insert(ctx, model.Turn{
			AgentRole: model.RoleSystem,
			AgentName: NameSystem,
			Content:   "Penalty: fraud detected, but the claim carries no bond to slash.",
			Round:     model.RoundIntermission,
		})
		return err
	}

	proof := r.engine.recorder.Slash(ctx, c.ClaimantAddress, c.BondAmount)
	content := fmt.Sprintf("Penalty: bond of %.2f slashed from %s (proof %s).", c.BondAmount, c.ClaimantAddress, proof.ID)
	if !proof.OK {
		content = fmt.Sprintf("Penalty: slashing the bond of %.2f from %s was attempted. The ledger did not confirm it; recorded off-chain.", c.BondAmount, c.ClaimantAddress)
	}

	_, err := r.insert(ctx, model.Turn{
		AgentRole: model.RoleSystem,
		AgentName: NameSystem,
		Content:   content,
		Round:     model.RoundIntermission,
		IsOnChain: proof.OK,
		ProofID:   proof.ID,
	})
	return err
}
