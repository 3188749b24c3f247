package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// AgentRole identifies who produced a turn
type AgentRole string

const (
	RoleLawyer  AgentRole = "LAWYER"
	RoleAuditor AgentRole = "AUDITOR"
	RoleVerdict AgentRole = "VERDICT"
	RoleSystem  AgentRole = "SYSTEM"
)

// BranchType tags turns that belong to a fractal investigation branch
type BranchType string

const (
	BranchPhysical BranchType = "PHYSICAL"
	BranchMetadata BranchType = "METADATA"
	BranchLegal    BranchType = "LEGAL"
)

// BranchCatalogue is the fixed set of investigation branches, in catalogue order
func BranchCatalogue() []BranchType {
	return []BranchType{BranchPhysical, BranchMetadata, BranchLegal}
}

// IsKnown reports whether b is part of the branch catalogue
func (b BranchType) IsKnown() bool {
	for _, known := range BranchCatalogue() {
		if b == known {
			return true
		}
	}
	return false
}

// Well-known rounds
const (
	RoundRoot         = 0.0
	RoundAdvocate     = 1.0
	RoundAuditor      = 2.0
	RoundIntermission = 2.5 // suspicion halt and interrogation events
	RoundJudge        = 3.0
	RoundAftermath    = 3.5 // bond return after a verdict
	RoundBranch       = 1.0
	RoundDefender     = 2.0
	RoundCritic       = 3.0
	RoundConsolidated = 10.0
	RoundTimeout      = 99.0 // run deadline events sort after everything else
)

// Turn is one immutable entry of the deliberation log
type Turn struct {
	ID         string     `json:"id"`
	ClaimID    string     `json:"claim_id"`
	ParentID   string     `json:"parent_id,omitempty"`
	AgentRole  AgentRole  `json:"agent_role"`
	AgentName  string     `json:"agent_name"`
	Content    string     `json:"content"`
	Round      float64    `json:"round"`
	BranchType BranchType `json:"branch_type,omitempty"`
	IsOnChain  bool       `json:"is_on_chain"`
	ProofID    string     `json:"proof_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Seq        int64      `json:"seq,omitempty"` // assigned by the store, breaks creation-time ties
}

// ErrInvalidTurn is returned when a turn violates the log invariants
var ErrInvalidTurn = errors.New("invalid turn")

// ValidateTurn checks a turn against its parent (nil when the turn has no parent)
func ValidateTurn(t Turn, parent *Turn) error {
	if t.ClaimID == "" {
		return fmt.Errorf("%w: claim id is required", ErrInvalidTurn)
	}
	switch t.AgentRole {
	case RoleLawyer, RoleAuditor, RoleVerdict, RoleSystem:
	default:
		return fmt.Errorf("%w: unknown agent role %q", ErrInvalidTurn, t.AgentRole)
	}
	if t.BranchType != "" && t.ParentID == "" {
		return fmt.Errorf("%w: branch turn %s has no parent", ErrInvalidTurn, t.BranchType)
	}
	if t.ParentID == "" {
		return nil
	}
	if parent == nil {
		return fmt.Errorf("%w: parent %s not found", ErrInvalidTurn, t.ParentID)
	}
	if parent.ClaimID != t.ClaimID {
		return fmt.Errorf("%w: parent %s belongs to claim %s", ErrInvalidTurn, parent.ID, parent.ClaimID)
	}
	if parent.Round > t.Round {
		return fmt.Errorf("%w: round %.1f precedes parent round %.1f", ErrInvalidTurn, t.Round, parent.Round)
	}
	return nil
}

// SortTurns orders turns for display: round ascending, then creation order
func SortTurns(turns []Turn) {
	sort.SliceStable(turns, func(i, j int) bool {
		if turns[i].Round != turns[j].Round {
			return turns[i].Round < turns[j].Round
		}
		if !turns[i].CreatedAt.Equal(turns[j].CreatedAt) {
			return turns[i].CreatedAt.Before(turns[j].CreatedAt)
		}
		return turns[i].Seq < turns[j].Seq
	})
}

// CountRole counts turns with the given role
func CountRole(turns []Turn, role AgentRole) int {
	count := 0
	for _, t := range turns {
		if t.AgentRole == role {
			count++
		}
	}
	return count
}
