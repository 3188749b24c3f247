package model

import "time"

// ClaimStatus is the lifecycle state of a claim
type ClaimStatus string

const (
	StatusPendingAnalysis       ClaimStatus = "PENDING_ANALYSIS"
	StatusDebateInProgress      ClaimStatus = "DEBATE_IN_PROGRESS"
	StatusInterrogationPending  ClaimStatus = "INTERROGATION_PENDING"
	StatusRejectedFraudDetected ClaimStatus = "REJECTED_FRAUD_DETECTED"
	StatusApproved              ClaimStatus = "APPROVED"
	StatusRejected              ClaimStatus = "REJECTED"
	StatusSettled               ClaimStatus = "SETTLED"
	StatusTimedOut              ClaimStatus = "TIMED_OUT" // run exceeded its deadline, may be re-run
)

// AllStatuses lists every known claim status in lifecycle order
func AllStatuses() []ClaimStatus {
	return []ClaimStatus{
		StatusPendingAnalysis,
		StatusDebateInProgress,
		StatusInterrogationPending,
		StatusRejectedFraudDetected,
		StatusApproved,
		StatusRejected,
		StatusSettled,
		StatusTimedOut,
	}
}

// IsValid reports whether s is a known status
func (s ClaimStatus) IsValid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// DamageLevel is the severity reported by the initial evidence analysis
type DamageLevel string

const (
	DamageNone      DamageLevel = "NONE"
	DamageMinor     DamageLevel = "MINOR"
	DamageModerate  DamageLevel = "MODERATE"
	DamageSevere    DamageLevel = "SEVERE"
	DamageTotalLoss DamageLevel = "TOTAL_LOSS"
)

// IsValid reports whether d is a known damage level
func (d DamageLevel) IsValid() bool {
	switch d {
	case DamageNone, DamageMinor, DamageModerate, DamageSevere, DamageTotalLoss:
		return true
	default:
		return false
	}
}

// InitialAnalysis is the first-pass scoring of the submitted evidence.
// Both orchestration strategies consume it.
type InitialAnalysis struct {
	DetectedObject  string      `json:"detected_object" yaml:"detected_object"`
	DamageLevel     DamageLevel `json:"damage_level" yaml:"damage_level"`
	ConfidenceScore int         `json:"confidence_score" yaml:"confidence_score"` // 0-100
	Description     string      `json:"description" yaml:"description"`
}

// VoiceAnalysis is the structured result of an interrogation
type VoiceAnalysis struct {
	Transcript       string `json:"transcript"`
	ConsistencyScore int    `json:"consistency_score"` // 0-100
	Analysis         string `json:"analysis"`
	IsReal           bool   `json:"is_real"`
	ProofID          string `json:"proof_id,omitempty"`
}

// Settlement records a completed payout
type Settlement struct {
	Chain   string  `json:"chain"`
	Amount  float64 `json:"amount"`
	ProofID string  `json:"proof_id"`
}

// Claim is the unit of adjudication
type Claim struct {
	ID              string          `json:"id"`
	InitialAnalysis InitialAnalysis `json:"initial_analysis"`
	Status          ClaimStatus     `json:"status"`

	ClaimantAddress string   `json:"claimant_address,omitempty"` // ledger account used for bond and payout
	BondAmount      float64  `json:"bond_amount,omitempty"`      // collateral staked at submission
	StakeProofID    string   `json:"stake_proof_id,omitempty"`
	CoverageAmount  float64  `json:"coverage_amount,omitempty"` // payout at 100%
	Evidence        Evidence `json:"evidence,omitempty"`

	VoiceAnalysis    *VoiceAnalysis `json:"voice_analysis,omitempty"`
	VoiceEvidenceRef string         `json:"voice_evidence_ref,omitempty"`

	PayoutPercent *int   `json:"payout_percent,omitempty"`
	Verdict       string `json:"verdict,omitempty"`

	Settlement *Settlement `json:"settlement,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PayoutAmount is the settlement amount implied by the judge's payout percentage
func (c *Claim) PayoutAmount() float64 {
	if c.PayoutPercent == nil {
		return 0
	}
	return c.CoverageAmount * float64(*c.PayoutPercent) / 100
}

// ClaimPatch is a partial update of a claim. Nil fields are left untouched.
type ClaimPatch struct {
	Status           *ClaimStatus
	VoiceAnalysis    *VoiceAnalysis
	VoiceEvidenceRef *string
	PayoutPercent    *int
	Verdict          *string
	StakeProofID     *string
	Settlement       *Settlement
}

// IsEmpty reports whether the patch changes nothing
func (p ClaimPatch) IsEmpty() bool {
	return p.Status == nil && p.VoiceAnalysis == nil && p.VoiceEvidenceRef == nil &&
		p.PayoutPercent == nil && p.Verdict == nil && p.StakeProofID == nil && p.Settlement == nil
}
