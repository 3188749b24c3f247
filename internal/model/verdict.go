package model

// Decision is the judge's binary outcome
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// Status maps the decision to the claim status it produces
func (d Decision) Status() ClaimStatus {
	if d == DecisionApproved {
		return StatusApproved
	}
	return StatusRejected
}

// Verdict is the parsed judge output
type Verdict struct {
	Decision      Decision `json:"decision"`
	PayoutPercent int      `json:"payout_percent"` // 0-100
	Reasoning     string   `json:"reasoning"`
	Structured    bool     `json:"structured"` // false when the fixed grammar was not found
	Raw           string   `json:"raw"`
}
