package deliberation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ppiankov/tribunal/internal/llm"
	"github.com/ppiankov/tribunal/internal/model"
)

var (
	verdictGrammar = regexp.MustCompile(`(?is)DECISION:\W*(APPROVED|REJECTED)\b.*?PAYOUT:\W*(\d{1,3}(?:\.\d+)?)\s*%.*?REASONING:\s*(.*)`)
	decisionToken  = regexp.MustCompile(`(?i)DECISION:\W*(APPROVED|REJECTED)\b`)
	payoutToken    = regexp.MustCompile(`(?i)PAYOUT:\W*(\d{1,3}(?:\.\d+)?)\s*%`)
)

// ParseSuspicion reads the fraud screen answer. The first word decides when it
// is YES or NO; otherwise any occurrence of "YES" counts as suspicion.
func ParseSuspicion(text string) bool {
	upper := strings.ToUpper(strings.TrimSpace(text))
	words := strings.FieldsFunc(upper, func(r rune) bool { return !unicode.IsLetter(r) })
	if len(words) > 0 {
		switch words[0] {
		case "YES":
			return true
		case "NO":
			return false
		}
	}
	return strings.Contains(upper, "YES")
}

// ParseVerdict reads judge output. The fixed grammar is preferred; without it
// a DECISION token decides, and failing that any occurrence of "APPROVED".
func ParseVerdict(text string) model.Verdict {
	raw := strings.TrimSpace(text)
	v := model.Verdict{Raw: raw, Decision: model.DecisionRejected}

	if m := verdictGrammar.FindStringSubmatch(raw); m != nil {
		v.Decision = model.Decision(strings.ToUpper(m[1]))
		v.PayoutPercent = parsePercent(m[2])
		v.Reasoning = strings.TrimSpace(m[3])
		v.Structured = true
		return v
	}

	switch m := decisionToken.FindStringSubmatch(raw); {
	case m != nil:
		v.Decision = model.Decision(strings.ToUpper(m[1]))
	case strings.Contains(raw, string(model.DecisionApproved)):
		v.Decision = model.DecisionApproved
	}
	if m := payoutToken.FindStringSubmatch(raw); m != nil {
		v.PayoutPercent = parsePercent(m[1])
	}
	v.Reasoning = raw
	return v
}

func parsePercent(s string) int {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return clamp(int(math.Round(f)), 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Plan is the fractal planner's decision
type Plan struct {
	Branches []model.BranchType
	Strategy string
}

// ParsePlan decodes the planner's JSON. Branch names are upper-cased and
// deduplicated, unknown names are kept, and at most maxBranches are used.
func ParsePlan(text string, maxBranches int) (Plan, error) {
	var resp struct {
		RequiredBranches []string `json:"requiredBranches"`
		Strategy         string   `json:"strategy"`
	}
	if err := llm.DecodeJSON(text, &resp); err != nil {
		return Plan{}, fmt.Errorf("%w: planner: %w", ErrMalformedResponse, err)
	}

	if maxBranches <= 0 || maxBranches > len(model.BranchCatalogue()) {
		maxBranches = len(model.BranchCatalogue())
	}

	plan := Plan{Strategy: strings.TrimSpace(resp.Strategy)}
	seen := make(map[model.BranchType]bool)
	for _, name := range resp.RequiredBranches {
		b := model.BranchType(strings.ToUpper(strings.TrimSpace(name)))
		if b == "" || seen[b] {
			continue
		}
		if len(plan.Branches) == maxBranches {
			break
		}
		seen[b] = true
		plan.Branches = append(plan.Branches, b)
	}
	return plan, nil
}

// ParseTestimony decodes the interrogator's JSON. IsReal is recomputed as
// score > threshold whatever the model claimed.
func ParseTestimony(text string, threshold int) (model.VoiceAnalysis, error) {
	var resp struct {
		Transcript       string   `json:"transcript"`
		ConsistencyScore *float64 `json:"consistencyScore"`
		Analysis         string   `json:"analysis"`
	}
	if err := llm.DecodeJSON(text, &resp); err != nil {
		return model.VoiceAnalysis{}, fmt.Errorf("%w: interrogation: %w", ErrMalformedResponse, err)
	}
	if resp.ConsistencyScore == nil {
		return model.VoiceAnalysis{}, fmt.Errorf("%w: interrogation: missing consistencyScore", ErrMalformedResponse)
	}

	score := clamp(int(math.Round(*resp.ConsistencyScore)), 0, 100)
	return model.VoiceAnalysis{
		Transcript:       strings.TrimSpace(resp.Transcript),
		ConsistencyScore: score,
		Analysis:         strings.TrimSpace(resp.Analysis),
		IsReal:           score > threshold,
	}, nil
}
