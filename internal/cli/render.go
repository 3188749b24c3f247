package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ppiankov/tribunal/internal/deliberation"
	"github.com/ppiankov/tribunal/internal/model"
)

var (
	dimColor    = color.New(color.FgHiBlack)
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgHiGreen)
	warnColor   = color.New(color.FgYellow)
	failColor   = color.New(color.FgRed)
)

// disableColor turns off colour for every printer in the package
func disableColor() {
	color.NoColor = true
}

// roleColor returns the colour used for an agent role
func roleColor(role model.AgentRole) *color.Color {
	switch role {
	case model.RoleLawyer:
		return color.New(color.FgHiGreen)
	case model.RoleAuditor:
		return color.New(color.FgRed)
	case model.RoleVerdict:
		return color.New(color.FgHiYellow, color.Bold)
	default:
		return dimColor
	}
}

// colorizeStatus formats a claim status with semantic colour
func colorizeStatus(status model.ClaimStatus) string {
	switch status {
	case model.StatusApproved, model.StatusSettled:
		return okColor.Sprint(status)
	case model.StatusInterrogationPending:
		return warnColor.Sprint(status)
	case model.StatusRejected, model.StatusRejectedFraudDetected, model.StatusTimedOut:
		return failColor.Sprint(status)
	default:
		return color.New(color.FgHiBlue).Sprint(status)
	}
}

// renderClaim prints the claim record
func renderClaim(w io.Writer, c *model.Claim) {
	a := c.InitialAnalysis
	fmt.Fprintf(w, "%s %s\n", headerColor.Sprint("Claim"), c.ID)
	fmt.Fprintf(w, "  Status:      %s\n", colorizeStatus(c.Status))
	fmt.Fprintf(w, "  Object:      %s\n", orNone(a.DetectedObject))
	fmt.Fprintf(w, "  Damage:      %s (confidence %d/100)\n", orNone(string(a.DamageLevel)), a.ConfidenceScore)
	if a.Description != "" {
		fmt.Fprintf(w, "  Description: %s\n", a.Description)
	}
	if !c.Evidence.IsZero() {
		fmt.Fprintf(w, "  Evidence:    %s\n", c.Evidence.Ref)
	}
	if c.CoverageAmount > 0 {
		fmt.Fprintf(w, "  Coverage:    %.2f\n", c.CoverageAmount)
	}
	if c.BondAmount > 0 {
		fmt.Fprintf(w, "  Bond:        %.2f from %s%s\n", c.BondAmount, orNone(c.ClaimantAddress), proofSuffix(c.StakeProofID))
	}
	if v := c.VoiceAnalysis; v != nil {
		verdict := okColor.Sprint("consistent")
		if !v.IsReal {
			verdict = failColor.Sprint("inconsistent")
		}
		fmt.Fprintf(w, "  Testimony:   %s (consistency %d/100)%s\n", verdict, v.ConsistencyScore, proofSuffix(v.ProofID))
	}
	if c.PayoutPercent != nil {
		fmt.Fprintf(w, "  Payout:      %d%%\n", *c.PayoutPercent)
	}
	if s := c.Settlement; s != nil {
		fmt.Fprintf(w, "  Settlement:  %.2f on %s%s\n", s.Amount, s.Chain, proofSuffix(s.ProofID))
	}
	fmt.Fprintf(w, "  Created:     %s\n", c.CreatedAt.Format(time.RFC3339))
}

// renderClaimRow prints one line of a claim listing
func renderClaimRow(w io.Writer, c model.Claim) {
	fmt.Fprintf(w, "%s  %-32s  %-10s %s\n",
		c.ID,
		colorizeStatus(c.Status),
		orNone(string(c.InitialAnalysis.DamageLevel)),
		dimColor.Sprint(c.InitialAnalysis.DetectedObject))
}

// renderTree prints the deliberation log as a tree rebuilt from parent links
func renderTree(w io.Writer, turns []model.Turn) {
	if len(turns) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("(no turns recorded)"))
		return
	}
	roots := model.BuildTree(turns)
	for i, root := range roots {
		renderNode(w, root, "", i == len(roots)-1)
	}
}

func renderNode(w io.Writer, n *model.TurnNode, prefix string, last bool) {
	connector, indent := "├─ ", "│  "
	if last {
		connector, indent = "└─ ", "   "
	}
	fmt.Fprintf(w, "%s%s%s\n", prefix, connector, turnHeader(n.Turn))

	body := prefix + indent
	if len(n.Children) > 0 {
		body += "│ "
	} else {
		body += "  "
	}
	for _, line := range strings.Split(strings.TrimSpace(n.Turn.Content), "\n") {
		fmt.Fprintf(w, "%s%s\n", body, line)
	}

	for i, child := range n.Children {
		renderNode(w, child, prefix+indent, i == len(n.Children)-1)
	}
}

func turnHeader(t model.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", formatRound(t.Round))
	b.WriteString(roleColor(t.AgentRole).Sprintf("%s %s", t.AgentRole, t.AgentName))
	if t.BranchType != "" {
		b.WriteString(" " + warnColor.Sprintf("<%s>", t.BranchType))
	}
	if t.IsOnChain {
		b.WriteString(dimColor.Sprint(" on-chain" + proofSuffix(t.ProofID)))
	}
	return b.String()
}

// formatRound prints whole rounds without decimals
func formatRound(r float64) string {
	if r == float64(int64(r)) {
		return fmt.Sprintf("%d", int64(r))
	}
	return fmt.Sprintf("%g", r)
}

// renderOutcome prints what a run did
func renderOutcome(w io.Writer, out *deliberation.Outcome) {
	fmt.Fprintf(w, "%s %s (%s run, %d turns, %s)\n",
		okColor.Sprint("✓"), out.ClaimID, out.Strategy, out.Turns, out.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Status:   %s\n", colorizeStatus(out.Status))
	if out.Halted {
		fmt.Fprintf(w, "  %s halted for interrogation: submit testimony with 'tribunal interrogate %s <file>'\n",
			warnColor.Sprint("⚠"), out.ClaimID)
	}
	if p := out.Plan; p != nil {
		branches := make([]string, 0, len(p.Branches))
		for _, b := range p.Branches {
			branches = append(branches, string(b))
		}
		fmt.Fprintf(w, "  Strategy: %s\n", orNone(p.Strategy))
		fmt.Fprintf(w, "  Branches: %s\n", orNone(strings.Join(branches, ", ")))
	}
	if v := out.Voice; v != nil {
		fmt.Fprintf(w, "  Testimony consistency: %d/100 (real: %t)\n", v.ConsistencyScore, v.IsReal)
	}
	if v := out.Verdict; v != nil {
		fmt.Fprintf(w, "  Verdict:  %s, payout %d%%\n", v.Decision, v.PayoutPercent)
		if !v.Structured {
			fmt.Fprintf(w, "  %s verdict did not follow the fixed grammar\n", warnColor.Sprint("⚠"))
		}
	}
	if s := out.Settlement; s != nil {
		fmt.Fprintf(w, "  Settled:  %.2f on %s%s\n", s.Amount, s.Chain, proofSuffix(s.ProofID))
	}
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func proofSuffix(id string) string {
	if id == "" {
		return ""
	}
	return " (proof " + id + ")"
}
