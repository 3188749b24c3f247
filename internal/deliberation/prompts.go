package deliberation

import (
	"fmt"
	"strings"

	"github.com/ppiankov/tribunal/internal/model"
)

// Display names of the agents
const (
	NameAdvocate     = "Claimant Advocate"
	NameAuditor      = "Insurer Auditor"
	NameJudge        = "Adjudicator"
	NameSystem       = "Tribunal"
	NamePlanner      = "Lead Investigator"
	NameSynthesizer  = "Chief Adjudicator"
	NameInterrogator = "Interrogator"
)

func describeAnalysis(a model.InitialAnalysis) string {
	object := a.DetectedObject
	if object == "" {
		object = "(not identified)"
	}
	description := a.Description
	if description == "" {
		description = "(none)"
	}
	return fmt.Sprintf(`Initial Evidence Analysis:
- Detected object: %s
- Damage level: %s
- Confidence: %d/100
- Description: %s
`, object, a.DamageLevel, a.ConfidenceScore, description)
}

// AdvocatePrompt asks for the round 1 argument for maximum payout
func AdvocatePrompt(a model.InitialAnalysis) string {
	return fmt.Sprintf(`You are the %s in an insurance claim tribunal. You argue on behalf of the claimant.

%s
Argue for the MAXIMUM justified payout. Ground every point in the analysis above.
Do not invent evidence that is not listed. Answer in 3-5 sentences.`, NameAdvocate, describeAnalysis(a))
}

// AuditorPrompt asks for the round 2 argument for minimizing or rejecting the claim
func AuditorPrompt(a model.InitialAnalysis, advocate string) string {
	return fmt.Sprintf(`You are the %s in an insurance claim tribunal. You protect the insurance pool.

%s
The Claimant Advocate argued:
"""
%s
"""

Challenge the advocate. Argue for minimizing or rejecting the payout. Point out any
inconsistency between the damage described and the evidence, and say plainly if
anything suggests fraud. Answer in 3-5 sentences.`, NameAuditor, describeAnalysis(a), strings.TrimSpace(advocate))
}

// SuspicionPrompt asks for a strict yes/no fraud classification of the auditor's text
func SuspicionPrompt(auditor string) string {
	return fmt.Sprintf(`You are a fraud screening classifier for insurance claims.

Auditor statement:
"""
%s
"""

Does the auditor suspect fraud, staged damage, or a material inconsistency in the evidence?
Answer with exactly one word: YES or NO.`, strings.TrimSpace(auditor))
}

// JudgePrompt asks for the round 3 verdict in the fixed grammar.
// testimony may be nil when no interrogation took place.
func JudgePrompt(a model.InitialAnalysis, advocate, auditor string, testimony *model.VoiceAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s, the impartial judge of an insurance claim tribunal.\n\n", NameJudge)
	b.WriteString(describeAnalysis(a))
	fmt.Fprintf(&b, "\nClaimant Advocate:\n\"\"\"\n%s\n\"\"\"\n", strings.TrimSpace(advocate))
	fmt.Fprintf(&b, "\nInsurer Auditor:\n\"\"\"\n%s\n\"\"\"\n", strings.TrimSpace(auditor))
	if testimony != nil {
		fmt.Fprintf(&b, "\nClaimant testimony was taken after the auditor raised concerns.\n- Consistency with evidence: %d/100\n- Interrogator's analysis: %s\n",
			testimony.ConsistencyScore, strings.TrimSpace(testimony.Analysis))
	}
	b.WriteString(`
Weigh both arguments and decide. Reply on ONE line using exactly this format:
DECISION: <APPROVED|REJECTED> | PAYOUT: <0-100>% | REASONING: <one or two sentences>`)
	return b.String()
}

// InterrogationPrompt asks for a joint analysis of the testimony recording and the evidence image
func InterrogationPrompt(c *model.Claim, hasImage bool) string {
	image := "No evidence image is attached; judge the testimony against the analysis alone."
	if hasImage {
		image = "The evidence image is attached after the recording."
	}
	return fmt.Sprintf(`You are the %s of an insurance claim tribunal. The auditor suspected fraud,
so the claimant recorded a spoken account of the incident. The recording is attached.
%s

%s
Transcribe the testimony, then judge how consistent it is with the evidence.
Respond with ONLY a JSON object, no prose:
{"transcript": "<what the claimant said>", "consistencyScore": <0-100>, "analysis": "<two sentences>", "isReal": <true|false>}`,
		NameInterrogator, image, describeAnalysis(c.InitialAnalysis))
}

// PlannerPrompt asks which investigation branches to open
func PlannerPrompt(a model.InitialAnalysis) string {
	catalogue := make([]string, 0, len(model.BranchCatalogue()))
	for _, b := range model.BranchCatalogue() {
		catalogue = append(catalogue, fmt.Sprintf("- %s: %s", b, TemplateFor(b).Focus))
	}
	return fmt.Sprintf(`You are the %s of an insurance claim tribunal. Plan a fractal investigation.

%s
Available investigation branches:
%s

Select between 1 and 3 branches that this claim needs, most important first, and justify
the strategy. Respond with ONLY a JSON object, no prose:
{"requiredBranches": ["PHYSICAL"], "strategy": "<one or two sentences>"}`,
		NamePlanner, describeAnalysis(a), strings.Join(catalogue, "\n"))
}

// BranchReport is the reasoning produced by one investigation branch
type BranchReport struct {
	Branch   model.BranchType
	Defense  string
	Critique string
}

// SynthesisPrompt asks for one consolidated verdict over all branch reports
func SynthesisPrompt(a model.InitialAnalysis, strategy string, reports []BranchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s of an insurance claim tribunal. Consolidate the investigation.\n\n", NameSynthesizer)
	b.WriteString(describeAnalysis(a))
	if strategy != "" {
		fmt.Fprintf(&b, "\nInvestigation strategy: %s\n", strings.TrimSpace(strategy))
	}
	if len(reports) == 0 {
		b.WriteString("\nNo investigation branch was opened. Decide on the initial analysis alone.\n")
	}
	for _, r := range reports {
		t := TemplateFor(r.Branch)
		fmt.Fprintf(&b, "\n[%s BRANCH]\n%s:\n%s\n%s:\n%s\n", r.Branch, t.Defender, strings.TrimSpace(r.Defense), t.Critic, strings.TrimSpace(r.Critique))
	}
	b.WriteString(`
Give one consolidated verdict. State APPROVED only if the claim should be paid. Begin with:
DECISION: <APPROVED|REJECTED> | PAYOUT: <0-100>% | REASONING: <short explanation>`)
	return b.String()
}

// BranchTemplate holds the specialist roles and briefs of one investigation branch
type BranchTemplate struct {
	Defender     string
	Critic       string
	Focus        string
	DefenderTask string
	CriticTask   string
}

var branchTemplates = map[model.BranchType]BranchTemplate{
	model.BranchPhysical: {
		Defender:     "Damage Engineer",
		Critic:       "Forensic Inspector",
		Focus:        "physical damage pattern, impact mechanics, repair cost plausibility",
		DefenderTask: "Explain how the visible damage is consistent with a genuine incident and what repair it requires.",
		CriticTask:   "Look for signs of staged, pre-existing or exaggerated damage and for mechanics that do not add up.",
	},
	model.BranchMetadata: {
		Defender:     "Provenance Analyst",
		Critic:       "Metadata Examiner",
		Focus:        "capture time, device, location and editing traces of the evidence",
		DefenderTask: "Argue that the evidence is an authentic, unedited capture made at the time of the incident.",
		CriticTask:   "Look for editing artefacts, recycled images, or capture details that contradict the claim.",
	},
	model.BranchLegal: {
		Defender:     "Policy Counsel",
		Critic:       "Coverage Auditor",
		Focus:        "policy coverage, exclusions and claimant obligations",
		DefenderTask: "Argue that the incident falls within the policy coverage and the claimant met their obligations.",
		CriticTask:   "Identify exclusions, limits or breached obligations that reduce or void the payout.",
	},
}

// TemplateFor returns the template for a branch. Unknown branches use the PHYSICAL template.
func TemplateFor(b model.BranchType) BranchTemplate {
	if t, ok := branchTemplates[b]; ok {
		return t
	}
	return branchTemplates[model.BranchPhysical]
}

// DefenderPrompt asks for the branch's round 2 defense
func (t BranchTemplate) DefenderPrompt(a model.InitialAnalysis) string {
	return fmt.Sprintf(`You are the %s in an insurance claim investigation. Focus: %s.

%s
%s Answer in 3-4 sentences.`, t.Defender, t.Focus, describeAnalysis(a), t.DefenderTask)
}

// CriticPrompt asks for the branch's round 3 critique of the defense
func (t BranchTemplate) CriticPrompt(a model.InitialAnalysis, defense string) string {
	return fmt.Sprintf(`You are the %s in an insurance claim investigation. Focus: %s.

%s
The %s argued:
"""
%s
"""

%s Answer in 3-4 sentences.`, t.Critic, t.Focus, describeAnalysis(a), t.Defender, strings.TrimSpace(defense), t.CriticTask)
}
