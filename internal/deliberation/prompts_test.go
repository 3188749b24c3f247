package deliberation

import (
	"strings"
	"testing"

	"github.com/ppiankov/tribunal/internal/model"
)

var severe = model.InitialAnalysis{
	DetectedObject:  "sedan",
	DamageLevel:     model.DamageSevere,
	ConfidenceScore: 90,
	Description:     "front bumper crushed",
}

func TestTemplateFor_FallsBackToPhysical(t *testing.T) {
	if got := TemplateFor("ACOUSTIC"); got.Defender != TemplateFor(model.BranchPhysical).Defender {
		t.Errorf("unknown branch template = %s, want the PHYSICAL template", got.Defender)
	}
	for _, b := range model.BranchCatalogue() {
		if _, ok := branchTemplates[b]; !ok {
			t.Errorf("no template for catalogue branch %s", b)
		}
	}
}

func TestPrompts_EmbedAnalysis(t *testing.T) {
	prompts := map[string]string{
		"advocate": AdvocatePrompt(severe),
		"auditor":  AuditorPrompt(severe, "pay in full"),
		"judge":    JudgePrompt(severe, "pay in full", "pay nothing", nil),
		"planner":  PlannerPrompt(severe),
		"defender": TemplateFor(model.BranchLegal).DefenderPrompt(severe),
	}
	for name, p := range prompts {
		if !strings.Contains(p, "Damage level: SEVERE") || !strings.Contains(p, "Confidence: 90/100") {
			t.Errorf("%s prompt does not embed the analysis:\n%s", name, p)
		}
	}
}

func TestJudgePrompt(t *testing.T) {
	p := JudgePrompt(severe, "pay in full", "pay nothing", nil)
	if !strings.Contains(p, "DECISION: <APPROVED|REJECTED> | PAYOUT: <0-100>% | REASONING:") {
		t.Error("judge prompt lacks the verdict grammar")
	}
	if strings.Contains(p, "testimony") {
		t.Error("judge prompt mentions testimony without an interrogation")
	}

	p = JudgePrompt(severe, "pay in full", "pay nothing", &model.VoiceAnalysis{ConsistencyScore: 88, Analysis: "credible"})
	if !strings.Contains(p, "Consistency with evidence: 88/100") || !strings.Contains(p, "credible") {
		t.Errorf("judge prompt lacks the interrogation summary:\n%s", p)
	}
}

func TestPlannerPrompt_ListsCatalogue(t *testing.T) {
	p := PlannerPrompt(severe)
	for _, b := range model.BranchCatalogue() {
		if !strings.Contains(p, "- "+string(b)+":") {
			t.Errorf("planner prompt lacks branch %s", b)
		}
	}
}

func TestDescribeAnalysis_Placeholders(t *testing.T) {
	d := describeAnalysis(model.InitialAnalysis{DamageLevel: model.DamageNone})
	if !strings.Contains(d, "(not identified)") || !strings.Contains(d, "Description: (none)") {
		t.Errorf("unexpected description:\n%s", d)
	}
}
