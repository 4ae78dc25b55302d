package grading

import (
	"math"
	"testing"

	"github.com/abhisek/quizzer/internal/store"
)

func TestSummarizeUsage(t *testing.T) {
	u := SummarizeUsage(
		[]store.LLMUsageStats{
			{Purpose: "unlabeled", Calls: 1},
			{Purpose: PurposeScore, Calls: 4, Failures: 1, InputTokens: 400, OutputTokens: 8},
			{Purpose: PurposeReasoning, Calls: 4, InputTokens: 2000, OutputTokens: 1000},
		},
		[]store.LLMModelUsage{
			{Model: "claude-haiku-4-5", Calls: 3, InputTokens: 1_000_000, OutputTokens: 200_000},
			{Model: "in-house-grader", Calls: 4, InputTokens: 50, OutputTokens: 5},
		},
	)

	var order []string
	for _, s := range u.Stages {
		order = append(order, s.Purpose)
	}
	if len(order) != 3 || order[0] != PurposeReasoning || order[1] != PurposeScore || order[2] != "unlabeled" {
		t.Fatalf("stage order = %v", order)
	}
	if r := u.Stages[1].FailureRate(); r != 0.25 {
		t.Fatalf("scoring failure rate = %v, want 0.25", r)
	}
	if r := u.Stages[0].FailureRate(); r != 0 {
		t.Fatalf("reasoning failure rate = %v", r)
	}

	// claude-haiku-4-5 is $1 in / $5 out per million tokens.
	if !u.Models[0].Priced || math.Abs(u.Models[0].Cost-2.0) > 1e-9 {
		t.Fatalf("priced model = %+v", u.Models[0])
	}
	if u.Models[1].Priced || u.Models[1].Cost != 0 {
		t.Fatalf("unpriced model = %+v", u.Models[1])
	}
	if math.Abs(u.TotalCost-2.0) > 1e-9 {
		t.Fatalf("total = %v", u.TotalCost)
	}
	if len(u.Unpriced) != 1 || u.Unpriced[0] != "in-house-grader" {
		t.Fatalf("unpriced = %v", u.Unpriced)
	}
}

func TestStageUsage_NoCalls(t *testing.T) {
	if r := (StageUsage{}).FailureRate(); r != 0 {
		t.Fatalf("failure rate = %v", r)
	}
}

func TestStageLabel(t *testing.T) {
	for purpose, want := range map[string]string{
		PurposeReasoning: "reasoning",
		PurposeScore:     "scoring",
		"unlabeled":      "unlabeled",
	} {
		if got := StageLabel(purpose); got != want {
			t.Errorf("StageLabel(%q) = %q, want %q", purpose, got, want)
		}
	}
}
