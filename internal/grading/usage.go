package grading

import (
	"slices"

	"github.com/abhisek/quizzer/internal/llm"
	"github.com/abhisek/quizzer/internal/store"
)

// StageLabel is the short name of a grading purpose for display.
func StageLabel(purpose string) string {
	switch purpose {
	case PurposeReasoning:
		return "reasoning"
	case PurposeScore:
		return "scoring"
	}
	return purpose
}

// StageUsage is the LLM traffic of one grading stage.
type StageUsage struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// FailureRate is the share of calls that errored, 0 when there were none.
func (s StageUsage) FailureRate() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Calls)
}

// ModelSpend is the estimated cost of the successful calls to one model.
type ModelSpend struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	Cost         float64
	Priced       bool
}

// Usage summarizes what grading has cost so far.
type Usage struct {
	Stages    []StageUsage
	Models    []ModelSpend
	TotalCost float64

	// Unpriced lists models missing from the pricing table; TotalCost
	// excludes them.
	Unpriced []string
}

// SummarizeUsage orders the per-purpose rows as reasoning, then scoring,
// then anything else by name, and prices the per-model rows.
func SummarizeUsage(byPurpose []store.LLMUsageStats, byModel []store.LLMModelUsage) Usage {
	var u Usage
	for _, p := range byPurpose {
		u.Stages = append(u.Stages, StageUsage(p))
	}
	slices.SortStableFunc(u.Stages, func(a, b StageUsage) int {
		if ra, rb := stageRank(a.Purpose), stageRank(b.Purpose); ra != rb {
			return ra - rb
		}
		if a.Purpose < b.Purpose {
			return -1
		}
		if a.Purpose > b.Purpose {
			return 1
		}
		return 0
	})

	for _, m := range byModel {
		spend := ModelSpend{Model: m.Model, Calls: m.Calls, InputTokens: m.InputTokens, OutputTokens: m.OutputTokens}
		if price := llm.LookupCost(m.Model); price != nil {
			spend.Cost = price.Cost(m.InputTokens, m.OutputTokens)
			spend.Priced = true
			u.TotalCost += spend.Cost
		} else {
			u.Unpriced = append(u.Unpriced, m.Model)
		}
		u.Models = append(u.Models, spend)
	}
	return u
}

func stageRank(purpose string) int {
	switch purpose {
	case PurposeReasoning:
		return 0
	case PurposeScore:
		return 1
	}
	return 2
}
