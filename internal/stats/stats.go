// Package stats aggregates answer history per question for selection and
// reporting.
package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/abhisek/quizzer/internal/store"
)

// DefaultMeanScore is the midpoint of the 1-5 scale, used when no
// question in scope has a score yet.
const DefaultMeanScore = 3.0

// QuestionStats is the answer history of one question.
type QuestionStats struct {
	QuestionID int
	Text       string
	Category   string

	// Attempts counts every answer to the question, processed or not.
	Attempts int

	// MeanScore averages the scored answers; nil when none are scored.
	MeanScore *float64
}

// Summary holds corpus-wide means over a set of questions.
type Summary struct {
	Questions    int
	MeanAttempts float64

	// MeanScore averages the per-question means of scored questions,
	// or DefaultMeanScore when Scored is zero.
	MeanScore float64
	Scored    int
}

// CategorySummary is a per-category rollup for reports.
type CategorySummary struct {
	Category string
	Summary
}

// Source provides raw per-question rows.
type Source interface {
	Stats(ctx context.Context, categories []string) ([]store.QuestionStatsRow, error)
}

// Aggregator computes attempt counts and mean scores.
type Aggregator struct {
	src Source
}

// NewAggregator creates an Aggregator reading from src.
func NewAggregator(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Collect returns stats for every question in the given categories,
// ordered by question id.
func (a *Aggregator) Collect(ctx context.Context, categories []string) ([]QuestionStats, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	rows, err := a.src.Stats(ctx, categories)
	if err != nil {
		return nil, fmt.Errorf("collect question stats: %w", err)
	}

	out := make([]QuestionStats, len(rows))
	for i, r := range rows {
		out[i] = QuestionStats{
			QuestionID: r.QuestionID,
			Text:       r.Text,
			Category:   r.Category,
			Attempts:   r.Attempts,
			MeanScore:  r.MeanScore,
		}
	}
	return out, nil
}

// Summarize computes the corpus means over qs.
func Summarize(qs []QuestionStats) Summary {
	s := Summary{Questions: len(qs), MeanScore: DefaultMeanScore}
	if len(qs) == 0 {
		return s
	}

	var attempts, scoreSum float64
	for _, q := range qs {
		attempts += float64(q.Attempts)
		if q.Attempts > 0 && q.MeanScore != nil {
			scoreSum += *q.MeanScore
			s.Scored++
		}
	}
	s.MeanAttempts = attempts / float64(len(qs))
	if s.Scored > 0 {
		s.MeanScore = scoreSum / float64(s.Scored)
	}
	return s
}

// ByCategory groups qs by category and summarizes each group, sorted by
// category name.
func ByCategory(qs []QuestionStats) []CategorySummary {
	groups := make(map[string][]QuestionStats)
	for _, q := range qs {
		groups[q.Category] = append(groups[q.Category], q)
	}

	out := make([]CategorySummary, 0, len(groups))
	for cat, group := range groups {
		out = append(out, CategorySummary{Category: cat, Summary: Summarize(group)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
