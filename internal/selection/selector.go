// Package selection picks the questions for a new quiz, favoring
// under-attempted and low-scoring questions.
package selection

import (
	"context"
	"math/rand/v2"

	"github.com/abhisek/quizzer/internal/stats"
)

// Params are the inputs of one selection.
type Params struct {
	Categories []string
	Count      int

	// AttemptMultiplier above 1 favors questions answered less often
	// than average. 1 disables the term.
	AttemptMultiplier float64

	// ScoreMultiplier above 1 favors questions scored below average.
	// 1 disables the term.
	ScoreMultiplier float64
}

// Selector draws weighted samples of questions.
type Selector struct {
	stats *stats.Aggregator
	rng   *rand.Rand
}

// New creates a Selector. rng drives every draw, so a seeded source
// gives reproducible quizzes.
func New(agg *stats.Aggregator, rng *rand.Rand) *Selector {
	return &Selector{stats: agg, rng: rng}
}

// Select returns up to p.Count distinct questions from p.Categories in
// presentation order. No candidates yields an empty result.
func (s *Selector) Select(ctx context.Context, p Params) ([]stats.QuestionStats, error) {
	cands, err := s.stats.Collect(ctx, p.Categories)
	if err != nil {
		return nil, err
	}
	return Pick(s.rng, cands, p), nil
}

// Pick runs the weighted draw over an already collected candidate set.
func Pick(rng *rand.Rand, cands []stats.QuestionStats, p Params) []stats.QuestionStats {
	if len(cands) == 0 || p.Count <= 0 {
		return nil
	}
	weights := Weights(cands, p.AttemptMultiplier, p.ScoreMultiplier)

	idx := Sample(rng, weights, p.Count)
	out := make([]stats.QuestionStats, len(idx))
	for i, k := range idx {
		out[i] = cands[k]
	}
	return out
}
