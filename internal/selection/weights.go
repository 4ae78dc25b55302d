package selection

import (
	"math"

	"github.com/abhisek/quizzer/internal/stats"
)

// Weights computes the draw weight of each candidate:
//
//	attemptMultiplier^(meanAttempts-attempts) * scoreMultiplier^(meanScore-score)
//
// A candidate without a score uses the corpus mean score, so its score
// term is 1. That includes a question that was attempted but never
// scored: it is treated as average rather than as scoring 0, which would
// push it to the top of every draw until graded. NaN weights are
// reported as 0.
func Weights(cands []stats.QuestionStats, attemptMultiplier, scoreMultiplier float64) []float64 {
	sum := stats.Summarize(cands)

	out := make([]float64, len(cands))
	for i, c := range cands {
		score := sum.MeanScore
		if c.Attempts > 0 && c.MeanScore != nil {
			score = *c.MeanScore
		}
		w := math.Pow(attemptMultiplier, sum.MeanAttempts-float64(c.Attempts)) *
			math.Pow(scoreMultiplier, sum.MeanScore-score)
		if math.IsNaN(w) || w < 0 {
			w = 0
		}
		out[i] = w
	}
	return out
}
