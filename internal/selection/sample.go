package selection

import (
	"math"
	"math/rand/v2"
)

// Sample draws up to n distinct indexes from weights, each draw
// proportional to the weights still in the pool. The result is in draw
// order.
//
// Infinite weights dominate: while any remain, the draw is uniform among
// them. When every remaining weight is zero the draw is uniform. NaN and
// negative weights count as zero.
func Sample(r *rand.Rand, weights []float64, n int) []int {
	clean := make([]float64, len(weights))
	for i, w := range weights {
		if w > 0 {
			clean[i] = w
		}
	}
	weights = clean

	pool := make([]int, len(weights))
	for i := range pool {
		pool[i] = i
	}
	n = min(n, len(pool))
	if n <= 0 {
		return nil
	}

	out := make([]int, 0, n)
	for len(out) < n {
		k := drawOne(r, weights, pool)
		out = append(out, pool[k])
		pool = append(pool[:k], pool[k+1:]...)
	}
	return out
}

// drawOne returns a position in pool.
func drawOne(r *rand.Rand, weights []float64, pool []int) int {
	var inf []int
	for k, idx := range pool {
		if math.IsInf(weights[idx], 1) {
			inf = append(inf, k)
		}
	}
	if len(inf) > 0 {
		return inf[r.IntN(len(inf))]
	}

	// Scale by the largest weight so the running total cannot overflow.
	var top float64
	for _, idx := range pool {
		top = max(top, weights[idx])
	}
	if top == 0 {
		return r.IntN(len(pool))
	}

	var total float64
	for _, idx := range pool {
		total += weights[idx] / top
	}

	target := r.Float64() * total
	last := -1
	for k, idx := range pool {
		w := weights[idx] / top
		if w == 0 {
			continue
		}
		last = k
		if target < w {
			return k
		}
		target -= w
	}
	// Rounding can leave target just past the final positive weight.
	return last
}
