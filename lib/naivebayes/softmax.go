package naivebayes

import "math"

// Softmax converts log-scores to probabilities summing to one, using the log-sum-exp trick
// to avoid overflow. NaN and -Inf scores get zero probability. If no score is finite
// all probabilities are zero. Returns nil for empty input.
func Softmax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	maxScore := math.Inf(-1)
	for _, s := range scores {
		if usable(s) && s > maxScore {
			maxScore = s
		}
	}

	res := make([]float64, len(scores))
	if math.IsInf(maxScore, -1) {
		return res
	}

	sum := 0.0
	for i, s := range scores {
		if !usable(s) {
			continue
		}
		res[i] = math.Exp(s - maxScore)
		sum += res[i]
	}
	for i := range res {
		res[i] /= sum
	}
	return res
}

// usable reports whether score can take part in normalization.
// +Inf can't come out of log-probabilities, treated as unusable as well.
func usable(s float64) bool {
	return !math.IsNaN(s) && !math.IsInf(s, 0)
}
