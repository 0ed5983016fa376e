package detect

import "math"

// Similarity maps Pearson correlation over z-normalized series into [0,1]
// by clamping negative correlation to zero. ok is false when either series
// is degenerate (fewer than two points or zero variance); degenerate
// handling is each detector's call: the resonance matcher falls back to
// exact equality, the echo detector treats it as no signal.
func Similarity(a, b []float64) (sim float64, ok bool) {
	if len(a) != len(b) || len(a) < 2 {
		return 0, false
	}
	r, ok := pearson(a, b)
	if !ok {
		return 0, false
	}
	if r < 0 {
		return 0, true
	}
	// Guard against float drift above 1.
	if r > 1 {
		r = 1
	}
	return r, true
}

// pearson computes the correlation coefficient. ok is false on zero
// variance in either input.
func pearson(a, b []float64) (float64, bool) {
	n := float64(len(a))
	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA, meanB := sumA/n, sumB/n

	var cov, varA, varB float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varA*varB), true
}

// zscore normalizes a series to zero mean and unit variance, removing
// absolute-scale bias before comparison. A zero-variance series maps to
// all zeros.
func zscore(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var varSum float64
	for _, x := range xs {
		d := x - mean
		varSum += d * d
	}
	if varSum == 0 {
		return out
	}
	sd := math.Sqrt(varSum / float64(len(xs)))
	for i, x := range xs {
		out[i] = (x - mean) / sd
	}
	return out
}

// equalSeries reports element-wise equality.
func equalSeries(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
