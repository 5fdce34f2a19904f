package model

import "math"

// The logistic function is evaluated through a precomputed table over
// [-maxExp, maxExp], the standard trick from the original word2vec
// implementation. Inputs outside the range saturate to 0 or 1.
const (
	expTableSize = 1000
	maxExp       = 6.0
)

var expTable [expTableSize]float64

func init() {
	for i := range expTable {
		x := (float64(i)/expTableSize*2 - 1) * maxExp
		e := math.Exp(x)
		expTable[i] = e / (e + 1)
	}
}

// sigmoid returns the logistic function of f via table lookup.
func sigmoid(f float64) float64 {
	if f >= maxExp {
		return 1
	}
	if f <= -maxExp {
		return 0
	}
	idx := int((f + maxExp) / (2 * maxExp) * expTableSize)
	if idx >= expTableSize {
		idx = expTableSize - 1
	}
	return expTable[idx]
}

// dot32 computes the dot product of two equal-length float32 vectors with
// float64 accumulation.
func dot32(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// axpy32 adds alpha*x to y in place.
func axpy32(alpha float64, x, y []float32) {
	for i := range y {
		y[i] += float32(alpha * float64(x[i]))
	}
}
