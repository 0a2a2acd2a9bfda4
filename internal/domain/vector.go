package domain

import "math"

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize scales v in place to unit length. A zero vector is left untouched.
func Normalize(v []float32) []float32 {
	n := Norm(v)
	if n == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
	return v
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// CosineDistance is 1 - CosineSimilarity, the metric the vector index reports.
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// Similarity converts a cosine distance into a similarity clamped to [0, 1].
func Similarity(distance float64) float64 {
	return min(1, max(0, 1-distance))
}

// MeanPool averages token vectors into a single vector.
func MeanPool(tokens [][]float32) []float32 {
	if len(tokens) == 0 {
		return nil
	}
	dim := len(tokens[0])
	sums := make([]float64, dim)
	n := 0
	for _, tok := range tokens {
		if len(tok) != dim {
			continue
		}
		for i, x := range tok {
			sums[i] += float64(x)
		}
		n++
	}
	out := make([]float32, dim)
	for i := range sums {
		out[i] = float32(sums[i] / float64(n))
	}
	return out
}
