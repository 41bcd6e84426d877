package retrieval

import "math"

// Vector is a dense embedding.
type Vector []float32

// Similarity is the cosine similarity of v and other, or 0 when the
// lengths differ or either vector is zero.
func (v Vector) Similarity(other Vector) float64 {
	if len(v) == 0 || len(v) != len(other) {
		return 0
	}
	var dot, normV, normO float64
	for i := range v {
		a, b := float64(v[i]), float64(other[i])
		dot += a * b
		normV += a * a
		normO += b * b
	}
	if normV == 0 || normO == 0 {
		return 0
	}
	return dot / (math.Sqrt(normV) * math.Sqrt(normO))
}

func (v Vector) float64s() []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func vectorFromFloat64s(in []float64) Vector {
	out := make(Vector, len(in))
	for i, f := range in {
		out[i] = float32(f)
	}
	return out
}
