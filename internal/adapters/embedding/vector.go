// Package embedding holds shared vector helpers for the embedding
// service adapters.
package embedding

import "math"

// L2Normalize scales v in place to unit length, so cosine similarity
// between two normalized vectors is their dot product. Zero vectors
// are left untouched.
func L2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
