// Package semantic composes the filter engine with an embedding provider to
// add semantic re-ranking: lexical filters narrow the candidates, embeddings
// of the query and the candidate texts decide the final order.
package semantic

import (
	"math"
	"sort"
)

// Dot computes the dot product of two vectors. For pre-normalized vectors
// this equals their cosine similarity. Mismatched or empty inputs score 0.
func Dot(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// CosineSimilarityUnnormalized computes cosine similarity without assuming
// unit-length inputs.
func CosineSimilarityUnnormalized(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	denom := float32(math.Sqrt(float64(normA) * float64(normB)))
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// Scored pairs a candidate id with its similarity to the query.
type Scored struct {
	ID         uint32  `json:"id"`
	Similarity float32 `json:"similarity"`
}

// TopKSimilar scores every candidate against the query vector and returns
// the k most similar, sorted descending.
func TopKSimilar(queryVec []float32, candidates map[uint32][]float32, k int) []Scored {
	results := make([]Scored, 0, len(candidates))
	for id, vec := range candidates {
		results = append(results, Scored{ID: id, Similarity: Dot(queryVec, vec)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
