// Package embed defines the embedding provider boundary the engine consumes
// and the fingerprint-keyed caching around it. The provider itself (the
// model) lives outside this module; everything here only requires the
// capability to turn texts into pre-normalized vectors.
package embed

import (
	"context"
	"math"
)

// Common embedding constants.
const (
	// DefaultDimensions is the vector dimensionality expected from the
	// provider (MiniLM-class sentence embedding models).
	DefaultDimensions = 384

	// DefaultBatchSize is how many passages are embedded per provider
	// call during candidate embedding.
	DefaultBatchSize = 8

	// MaxPassageLen caps the text handed to the provider per record.
	MaxPassageLen = 256

	// QueryPrefix and PassagePrefix frame texts for asymmetric embedding
	// models: a query and a passage with identical wording must still be
	// embedded differently.
	QueryPrefix   = "query: "
	PassagePrefix = "passage: "
)

// Embedder turns texts into vectors. Vectors are pre-normalized to unit
// length, so dot product equals cosine similarity.
type Embedder interface {
	// EmbedBatch generates embeddings for multiple texts, one vector per
	// input, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// Ready reports whether the provider can serve embed calls now.
	Ready() bool
}

// NormalizeVector scales a vector to unit length. A zero vector is
// returned unchanged.
func NormalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}

// QueryText frames a query string for the provider.
func QueryText(text string) string {
	return QueryPrefix + text
}

// PassageText frames a record's text for the provider, truncating to
// MaxPassageLen characters.
func PassageText(text string) string {
	runes := []rune(text)
	if len(runes) > MaxPassageLen {
		runes = runes[:MaxPassageLen]
	}
	return PassagePrefix + string(runes)
}
