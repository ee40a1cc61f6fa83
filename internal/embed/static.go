package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// StaticEmbedder generates embeddings with a hash-based scheme: no network,
// no model download, deterministic output. Semantic quality is limited, but
// related texts still land near each other through shared tokens and
// character n-grams, which is enough for the lexical-heavy UI domain and
// for tests.
type StaticEmbedder struct {
	dims int
}

// Weights for vector generation.
const (
	staticTokenWeight = 0.7
	staticNgramWeight = 0.3
	staticNgramSize   = 3
)

// NewStaticEmbedder creates a static embedder with the given dimensions.
func NewStaticEmbedder(dims int) *StaticEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &StaticEmbedder{dims: dims}
}

// EmbedBatch generates one normalized vector per text.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

// Dimensions returns the embedding dimension.
func (e *StaticEmbedder) Dimensions() int { return e.dims }

// Ready always reports true: the static embedder has nothing to load.
func (e *StaticEmbedder) Ready() bool { return true }

func (e *StaticEmbedder) embedOne(text string) []float32 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dims)
	}

	vector := make([]float32, e.dims)

	for _, token := range staticTokens(trimmed) {
		vector[hashToIndex(token, e.dims)] += staticTokenWeight
	}
	for _, ngram := range extractNgrams(strings.ToLower(trimmed), staticNgramSize) {
		vector[hashToIndex(ngram, e.dims)] += staticNgramWeight
	}

	return NormalizeVector(vector)
}

func staticTokens(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

func extractNgrams(text string, n int) []string {
	runes := []rune(text)
	if len(runes) < n {
		return nil
	}
	ngrams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		ngrams = append(ngrams, string(runes[i:i+n]))
	}
	return ngrams
}

func hashToIndex(s string, dims int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(dims))
}
