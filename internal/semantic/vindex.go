package semantic

import (
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/Aman-CERP/uiground/internal/embed"
)

// VectorIndex is an approximate nearest-neighbor index over fingerprint
// embeddings, used as a fast path when a semantic query runs against the
// whole snapshot rather than a filtered candidate set.
type VectorIndex struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	dims  int
	known map[string]struct{}
}

// NewVectorIndex creates an empty index for vectors of the given dimension.
func NewVectorIndex(dims int) *VectorIndex {
	graph := hnsw.NewGraph[string]()
	graph.Distance = hnsw.CosineDistance
	return &VectorIndex{
		graph: graph,
		dims:  dims,
		known: make(map[string]struct{}),
	}
}

// Add inserts or replaces the vector for a fingerprint.
func (v *VectorIndex) Add(fingerprint string, vector []float32) error {
	if len(vector) != v.dims {
		return fmt.Errorf("vector index: dimension mismatch: expected %d, got %d", v.dims, len(vector))
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.graph.Add(hnsw.MakeNode(fingerprint, embed.NormalizeVector(vector)))
	v.known[fingerprint] = struct{}{}
	return nil
}

// Reset drops every indexed vector. Must be called whenever the snapshot
// the fingerprints came from is replaced, or searches would keep
// answering from the previous snapshot.
func (v *VectorIndex) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	graph := hnsw.NewGraph[string]()
	graph.Distance = hnsw.CosineDistance
	v.graph = graph
	v.known = make(map[string]struct{})
}

// Contains reports whether a fingerprint has been indexed.
func (v *VectorIndex) Contains(fingerprint string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.known[fingerprint]
	return ok
}

// ContainsAll reports whether every given fingerprint has been indexed.
func (v *VectorIndex) ContainsAll(fingerprints []string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, fp := range fingerprints {
		if _, ok := v.known[fp]; !ok {
			return false
		}
	}
	return true
}

// Len returns the number of indexed fingerprints.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.known)
}

// Neighbor is one nearest-neighbor result.
type Neighbor struct {
	Fingerprint string
	Similarity  float32
}

// Search returns up to k fingerprints nearest to the query vector, with
// their cosine similarity, most similar first.
func (v *VectorIndex) Search(queryVec []float32, k int) []Neighbor {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.known) == 0 || k <= 0 {
		return nil
	}
	nodes := v.graph.Search(queryVec, k)
	neighbors := make([]Neighbor, 0, len(nodes))
	for _, node := range nodes {
		neighbors = append(neighbors, Neighbor{
			Fingerprint: node.Key,
			Similarity:  Dot(queryVec, node.Value),
		})
	}
	return neighbors
}
