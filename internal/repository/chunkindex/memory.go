// Package chunkindex stores chunk embeddings for one processed document and
// answers nearest-neighbour queries over them.
package chunkindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/usecase/retrieval"
)

// MemoryFactory creates process-local indexes.
type MemoryFactory struct{}

// NewMemoryFactory creates a factory for in-memory indexes.
func NewMemoryFactory() *MemoryFactory { return &MemoryFactory{} }

// New implements retrieval.IndexFactory.
func (MemoryFactory) New(_ context.Context, name string, dim int) (retrieval.Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index %s: invalid dimension %d", name, dim)
	}
	return &MemoryIndex{name: name, dim: dim}, nil
}

// MemoryIndex is a flat cosine-similarity index. Documents are a single PDF,
// so an exhaustive scan is fast enough.
type MemoryIndex struct {
	mu      sync.RWMutex
	name    string
	dim     int
	chunks  []domain.Chunk
	vectors [][]float32
	norms   []float64
	dropped bool
}

// Add implements retrieval.Index.
func (m *MemoryIndex) Add(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("index %s: %d chunks but %d vectors", m.name, len(chunks), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != m.dim {
			return fmt.Errorf("index %s: vector %d has %d dims, want %d: %w",
				m.name, i, len(v), m.dim, domain.ErrVectorDimMismatch)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dropped {
		return fmt.Errorf("index %s: %w", m.name, domain.ErrNotFound)
	}
	for i := range chunks {
		m.chunks = append(m.chunks, chunks[i])
		m.vectors = append(m.vectors, vectors[i])
		m.norms = append(m.norms, norm(vectors[i]))
	}
	return nil
}

// Search implements retrieval.Index. Results are ordered by descending score.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if len(vector) != m.dim {
		return nil, fmt.Errorf("index %s: query has %d dims, want %d: %w",
			m.name, len(vector), m.dim, domain.ErrVectorDimMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dropped {
		return nil, fmt.Errorf("index %s: %w", m.name, domain.ErrNotFound)
	}

	qn := norm(vector)
	hits := make([]domain.ScoredChunk, len(m.chunks))
	for i := range m.chunks {
		hits[i] = domain.ScoredChunk{Chunk: m.chunks[i], Score: cosine(vector, m.vectors[i], qn, m.norms[i])}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Drop implements retrieval.Index.
func (m *MemoryIndex) Drop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks, m.vectors, m.norms = nil, nil, nil
	m.dropped = true
	return nil
}

// Len implements retrieval.Index.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
