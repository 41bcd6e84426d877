package retrieval

import (
	"context"
	"sort"
	"sync"
)

// Document is one unit of knowledge. Vector is filled in by the Retriever.
type Document struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Vector   Vector         `json:"-"`
}

type Match struct {
	Document Document
	Score    float64
}

// VectorIndex stores documents and ranks them by similarity to a query vector.
type VectorIndex interface {
	Upsert(ctx context.Context, docs []Document) error
	Search(ctx context.Context, query Vector, limit int) ([]Match, error)
}

// MemoryIndex keeps documents in process and ranks them by cosine similarity.
type MemoryIndex struct {
	mu    sync.RWMutex
	docs  map[string]Document
	order []string
}

var _ VectorIndex = (*MemoryIndex)(nil)

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string]Document)}
}

func (m *MemoryIndex) Upsert(_ context.Context, docs []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		if _, exists := m.docs[d.ID]; !exists {
			m.order = append(m.order, d.ID)
		}
		m.docs[d.ID] = d
	}
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, query Vector, limit int) ([]Match, error) {
	m.mu.RLock()
	matches := make([]Match, 0, len(m.order))
	for _, id := range m.order {
		d := m.docs[id]
		matches = append(matches, Match{Document: d, Score: query.Similarity(d.Vector)})
	}
	m.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rankMatches(matches, limit), nil
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// rankMatches sorts by descending score, keeping insertion order on ties.
func rankMatches(matches []Match, limit int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
