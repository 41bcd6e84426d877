// Package retrieval finds knowledge snippets relevant to a user message:
// the query is embedded, ranked against a vector index, and filtered by a
// similarity threshold.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
)

const (
	DefaultTopK                = 3
	DefaultSimilarityThreshold = 0.3
)

type Retriever struct {
	embedder  Embedder
	index     VectorIndex
	topK      int
	threshold float64
}

var _ contractx.KnowledgeRetriever = (*Retriever)(nil)

type RetrieverOption func(*Retriever)

func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

func WithThreshold(threshold float64) RetrieverOption {
	return func(r *Retriever) {
		r.threshold = threshold
	}
}

func NewRetriever(embedder Embedder, index VectorIndex, opts ...RetrieverOption) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if index == nil {
		return nil, errors.New("vector index is required")
	}
	r := &Retriever{
		embedder:  embedder,
		index:     index,
		topK:      DefaultTopK,
		threshold: DefaultSimilarityThreshold,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Search returns at most topK snippets scoring at or above the threshold.
// Failures are logged and reported as an empty result, never as an error.
func (r *Retriever) Search(ctx context.Context, query string) ([]contractx.KnowledgeSnippet, error) {
	out := []contractx.KnowledgeSnippet{}
	if strings.TrimSpace(query) == "" {
		return out, nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		log.Warn().Err(err).Str("model", r.embedder.Model()).Msg("knowledge query embedding failed")
		return out, nil
	}

	matches, err := r.index.Search(ctx, vectors[0], r.topK)
	if err != nil {
		log.Warn().Err(err).Msg("knowledge index search failed")
		return out, nil
	}

	for _, m := range matches {
		if m.Score < r.threshold {
			continue
		}
		out = append(out, contractx.KnowledgeSnippet{
			Content:  m.Document.Content,
			Score:    m.Score,
			Metadata: withDocID(m.Document),
		})
		if len(out) == r.topK {
			break
		}
	}
	return out, nil
}

// AddDocuments embeds docs and upserts them into the index.
// Documents without an id get a random one.
func (r *Retriever) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed documents: %v", contractx.ErrRetrieval, err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("%w: expected %d embeddings, got %d", contractx.ErrRetrieval, len(docs), len(vectors))
	}

	prepared := make([]Document, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.ID) == "" {
			d.ID = uuid.NewString()
		}
		d.Vector = vectors[i]
		prepared[i] = d
	}
	if err := r.index.Upsert(ctx, prepared); err != nil {
		return fmt.Errorf("%w: upsert documents: %v", contractx.ErrRetrieval, err)
	}
	return nil
}

// Close releases the index when it holds resources.
func (r *Retriever) Close() error {
	if c, ok := r.index.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func withDocID(d Document) map[string]any {
	meta := make(map[string]any, len(d.Metadata)+1)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	meta["id"] = d.ID
	return meta
}

// FormatKnowledge renders snippets as a numbered block for a system prompt.
// An empty input yields an empty string.
func FormatKnowledge(snippets []contractx.KnowledgeSnippet) string {
	if len(snippets) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range snippets {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%d] %s (score %.2f)", i+1, strings.TrimSpace(s.Content), s.Score)
	}
	return b.String()
}
