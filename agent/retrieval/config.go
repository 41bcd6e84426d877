package retrieval

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
)

const (
	BackendMemory   = "memory"
	BackendQdrant   = "qdrant"
	BackendPostgres = "postgres"
)

type Config struct {
	TopK                int     `envconfig:"TOP_K" split_words:"true" default:"3"`
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" split_words:"true" default:"0.3"`
	Backend             string  `envconfig:"BACKEND" split_words:"true" default:"memory"`
	QdrantURL           string  `envconfig:"QDRANT_URL" split_words:"true" default:"http://localhost:6333"`
	QdrantCollection    string  `envconfig:"QDRANT_COLLECTION" split_words:"true" default:"knowledge"`
	PostgresDSN         string  `envconfig:"POSTGRES_DSN" split_words:"true"`
	EmbeddingModel      string  `envconfig:"EMBEDDING_MODEL" split_words:"true"`
	EmbeddingDimensions int     `envconfig:"EMBEDDING_DIMENSIONS" split_words:"true" default:"256"`
}

// NewEmbedder uses the OpenAI-compatible client when both a client and a
// model are configured and falls back to the offline hash embedder otherwise.
func NewEmbedder(cfg Config, client *openai.Client) (Embedder, error) {
	if client == nil || strings.TrimSpace(cfg.EmbeddingModel) == "" {
		return NewHashEmbedder(cfg.EmbeddingDimensions), nil
	}
	return NewOpenAIEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
}

// NewIndex opens the configured backend and prepares its storage.
func NewIndex(ctx context.Context, cfg Config, dimensions int) (VectorIndex, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemoryIndex(), nil
	case BackendQdrant:
		idx, err := NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection, nil)
		if err != nil {
			return nil, err
		}
		if err := idx.EnsureCollection(ctx, dimensions); err != nil {
			return nil, err
		}
		return idx, nil
	case BackendPostgres:
		idx, err := NewPostgresIndex(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := idx.EnsureSchema(ctx); err != nil {
			_ = idx.Close()
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown retrieval backend %q", cfg.Backend)
	}
}

// New wires embedder, index and retriever from cfg.
func New(ctx context.Context, cfg Config, client *openai.Client) (*Retriever, error) {
	embedder, err := NewEmbedder(cfg, client)
	if err != nil {
		return nil, err
	}
	index, err := NewIndex(ctx, cfg, embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	return NewRetriever(embedder, index, WithTopK(cfg.TopK), WithThreshold(cfg.SimilarityThreshold))
}
