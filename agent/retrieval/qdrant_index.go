package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	payloadDocID   = "doc_id"
	payloadContent = "content"
	payloadMeta    = "metadata"
)

type qdrantVectorConfig struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type qdrantCreateCollection struct {
	Vectors qdrantVectorConfig `json:"vectors"`
}

// Qdrant point ids must be UUIDs or unsigned integers.
type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type qdrantUpsert struct {
	Points []qdrantPoint `json:"points"`
}

type qdrantSearch struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantScoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type qdrantSearchResponse struct {
	Result []qdrantScoredPoint `json:"result"`
}

// QdrantIndex stores knowledge documents in a Qdrant collection over the REST API.
type QdrantIndex struct {
	baseURL    string
	collection string
	httpClient *http.Client
}

var _ VectorIndex = (*QdrantIndex)(nil)

func NewQdrantIndex(baseURL, collection string, httpClient *http.Client) (*QdrantIndex, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("qdrant url is required")
	}
	if strings.TrimSpace(collection) == "" {
		return nil, errors.New("qdrant collection is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &QdrantIndex{baseURL: baseURL, collection: collection, httpClient: httpClient}, nil
}

// EnsureCollection creates the collection with cosine distance. An existing
// collection is left as is.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dimensions int) error {
	url := fmt.Sprintf("%s/collections/%s", q.baseURL, q.collection)

	status, err := q.do(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}

	req := qdrantCreateCollection{Vectors: qdrantVectorConfig{Size: dimensions, Distance: "Cosine"}}
	status, err = q.do(ctx, http.MethodPut, url, req, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("qdrant create collection: status %d", status)
	}
	return nil
}

func (q *QdrantIndex) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	req := qdrantUpsert{Points: make([]qdrantPoint, 0, len(docs))}
	for _, d := range docs {
		payload := map[string]any{
			payloadDocID:   d.ID,
			payloadContent: d.Content,
		}
		if len(d.Metadata) > 0 {
			payload[payloadMeta] = d.Metadata
		}
		req.Points = append(req.Points, qdrantPoint{
			ID:      pointID(d.ID),
			Vector:  d.Vector,
			Payload: payload,
		})
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", q.baseURL, q.collection)
	status, err := q.do(ctx, http.MethodPut, url, req, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant upsert: status %d", status)
	}
	return nil
}

func (q *QdrantIndex) Search(ctx context.Context, query Vector, limit int) ([]Match, error) {
	req := qdrantSearch{Vector: query, Limit: limit, WithPayload: true}
	url := fmt.Sprintf("%s/collections/%s/points/search", q.baseURL, q.collection)

	var resp qdrantSearchResponse
	status, err := q.do(ctx, http.MethodPost, url, req, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("qdrant search: status %d", status)
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, p := range resp.Result {
		doc := Document{ID: fmt.Sprint(p.ID)}
		if id, ok := p.Payload[payloadDocID].(string); ok {
			doc.ID = id
		}
		doc.Content, _ = p.Payload[payloadContent].(string)
		doc.Metadata, _ = p.Payload[payloadMeta].(map[string]any)
		matches = append(matches, Match{Document: doc, Score: p.Score})
	}
	return matches, nil
}

// do sends body as JSON and decodes a 200 response into out when out is non-nil.
func (q *QdrantIndex) do(ctx context.Context, method, url string, body, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal qdrant request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("build qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call qdrant api: %w", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// pointID derives a stable UUID from a document id.
func pointID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("knowledge:"+docID)).String()
}
