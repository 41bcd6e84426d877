package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type fakeQdrant struct {
	mu        sync.Mutex
	created   bool
	upserted  []qdrantPoint
	lastLimit int
}

func (f *fakeQdrant) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		path := r.URL.Path
		switch {
		case r.Method == http.MethodGet && path == "/collections/kb":
			if !f.created {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte(`{"result":{},"status":"ok"}`))
		case r.Method == http.MethodPut && path == "/collections/kb":
			var req qdrantCreateCollection
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Vectors.Distance != "Cosine" {
				t.Errorf("unexpected create request: %v %#v", err, req)
			}
			f.created = true
			w.Write([]byte(`{"result":true,"status":"ok"}`))
		case r.Method == http.MethodPut && path == "/collections/kb/points":
			var req qdrantUpsert
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode upsert: %v", err)
			}
			f.upserted = append(f.upserted, req.Points...)
			w.Write([]byte(`{"result":{"status":"completed"},"status":"ok"}`))
		case r.Method == http.MethodPost && strings.HasSuffix(path, "/points/search"):
			var req qdrantSearch
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode search: %v", err)
			}
			f.lastLimit = req.Limit
			w.Write([]byte(`{"result":[
				{"id":"5c56c793-69f3-5fbf-87e6-c4bf54c28c26","score":0.82,"payload":{"doc_id":"venue","content":"Book the venue early","metadata":{"source":"guide"}}},
				{"id":42,"score":0.1,"payload":{"content":"unrelated"}}
			],"status":"ok"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestQdrantIndexRoundTrip(t *testing.T) {
	t.Parallel()

	fake := &fakeQdrant{}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	idx, err := NewQdrantIndex(server.URL+"/", "kb", server.Client())
	if err != nil {
		t.Fatalf("NewQdrantIndex() error = %v", err)
	}
	ctx := context.Background()
	if err := idx.EnsureCollection(ctx, 4); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if err := idx.EnsureCollection(ctx, 4); err != nil {
		t.Fatalf("EnsureCollection() on existing collection error = %v", err)
	}

	err = idx.Upsert(ctx, []Document{{ID: "venue", Content: "Book the venue early", Vector: Vector{1, 0, 0, 0}}})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if len(fake.upserted) != 1 {
		t.Fatalf("expected 1 upserted point, got %d", len(fake.upserted))
	}
	point := fake.upserted[0]
	if point.ID != pointID("venue") || point.Payload[payloadDocID] != "venue" {
		t.Fatalf("unexpected point: %#v", point)
	}

	matches, err := idx.Search(ctx, Vector{1, 0, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if fake.lastLimit != 3 {
		t.Fatalf("search limit = %d, want 3", fake.lastLimit)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Document.ID != "venue" || matches[0].Document.Metadata["source"] != "guide" {
		t.Fatalf("unexpected first match: %#v", matches[0])
	}
	if matches[1].Document.ID != "42" {
		t.Fatalf("numeric point id should fall back to its string form, got %q", matches[1].Document.ID)
	}
}

func TestQdrantIndexWithRetrieverThreshold(t *testing.T) {
	t.Parallel()

	fake := &fakeQdrant{created: true}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	idx, _ := NewQdrantIndex(server.URL, "kb", server.Client())
	r, _ := NewRetriever(NewHashEmbedder(8), idx)
	got, err := r.Search(context.Background(), "venue")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Content != "Book the venue early" {
		t.Fatalf("expected only the match above threshold, got %#v", got)
	}
}

func TestQdrantIndexSearchError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	idx, _ := NewQdrantIndex(server.URL, "kb", server.Client())
	if _, err := idx.Search(context.Background(), Vector{1}, 1); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestPointIDIsStableUUID(t *testing.T) {
	t.Parallel()

	if pointID("a") != pointID("a") || pointID("a") == pointID("b") {
		t.Fatal("point ids should be stable per document id")
	}
	if len(pointID("a")) != 36 {
		t.Fatalf("expected UUID string, got %q", pointID("a"))
	}
}
