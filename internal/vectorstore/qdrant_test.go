package vectorstore

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestGrpcAddress(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://qdrant.internal:9000",
			wantHost: "qdrant.internal",
			wantPort: 9001,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334, // Default
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost", // Defaults to localhost
			wantPort: 6334,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcAddress(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("grpcAddress() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcAddress() unexpected error: %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("Host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("Port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

func TestNewQdrantStore_InvalidURL(t *testing.T) {
	_, err := NewQdrantStore("://invalid")
	if err == nil {
		t.Error("NewQdrantStore() with invalid URL should return error")
	}
}

func TestBuildMMRQuery(t *testing.T) {
	req, err := buildMMRQuery("clauses", []float32{0.1, 0.2}, MMRParams{K: 6, FetchK: 30, Lambda: 0.5})
	if err != nil {
		t.Fatalf("buildMMRQuery() error = %v", err)
	}

	if req.CollectionName != "clauses" {
		t.Errorf("CollectionName = %q, want clauses", req.CollectionName)
	}
	if req.Limit == nil || *req.Limit != 6 {
		t.Errorf("Limit = %v, want 6", req.Limit)
	}

	mmrQuery := req.GetQuery().GetNearestWithMmr()
	if mmrQuery == nil {
		t.Fatal("query is not an MMR query")
	}
	if got := mmrQuery.GetMmr().GetCandidatesLimit(); got != 30 {
		t.Errorf("CandidatesLimit = %d, want 30", got)
	}
	if got := mmrQuery.GetMmr().GetDiversity(); got != 0.5 {
		t.Errorf("Diversity = %v, want 0.5", got)
	}
	if got := mmrQuery.GetNearest().GetDense().GetData(); len(got) != 2 {
		t.Errorf("nearest vector length = %d, want 2", len(got))
	}
}

func TestBuildMMRQuery_DiversityIsComplementOfLambda(t *testing.T) {
	tests := []struct {
		lambda float64
		want   float32
	}{
		{lambda: 1, want: 0},
		{lambda: 0, want: 1},
		{lambda: 0.75, want: 0.25},
	}

	for _, tt := range tests {
		req, err := buildMMRQuery("c", []float32{1}, MMRParams{K: 1, FetchK: 1, Lambda: tt.lambda})
		if err != nil {
			t.Fatalf("buildMMRQuery(lambda=%v) error = %v", tt.lambda, err)
		}
		if got := req.GetQuery().GetNearestWithMmr().GetMmr().GetDiversity(); got != tt.want {
			t.Errorf("lambda %v: diversity = %v, want %v", tt.lambda, got, tt.want)
		}
	}
}

func TestBuildMMRQuery_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		query  []float32
		params MMRParams
	}{
		{name: "zero k", query: []float32{1}, params: MMRParams{K: 0, FetchK: 30, Lambda: 0.5}},
		{name: "negative k", query: []float32{1}, params: MMRParams{K: -1, FetchK: 30, Lambda: 0.5}},
		{name: "fetch_k below k", query: []float32{1}, params: MMRParams{K: 6, FetchK: 3, Lambda: 0.5}},
		{name: "lambda above one", query: []float32{1}, params: MMRParams{K: 6, FetchK: 30, Lambda: 1.5}},
		{name: "empty vector", query: nil, params: MMRParams{K: 6, FetchK: 30, Lambda: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildMMRQuery("c", tt.query, tt.params); err == nil {
				t.Error("buildMMRQuery() expected error, got nil")
			}
		})
	}
}

func TestQdrantStore_Upsert_EmptyPoints(t *testing.T) {
	// Returns before touching the client.
	store := &QdrantStore{}

	err := store.Upsert(context.Background(), "test-collection", []Point{})
	if err != nil {
		t.Errorf("Upsert() with empty points should return early without error, got: %v", err)
	}
}

func TestQdrantStore_Delete_EmptyIDs(t *testing.T) {
	store := &QdrantStore{}

	err := store.Delete(context.Background(), "test-collection", []string{})
	if err != nil {
		t.Errorf("Delete() with empty IDs should return early without error, got: %v", err)
	}
}

func TestQdrantStore_SearchMMR_InvalidK(t *testing.T) {
	store := &QdrantStore{}

	_, err := store.SearchMMR(context.Background(), "test-collection", []float32{1.0, 2.0}, MMRParams{K: 0, FetchK: 30, Lambda: 0.5})
	if err == nil {
		t.Error("SearchMMR() with k=0 should return error")
	}
}

func TestQdrantStore_Scroll_InvalidLimit(t *testing.T) {
	store := &QdrantStore{}

	_, _, err := store.Scroll(context.Background(), "test-collection", 0, "")
	if err == nil {
		t.Error("Scroll() with limit=0 should return error")
	}
}

func TestPointIDString(t *testing.T) {
	if got := pointIDString(nil); got != "" {
		t.Errorf("pointIDString(nil) = %q, want empty", got)
	}
	if got := pointIDString(qdrant.NewID("5b0e5b8e-3f0a-5c4e-9d3c-1f2a3b4c5d6e")); got != "5b0e5b8e-3f0a-5c4e-9d3c-1f2a3b4c5d6e" {
		t.Errorf("pointIDString(uuid) = %q", got)
	}
	if got := pointIDString(qdrant.NewIDNum(42)); got != "42" {
		t.Errorf("pointIDString(num) = %q, want 42", got)
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	result := convertPayloadToMap(nil)
	if result == nil {
		t.Error("convertPayloadToMap() should return empty map, not nil")
	}
	if len(result) != 0 {
		t.Errorf("convertPayloadToMap() with nil should return empty map, got %d items", len(result))
	}

	payload := qdrant.NewValueMap(map[string]any{
		"content":    "條款：第一條 承保範圍",
		"article_no": "第一條",
		"chunk":      int64(3),
		"tags":       []any{"delay", "baggage"},
	})
	result = convertPayloadToMap(payload)

	if result["content"] != "條款：第一條 承保範圍" {
		t.Errorf("content = %v", result["content"])
	}
	if result["article_no"] != "第一條" {
		t.Errorf("article_no = %v", result["article_no"])
	}
	if result["chunk"] != int64(3) {
		t.Errorf("chunk = %v (%T)", result["chunk"], result["chunk"])
	}
	tags, ok := result["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "delay" {
		t.Errorf("tags = %v", result["tags"])
	}
}

func TestToPointStruct(t *testing.T) {
	ps, err := toPointStruct(Point{
		ID:   "5b0e5b8e-3f0a-5c4e-9d3c-1f2a3b4c5d6e",
		Vec:  []float32{0.1, 0.2},
		Meta: map[string]any{"article_no": "第十條", "chunk_index": int64(3)},
	})
	if err != nil {
		t.Fatalf("toPointStruct() error = %v", err)
	}
	if got := pointIDString(ps.Id); got != "5b0e5b8e-3f0a-5c4e-9d3c-1f2a3b4c5d6e" {
		t.Errorf("toPointStruct() id = %q", got)
	}
	if got := ps.Payload["article_no"].GetStringValue(); got != "第十條" {
		t.Errorf("toPointStruct() article_no = %q", got)
	}
	if got := ps.Payload["chunk_index"].GetIntegerValue(); got != 3 {
		t.Errorf("toPointStruct() chunk_index = %d, want 3", got)
	}

	if _, err := toPointStruct(Point{ID: "x", Meta: map[string]any{"bad": make(chan int)}}); err == nil {
		t.Error("toPointStruct() should reject unsupported payload values")
	}
}
