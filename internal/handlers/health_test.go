package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeCounter struct {
	count uint64
	err   error
}

func (f fakeCounter) IndexSize(context.Context) (uint64, error) {
	return f.count, f.err
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		counter        fakeCounter
		expectedStatus int
		wantStatus     string
		wantIssue      string
		wantChunks     uint64
	}{
		{
			name:           "healthy",
			method:         http.MethodGet,
			counter:        fakeCounter{count: 42},
			expectedStatus: http.StatusOK,
			wantStatus:     "healthy",
			wantChunks:     42,
		},
		{
			name:           "empty index",
			method:         http.MethodGet,
			counter:        fakeCounter{},
			expectedStatus: http.StatusOK,
			wantStatus:     "degraded",
			wantIssue:      "empty_index",
		},
		{
			name:           "vector store down",
			method:         http.MethodGet,
			counter:        fakeCounter{err: errors.New("connection refused")},
			expectedStatus: http.StatusServiceUnavailable,
			wantStatus:     "unhealthy",
			wantIssue:      "vector_store_unavailable",
		},
		{
			name:           "method not allowed",
			method:         http.MethodPost,
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/health", nil)
			rr := httptest.NewRecorder()
			NewHealthHandler(tt.counter).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			if tt.wantStatus == "" {
				return
			}

			var resp HealthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.IndexedChunks != tt.wantChunks {
				t.Errorf("IndexedChunks = %d, want %d", resp.IndexedChunks, tt.wantChunks)
			}
			if tt.wantIssue != "" && (len(resp.Issues) != 1 || resp.Issues[0] != tt.wantIssue) {
				t.Errorf("Issues = %v, want [%s]", resp.Issues, tt.wantIssue)
			}
			if tt.wantIssue == "" && len(resp.Issues) != 0 {
				t.Errorf("Issues = %v, want none", resp.Issues)
			}
			if resp.Timestamp == "" {
				t.Error("Timestamp should be set")
			}
		})
	}
}
