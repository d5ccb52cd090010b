package storage

import (
	"context"
	"errors"
	"testing"
)

func seedDocument(t *testing.T, repo *DocumentRepo, relPath string) string {
	t.Helper()
	doc := &DocumentRecord{RelPath: relPath, Hash: "hash"}
	if err := repo.Upsert(context.Background(), doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	return doc.ID
}

func TestChunkRepo_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	docID := seedDocument(t, NewDocumentRepo(db), "travel.txt")
	repo := NewChunkRepo(db)

	tests := []struct {
		name    string
		chunk   *ChunkRecord
		wantErr bool
	}{
		{
			name: "article chunk",
			chunk: &ChunkRecord{
				ID:           "chunk-1",
				DocumentID:   docID,
				ChunkIndex:   0,
				ClauseID:     "第十條",
				ArticleNo:    "第十條",
				ArticleTitle: "班機延誤",
				Text:         "條款：第十條 班機延誤\n內容：...",
			},
		},
		{
			name: "general context chunk",
			chunk: &ChunkRecord{
				ID:           "chunk-2",
				DocumentID:   docID,
				ChunkIndex:   1,
				ClauseID:     "fallback_1",
				ArticleTitle: "General Context",
				Text:         "preamble",
			},
		},
		{
			name:    "duplicate ID",
			chunk:   &ChunkRecord{ID: "chunk-1", DocumentID: docID, ClauseID: "x", Text: "dup"},
			wantErr: true,
		},
		{
			name:    "unknown document",
			chunk:   &ChunkRecord{ID: "chunk-3", DocumentID: "missing", ClauseID: "x", Text: "orphan"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Insert(ctx, tt.chunk)
			if tt.wantErr {
				if err == nil {
					t.Error("Insert() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Insert() unexpected error: %v", err)
			}

			got, err := repo.GetByID(ctx, tt.chunk.ID)
			if err != nil {
				t.Fatalf("GetByID() error = %v", err)
			}
			if *got != *tt.chunk {
				t.Errorf("GetByID() = %+v, want %+v", got, tt.chunk)
			}
		})
	}
}

func TestChunkRepo_GetByID_NotFound(t *testing.T) {
	repo := NewChunkRepo(newTestDB(t))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestChunkRepo_ListIDsByDocument_OrderedByIndex(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	first := seedDocument(t, docs, "a.txt")
	second := seedDocument(t, docs, "b.txt")
	repo := NewChunkRepo(db)

	for _, c := range []*ChunkRecord{
		{ID: "a-2", DocumentID: first, ChunkIndex: 2, ClauseID: "第三條", Text: "3"},
		{ID: "a-0", DocumentID: first, ChunkIndex: 0, ClauseID: "第一條", Text: "1"},
		{ID: "a-1", DocumentID: first, ChunkIndex: 1, ClauseID: "第二條", Text: "2"},
		{ID: "b-0", DocumentID: second, ChunkIndex: 0, ClauseID: "第一條", Text: "1"},
	} {
		if err := repo.Insert(ctx, c); err != nil {
			t.Fatalf("Insert(%s) error = %v", c.ID, err)
		}
	}

	ids, err := repo.ListIDsByDocument(ctx, first)
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	want := []string{"a-0", "a-1", "a-2"}
	if len(ids) != len(want) {
		t.Fatalf("ListIDsByDocument() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List() returned %d chunks, want 4", len(all))
	}

	if err := repo.DeleteByDocument(ctx, first); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	ids, err = repo.ListIDsByDocument(ctx, first)
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ListIDsByDocument() after delete = %v, want empty", ids)
	}
}
