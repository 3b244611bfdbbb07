package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-debate/internal/config"
	"go-debate/internal/debate"
)

type stubStore struct {
	storeFn  func(ctx context.Context, item debate.EvidenceItem, embedding []float32, sessionID, topic string) error
	searchFn func(ctx context.Context, embedding []float32, limit int) ([]debate.EvidenceItem, error)
}

func (s *stubStore) StoreEvidence(ctx context.Context, item debate.EvidenceItem, embedding []float32, sessionID, topic string) error {
	if s.storeFn == nil {
		return nil
	}
	return s.storeFn(ctx, item, embedding, sessionID, topic)
}

func (s *stubStore) SearchEvidence(ctx context.Context, embedding []float32, limit int) ([]debate.EvidenceItem, error) {
	if s.searchFn == nil {
		return nil, nil
	}
	return s.searchFn(ctx, embedding, limit)
}

type stubEmbedder struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedFn == nil {
		return []float32{0.1, 0.2}, nil
	}
	return s.embedFn(ctx, text)
}

func TestSeedAddsArchivedEvidence(t *testing.T) {
	archived := []debate.EvidenceItem{
		{ID: "old-1", Title: "Recall notice", URL: "https://a.example/1", Content: "notice text", Score: 0.91},
		{ID: "old-2", Title: "Press statement", URL: "https://a.example/2", Content: "statement text", Score: 0.84},
	}
	var gotLimit int
	svc := &Service{
		storage: &stubStore{
			searchFn: func(ctx context.Context, embedding []float32, limit int) ([]debate.EvidenceItem, error) {
				gotLimit = limit
				return archived, nil
			},
		},
		embedder:  &stubEmbedder{},
		seedLimit: 4,
	}

	st := debate.NewState("acme battery recall", "August 2026", "restore trust", 2)
	svc.Seed(context.Background(), st)

	if !st.Seeded {
		t.Error("Seeded should be true after archived items were admitted")
	}
	if gotLimit != 4 {
		t.Errorf("seed search limit = %d, want 4", gotLimit)
	}
	if len(st.IntelPool) != 2 {
		t.Fatalf("pool size = %d, want 2", len(st.IntelPool))
	}
	if st.IntelPool[0].ID != "old-1" || st.IntelPool[1].ID != "old-2" {
		t.Errorf("pool order = %s, %s", st.IntelPool[0].ID, st.IntelPool[1].ID)
	}
}

func TestSeedEmbeddingFailureIsNonFatal(t *testing.T) {
	svc := &Service{
		storage: &stubStore{},
		embedder: &stubEmbedder{
			embedFn: func(ctx context.Context, text string) ([]float32, error) {
				return nil, errors.New("endpoint down")
			},
		},
		seedLimit: 4,
	}

	st := debate.NewState("topic", "", "", 1)
	svc.Seed(context.Background(), st)

	if st.Seeded {
		t.Error("Seeded should stay false when embedding fails")
	}
	if len(st.IntelPool) != 0 {
		t.Errorf("pool should stay empty, has %d items", len(st.IntelPool))
	}
}

func TestSeedSearchFailureIsNonFatal(t *testing.T) {
	svc := &Service{
		storage: &stubStore{
			searchFn: func(ctx context.Context, embedding []float32, limit int) ([]debate.EvidenceItem, error) {
				return nil, errors.New("qdrant unreachable")
			},
		},
		embedder:  &stubEmbedder{},
		seedLimit: 4,
	}

	st := debate.NewState("topic", "", "", 1)
	svc.Seed(context.Background(), st)

	if st.Seeded || len(st.IntelPool) != 0 {
		t.Error("failed seed search must leave the state untouched")
	}
}

func TestSeedNoResultsLeavesSeededFalse(t *testing.T) {
	svc := &Service{
		storage:   &stubStore{},
		embedder:  &stubEmbedder{},
		seedLimit: 4,
	}

	st := debate.NewState("topic", "", "", 1)
	svc.Seed(context.Background(), st)

	if st.Seeded {
		t.Error("Seeded should stay false when the archive has nothing relevant")
	}
}

func TestArchivePoolStoresEachItem(t *testing.T) {
	var stored []string
	svc := &Service{
		storage: &stubStore{
			storeFn: func(ctx context.Context, item debate.EvidenceItem, embedding []float32, sessionID, topic string) error {
				stored = append(stored, item.ID)
				if topic != "acme battery recall" {
					t.Errorf("topic = %q", topic)
				}
				return nil
			},
		},
		embedder: &stubEmbedder{
			embedFn: func(ctx context.Context, text string) ([]float32, error) {
				// One item's embedding fails; archiving must continue past it.
				if text == "Broken item\nbad content" {
					return nil, errors.New("embed failed")
				}
				return []float32{0.5}, nil
			},
		},
		seedLimit: 4,
	}

	st := debate.NewState("acme battery recall", "", "", 1)
	st.AddIntel([]debate.EvidenceItem{
		{ID: "e1", Title: "Recall notice", Content: "notice"},
		{ID: "e2", Title: "Broken item", Content: "bad content"},
		{ID: "e3", Title: "Statement", Content: "full text"},
	})

	svc.archivePool(context.Background(), st)

	if len(stored) != 2 {
		t.Fatalf("stored %d items, want 2: %v", len(stored), stored)
	}
	if stored[0] != "e1" || stored[1] != "e3" {
		t.Errorf("stored = %v", stored)
	}
}

func TestArchiveAsyncRunsInBackground(t *testing.T) {
	done := make(chan string, 2)
	svc := &Service{
		storage: &stubStore{
			storeFn: func(ctx context.Context, item debate.EvidenceItem, embedding []float32, sessionID, topic string) error {
				done <- item.ID
				return nil
			},
		},
		embedder:  &stubEmbedder{},
		seedLimit: 4,
	}

	st := debate.NewState("topic", "", "", 1)
	st.AddIntel([]debate.EvidenceItem{
		{ID: "e1", Title: "One"},
		{ID: "e2", Title: "Two"},
	})

	svc.ArchiveAsync(st)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("archive goroutine never stored the pool")
		}
	}
}

func TestNilServiceIsSafe(t *testing.T) {
	var svc *Service

	st := debate.NewState("topic", "", "", 1)
	svc.Seed(context.Background(), st)
	svc.ArchiveAsync(st)

	if st.Seeded || len(st.IntelPool) != 0 {
		t.Error("nil service must not touch the state")
	}
}

func TestNewServiceDisabled(t *testing.T) {
	svc, err := NewService(config.ArchiveConfig{Enabled: false})
	if err != nil {
		t.Fatalf("disabled archive should not error: %v", err)
	}
	if svc != nil {
		t.Error("disabled archive should yield a nil service")
	}
}
