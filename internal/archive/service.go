package archive

import (
	"context"
	"log"
	"time"

	"go-debate/internal/config"
	"go-debate/internal/debate"
)

const archiveTimeout = 60 * time.Second

type vectorStore interface {
	StoreEvidence(ctx context.Context, item debate.EvidenceItem, embedding []float32, sessionID, topic string) error
	SearchEvidence(ctx context.Context, embedding []float32, limit int) ([]debate.EvidenceItem, error)
}

type textEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Service ties the embedder and vector store together behind the two
// operations the session path needs: seeding a fresh pool and archiving a
// finished one.
type Service struct {
	storage   vectorStore
	embedder  textEmbedder
	seedLimit int
}

// NewService wires the archive from config. Returns nil when the archive is
// disabled; every Service method is safe to call on a nil receiver.
func NewService(cfg config.ArchiveConfig) (*Service, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	storage, err := NewStorage(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		storage:   storage,
		embedder:  NewEmbedder(cfg.EmbeddingModel.URL, cfg.EmbeddingModel.Name),
		seedLimit: cfg.SeedLimit,
	}, nil
}

// Seed pre-fills a fresh session's pool with archived evidence close to the
// topic. Failures are logged and swallowed: a session without seeds is
// degraded, not broken.
func (s *Service) Seed(ctx context.Context, st *debate.State) {
	if s == nil {
		return
	}
	embedding, err := s.embedder.Embed(ctx, st.Topic)
	if err != nil {
		log.Printf("[Archive] WARNING: topic embedding failed, skipping seed: %v", err)
		return
	}
	items, err := s.storage.SearchEvidence(ctx, embedding, s.seedLimit)
	if err != nil {
		log.Printf("[Archive] WARNING: seed search failed: %v", err)
		return
	}
	added := st.AddIntel(items)
	if len(added) == 0 {
		return
	}
	st.Seeded = true
	log.Printf("[Archive] seeded session %s with %d archived item(s)", st.SessionID, len(added))
}

// ArchiveAsync persists a finished session's pool in the background so the
// caller never waits on Qdrant. The state must not be mutated after the
// engine finishes, which is what makes reading it from this goroutine safe.
func (s *Service) ArchiveAsync(st *debate.State) {
	if s == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Archive] WARNING: recovered while archiving session %s: %v", st.SessionID, r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		s.archivePool(ctx, st)
	}()
}

func (s *Service) archivePool(ctx context.Context, st *debate.State) {
	stored := 0
	for _, item := range st.IntelPool {
		embedding, err := s.embedder.Embed(ctx, item.Title+"\n"+item.Content)
		if err != nil {
			log.Printf("[Archive] WARNING: embedding failed for %s: %v", item.ID, err)
			continue
		}
		if err := s.storage.StoreEvidence(ctx, item, embedding, st.SessionID, st.Topic); err != nil {
			log.Printf("[Archive] WARNING: upsert failed for %s: %v", item.ID, err)
			continue
		}
		stored++
	}
	log.Printf("[Archive] session %s: archived %d/%d pooled item(s)", st.SessionID, stored, len(st.IntelPool))
}
