package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"go-debate/internal/config"
	"go-debate/internal/debate"
)

// Storage persists pooled evidence in Qdrant so later sessions on related
// topics can start from it instead of from nothing.
type Storage struct {
	client     *qdrant.Client
	collection string
	vectorSize uint64
}

// NewStorage connects to Qdrant and makes sure the evidence collection
// exists.
func NewStorage(cfg config.ArchiveConfig) (*Storage, error) {
	// Strip scheme and port; the gRPC port is fixed.
	host := strings.TrimPrefix(cfg.Qdrant.URL, "http://")
	host = strings.TrimPrefix(host, "https://")
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   6334, // gRPC port
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	s := &Storage{
		client:     client,
		collection: cfg.Qdrant.Collection,
		vectorSize: cfg.VectorSize,
	}

	if err := s.ensureCollection(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}

	return s, nil
}

// ensureCollection creates the collection if it doesn't exist.
func (s *Storage) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// Payload indexes for the fields sessions filter and audit on.
	indexes := []struct {
		field string
		typ   qdrant.PayloadSchemaType
	}{
		{"evidence_id", qdrant.PayloadSchemaType_Keyword},
		{"session_id", qdrant.PayloadSchemaType_Keyword},
		{"archived_at", qdrant.PayloadSchemaType_Integer},
	}

	for _, idx := range indexes {
		fieldType := qdrant.FieldType(idx.typ)
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      idx.field,
			FieldType:      &fieldType,
			Wait:           boolPtr(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for %s: %w", idx.field, err)
		}
	}

	return nil
}

// StoreEvidence upserts one pooled item. The point id is derived from the
// evidence id, so re-archiving the same source overwrites instead of
// duplicating it.
func (s *Storage) StoreEvidence(ctx context.Context, item debate.EvidenceItem, embedding []float32, sessionID, topic string) error {
	pointID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(item.ID)).String()

	payload := map[string]*qdrant.Value{
		"evidence_id": qdrant.NewValueString(item.ID),
		"title":       qdrant.NewValueString(item.Title),
		"url":         qdrant.NewValueString(item.URL),
		"content":     qdrant.NewValueString(item.Content),
		"score":       qdrant.NewValueDouble(item.Score),
		"session_id":  qdrant.NewValueString(sessionID),
		"topic":       qdrant.NewValueString(topic),
		"archived_at": qdrant.NewValueInt(time.Now().Unix()),
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(pointID),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: payload,
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{point},
	})

	return err
}

// SearchEvidence returns the archived items closest to the embedding. The
// returned score is the similarity to the query, not the score the item
// carried when it was archived.
func (s *Storage) SearchEvidence(ctx context.Context, embedding []float32, limit int) ([]debate.EvidenceItem, error) {
	result, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          uint64Ptr(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	items := make([]debate.EvidenceItem, 0, len(result))
	for _, point := range result {
		item := pointToEvidence(point)
		if item.ID == "" {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// pointToEvidence converts a Qdrant point back into a pool item.
func pointToEvidence(point *qdrant.ScoredPoint) debate.EvidenceItem {
	payload := point.Payload
	return debate.EvidenceItem{
		ID:      getStringFromPayload(payload, "evidence_id"),
		Title:   getStringFromPayload(payload, "title"),
		URL:     getStringFromPayload(payload, "url"),
		Content: getStringFromPayload(payload, "content"),
		Score:   float64(point.Score),
	}
}

func getStringFromPayload(payload map[string]*qdrant.Value, key string) string {
	if val, ok := payload[key]; ok {
		return val.GetStringValue()
	}
	return ""
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}
