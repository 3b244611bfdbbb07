package search

import (
	"context"
	"log"

	"go-debate/internal/debate"
)

// Tool is the search collaborator handed to debate agents. Provider failure
// degrades to an empty result set; a failed search never aborts a turn.
type Tool struct {
	client   *Client
	enricher *Enricher
}

// NewTool wraps a provider client and an optional enricher (nil disables
// page enrichment).
func NewTool(client *Client, enricher *Enricher) *Tool {
	return &Tool{client: client, enricher: enricher}
}

func (t *Tool) Search(ctx context.Context, query string, maxResults int, domains []string) []debate.EvidenceItem {
	items, err := t.client.Search(ctx, query, maxResults, domains)
	if err != nil {
		log.Printf("[Search] WARNING: query %q failed: %v", query, err)
		return []debate.EvidenceItem{}
	}
	if t.enricher != nil {
		items = t.enricher.Enrich(ctx, items)
	}
	log.Printf("[Search] query %q returned %d result(s)", query, len(items))
	return items
}
