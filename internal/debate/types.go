package debate

import (
	"encoding/json"
	"fmt"
)

// Transcript roles. A and B alternate inside the round loop; C writes the
// final synthesis; user carries the opening topic.
const (
	RoleUser      = "user"
	RoleAnalysis  = "A"
	RoleChallenge = "B"
	RoleObserver  = "C"
)

// Turn phases surfaced to stream consumers via phase events.
const (
	PhaseSearching  = "searching"
	PhaseGenerating = "generating"
)

// EvidenceItem is one retrieved document. Immutable once admitted to a pool:
// a later duplicate never overwrites an earlier item's content or score.
type EvidenceItem struct {
	ID      string  `json:"id"`      // fingerprint of the source URL
	Title   string  `json:"title"`   // provider title
	URL     string  `json:"url"`     // source locator
	Content string  `json:"content"` // snippet or enriched page text
	Score   float64 `json:"score"`   // provider relevance score
}

// SearchDirective is one planned retrieval request.
type SearchDirective struct {
	Intent  string     `json:"intent"`            // why the planner wants this search
	Query   string     `json:"query"`             // query text sent to the provider
	Domains DomainList `json:"domains,omitempty"` // site restriction, empty = unrestricted
}

// DomainList tolerates the two shapes planners actually produce for the
// domains field: a JSON array of strings or a single bare string.
type DomainList []string

func (d *DomainList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*d = DomainList(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*d = DomainList{}
		} else {
			*d = DomainList{s}
		}
		return nil
	}
	return fmt.Errorf("domains must be a string or an array of strings")
}

// TurnMessage is one transcript entry. Append-only once produced.
type TurnMessage struct {
	Role            string                 `json:"role"`
	Content         string                 `json:"content"`
	Structured      map[string]interface{} `json:"structured"`       // best-effort JSON object from content, empty when unparseable
	Retrievals      []EvidenceItem         `json:"retrievals"`       // evidence newly admitted to the pool this turn
	CitationSources []EvidenceItem         `json:"citation_sources"` // evidence shown to the model this turn
	SearchQueries   []string               `json:"search_queries"`   // queries actually executed this turn
	Timestamp       string                 `json:"timestamp"`        // UTC, RFC 3339
}
