package debate

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the per-session aggregate: transcript, shared evidence pool and
// query log. It is created once per session, mutated in place by the single
// in-flight turn, and read-only after the engine finishes. Sessions are
// single-shot; there is no reset.
type State struct {
	SessionID   string `json:"session_id"`
	Topic       string `json:"topic"`
	TimeContext string `json:"time_context"`
	PRGoal      string `json:"pr_goal"`
	TurnIndex   int    `json:"turn_index"` // 0-based round counter, set before both agents act
	MaxRounds   int    `json:"max_rounds"`
	StopReason  string `json:"stop_reason,omitempty"` // set when the challenge agent ends the debate early
	Seeded      bool   `json:"seeded"`                // true when the pool was pre-seeded from the archive

	Messages        []TurnMessage  `json:"messages"`
	IntelPool       []EvidenceItem `json:"intel_pool"`       // insertion order = discovery order
	SearchedQueries []string       `json:"searched_queries"` // original trimmed forms, session-wide

	intelIDs          map[string]struct{} // membership index for IntelPool
	queryFingerprints map[string]struct{} // normalized forms of SearchedQueries
}

// NewState builds an empty session aggregate.
func NewState(topic, timeContext, prGoal string, maxRounds int) *State {
	return &State{
		SessionID:         uuid.NewString(),
		Topic:             topic,
		TimeContext:       timeContext,
		PRGoal:            prGoal,
		MaxRounds:         maxRounds,
		Messages:          []TurnMessage{},
		IntelPool:         []EvidenceItem{},
		SearchedQueries:   []string{},
		intelIDs:          make(map[string]struct{}),
		queryFingerprints: make(map[string]struct{}),
	}
}

// AddIntel admits candidates into the shared pool. First-seen wins: an item
// whose id is already pooled is skipped, so a later duplicate never
// overwrites an earlier one's content or score. Returns only the newly
// admitted items, in input order. The pool grows monotonically and existing
// entries are never reordered.
func (s *State) AddIntel(candidates []EvidenceItem) []EvidenceItem {
	added := make([]EvidenceItem, 0, len(candidates))
	for _, item := range candidates {
		if _, seen := s.intelIDs[item.ID]; seen {
			continue
		}
		s.intelIDs[item.ID] = struct{}{}
		s.IntelPool = append(s.IntelPool, item)
		added = append(added, item)
	}
	return added
}

// AddQueries records search queries, deduplicated session-wide by normalized
// fingerprint (lowercase, internal whitespace collapsed). The original
// trimmed string is what gets stored and returned; blanks are dropped.
// Returns only the newly admitted queries, in input order. This is what
// stops an agent re-running an identical search across rounds under
// different casing or spacing.
func (s *State) AddQueries(candidates []string) []string {
	added := make([]string, 0, len(candidates))
	for _, q := range candidates {
		trimmed := strings.TrimSpace(q)
		if trimmed == "" {
			continue
		}
		fp := QueryFingerprint(trimmed)
		if _, seen := s.queryFingerprints[fp]; seen {
			continue
		}
		s.queryFingerprints[fp] = struct{}{}
		s.SearchedQueries = append(s.SearchedQueries, trimmed)
		added = append(added, trimmed)
	}
	return added
}

// QueryFingerprint is the normalized form used purely for duplicate
// detection, never for display.
func QueryFingerprint(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// LastMessageByRole returns the most recent message for a role, or nil.
func (s *State) LastMessageByRole(role string) *TurnMessage {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role {
			return &s.Messages[i]
		}
	}
	return nil
}

// CompletedRounds counts rounds that ran to their challenge turn.
func (s *State) CompletedRounds() int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == RoleChallenge {
			n++
		}
	}
	return n
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
