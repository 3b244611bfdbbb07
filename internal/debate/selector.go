package debate

import (
	"sort"
	"strings"
)

// maxFocusKeywords bounds the keyword set extracted for relevance scoring.
const maxFocusKeywords = 20

// SelectEvidence ranks the shared pool against the current focus and returns
// the top n items for prompt inclusion. Keyword overlap dominates the
// provider score by an order of magnitude, and the sort is stable so ties
// keep pool insertion order (oldest first). Pure: the pool is never mutated.
func SelectEvidence(pool []EvidenceItem, topic, focus string, topn int) []EvidenceItem {
	if topn <= 0 || len(pool) == 0 {
		return []EvidenceItem{}
	}
	keywords := dedupeTokens(tokenize(topic+" "+focus), maxFocusKeywords)

	type scoredItem struct {
		item  EvidenceItem
		score float64
	}
	scored := make([]scoredItem, 0, len(pool))
	for _, item := range pool {
		haystack := strings.ToLower(item.Title + " " + item.Content)
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				matches++
			}
		}
		scored = append(scored, scoredItem{item: item, score: float64(10*matches) + item.Score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if topn > len(scored) {
		topn = len(scored)
	}
	selected := make([]EvidenceItem, 0, topn)
	for _, s := range scored[:topn] {
		selected = append(selected, s.item)
	}
	return selected
}
