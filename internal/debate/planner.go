package debate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"go-debate/internal/utils"
)

// fallbackChunkSize is how many concrete keywords are joined into one
// salvage query when the planner model produces nothing usable.
const fallbackChunkSize = 3

// QueryPlanner turns debate context into specific, session-unique search
// directives for one agent turn.
type QueryPlanner struct {
	gen        Generator
	maxQueries int
}

func NewQueryPlanner(gen Generator, maxQueries int) *QueryPlanner {
	if maxQueries < 1 {
		maxQueries = 3
	}
	if maxQueries > 4 {
		maxQueries = 4
	}
	return &QueryPlanner{gen: gen, maxQueries: maxQueries}
}

// Plan produces at most maxQueries directives for the given agent role.
// Candidates that repeat a query already searched this session are dropped;
// when that leaves nothing, the survivors are re-issued with a round suffix
// so a repeated stance still refreshes its evidence.
func (p *QueryPlanner) Plan(ctx context.Context, st *State, role, counterpart, own string) []SearchDirective {
	directives := p.gateAndDedupe(p.requestDirectives(ctx, st, role, counterpart, own))
	if len(directives) == 0 {
		log.Printf("[Planner] WARNING: no usable directives from model for agent %s, falling back to keyword queries", role)
		directives = p.gateAndDedupe(p.fallbackDirectives(st, counterpart, own))
	}
	if len(directives) == 0 {
		return nil
	}

	queries := make([]string, 0, len(directives))
	for _, d := range directives {
		queries = append(queries, d.Query)
	}
	admitted := st.AddQueries(queries)
	if len(admitted) > 0 {
		keep := make(map[string]bool, len(admitted))
		for _, q := range admitted {
			keep[QueryFingerprint(q)] = true
		}
		fresh := make([]SearchDirective, 0, len(admitted))
		for _, d := range directives {
			if keep[QueryFingerprint(d.Query)] {
				fresh = append(fresh, d)
			}
		}
		return fresh
	}

	// Every candidate repeats an earlier search. Suffix with the round
	// number so the queries differ and the session log stays accurate.
	round := st.TurnIndex + 1
	suffixed := make([]SearchDirective, 0, len(directives))
	requeued := make([]string, 0, len(directives))
	for _, d := range directives {
		d.Query = fmt.Sprintf("%s (round %d)", d.Query, round)
		suffixed = append(suffixed, d)
		requeued = append(requeued, d.Query)
	}
	st.AddQueries(requeued)
	log.Printf("[Planner] all %d directives for agent %s repeated earlier searches, re-issued with round suffix", len(suffixed), role)
	return suffixed
}

// requestDirectives asks the planner model for a directive array. Any
// failure (call error, no array, bad decode) degrades to nil so the
// keyword fallback takes over.
func (p *QueryPlanner) requestDirectives(ctx context.Context, st *State, role, counterpart, own string) []SearchDirective {
	if p.gen == nil {
		return nil
	}
	raw, err := p.gen.Complete(ctx, buildPlannerMessages(st, role, counterpart, own, p.maxQueries))
	if err != nil {
		log.Printf("[Planner] WARNING: planner model call failed for agent %s: %v", role, err)
		return nil
	}
	arr, ok := utils.FirstJSONArray(raw)
	if !ok {
		log.Printf("[Planner] WARNING: planner output for agent %s contained no JSON array", role)
		return nil
	}
	var directives []SearchDirective
	if err := json.Unmarshal([]byte(arr), &directives); err != nil {
		log.Printf("[Planner] WARNING: planner output for agent %s did not decode: %v", role, err)
		return nil
	}
	return directives
}

// gateAndDedupe trims, drops vague queries, removes in-batch fingerprint
// duplicates and caps the batch at maxQueries.
func (p *QueryPlanner) gateAndDedupe(candidates []SearchDirective) []SearchDirective {
	out := make([]SearchDirective, 0, p.maxQueries)
	seen := make(map[string]bool, len(candidates))
	for _, d := range candidates {
		d.Query = strings.TrimSpace(d.Query)
		if d.Query == "" || !IsSpecificQuery(d.Query) {
			continue
		}
		fp := QueryFingerprint(d.Query)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, d)
		if len(out) == p.maxQueries {
			break
		}
	}
	return out
}

// fallbackDirectives builds keyword queries from everything the session
// knows: topic, time context, goal and the two latest turns. Keywords are
// grouped so each query carries enough concrete terms to pass the gate.
func (p *QueryPlanner) fallbackDirectives(st *State, counterpart, own string) []SearchDirective {
	combined := strings.Join([]string{st.Topic, st.TimeContext, st.PRGoal, counterpart, own}, " ")
	keywords := dedupeTokens(concreteTokens(tokenize(combined)), fallbackChunkSize*p.maxQueries)
	out := make([]SearchDirective, 0, p.maxQueries)
	for i := 0; i < len(keywords); i += fallbackChunkSize {
		end := i + fallbackChunkSize
		if end > len(keywords) {
			end = len(keywords)
		}
		if end-i < 2 {
			break
		}
		out = append(out, SearchDirective{
			Intent: "keyword fallback",
			Query:  strings.Join(keywords[i:end], " "),
		})
	}
	return out
}
