package debate

import (
	"context"
	"fmt"
	"log"

	"go-debate/internal/utils"
)

// Generator produces model output for a prepared message list. Complete
// returns the full text at once; Stream delivers fragments through onToken
// and returns the accumulated text.
type Generator interface {
	Complete(ctx context.Context, messages []map[string]string) (string, error)
	Stream(ctx context.Context, messages []map[string]string, onToken func(string)) (string, error)
}

// Searcher executes one web search. Implementations degrade to an empty
// result set on provider failure; a missing search capability never aborts
// a turn.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int, domains []string) []EvidenceItem
}

// Agent produces one transcript message per call. All three debate roles
// hide behind this interface so the engine runs them uniformly.
type Agent interface {
	Role() string
	TakeTurn(ctx context.Context, st *State, emit EventSink) (TurnMessage, error)
}

// TurnConfig carries the per-agent knobs that shape a turn.
type TurnConfig struct {
	MaxResults int    // provider results requested per search
	TopN       int    // evidence items shown to the model
	Capability string // optional extra system prompt material
}

func (c TurnConfig) withDefaults() TurnConfig {
	if c.MaxResults <= 0 {
		c.MaxResults = 5
	}
	if c.TopN <= 0 {
		c.TopN = 6
	}
	return c
}

// debater runs the full plan/search/select/generate turn for agent A or B.
type debater struct {
	role        string
	counterpart string
	system      string
	gen         Generator
	search      Searcher
	planner     *QueryPlanner
	cfg         TurnConfig
}

// NewAnalysisAgent builds agent A, which argues the analysis side against B.
func NewAnalysisAgent(gen Generator, search Searcher, planner *QueryPlanner, cfg TurnConfig) Agent {
	return &debater{
		role:        RoleAnalysis,
		counterpart: RoleChallenge,
		system:      analysisSystemPrompt,
		gen:         gen,
		search:      search,
		planner:     planner,
		cfg:         cfg.withDefaults(),
	}
}

// NewChallengeAgent builds agent B, which stress-tests A's latest position.
func NewChallengeAgent(gen Generator, search Searcher, planner *QueryPlanner, cfg TurnConfig) Agent {
	return &debater{
		role:        RoleChallenge,
		counterpart: RoleAnalysis,
		system:      challengeSystemPrompt,
		gen:         gen,
		search:      search,
		planner:     planner,
		cfg:         cfg.withDefaults(),
	}
}

func (d *debater) Role() string { return d.role }

func (d *debater) TakeTurn(ctx context.Context, st *State, emit EventSink) (TurnMessage, error) {
	round := st.TurnIndex + 1

	var counterpart, own string
	if m := st.LastMessageByRole(d.counterpart); m != nil {
		counterpart = m.Content
	}
	if m := st.LastMessageByRole(d.role); m != nil {
		own = m.Content
	}

	var directives []SearchDirective
	if d.planner != nil {
		directives = d.planner.Plan(ctx, st, d.role, counterpart, own)
	}

	emit(Event{Event: EventPhase, SessionID: st.SessionID, Round: round, Role: d.role, Phase: PhaseSearching})

	executed := make([]string, 0, len(directives))
	var found []EvidenceItem
	if d.search != nil {
		for _, dir := range directives {
			if err := ctx.Err(); err != nil {
				return TurnMessage{}, err
			}
			executed = append(executed, dir.Query)
			found = append(found, d.search.Search(ctx, dir.Query, d.cfg.MaxResults, dir.Domains)...)
		}
	}
	retrievals := st.AddIntel(found)
	log.Printf("[Agent %s] round %d: %d searches, %d results, %d newly pooled",
		d.role, round, len(executed), len(found), len(retrievals))

	// The counterpart's latest message is the focus: evidence that speaks to
	// what must be answered ranks above evidence that is merely on topic.
	citations := SelectEvidence(st.IntelPool, st.Topic, counterpart, d.cfg.TopN)

	emit(Event{Event: EventPhase, SessionID: st.SessionID, Round: round, Role: d.role, Phase: PhaseGenerating})

	messages := buildDebaterMessages(d.system, d.cfg.Capability, st, counterpart, directives, len(retrievals), citations)
	content, err := d.gen.Stream(ctx, messages, func(token string) {
		emit(Event{Event: EventToken, SessionID: st.SessionID, Round: round, Role: d.role, Token: token})
	})
	if err != nil {
		return TurnMessage{}, fmt.Errorf("agent %s generation: %w", d.role, err)
	}

	return TurnMessage{
		Role:            d.role,
		Content:         content,
		Structured:      utils.ParseJSONObject(content),
		Retrievals:      retrievals,
		CitationSources: citations,
		SearchQueries:   executed,
		Timestamp:       nowStamp(),
	}, nil
}

// observer runs agent C's synthesis turn. It never plans or searches; it
// works from the transcript and the evidence the debaters already pooled.
type observer struct {
	system string
	gen    Generator
	cfg    TurnConfig
}

func NewObserverAgent(gen Generator, cfg TurnConfig) Agent {
	return &observer{system: observerSystemPrompt, gen: gen, cfg: cfg.withDefaults()}
}

func (o *observer) Role() string { return RoleObserver }

func (o *observer) TakeTurn(ctx context.Context, st *State, emit EventSink) (TurnMessage, error) {
	citations := SelectEvidence(st.IntelPool, st.Topic, st.PRGoal, o.cfg.TopN)

	emit(Event{Event: EventPhase, SessionID: st.SessionID, Role: RoleObserver, Phase: PhaseGenerating})

	messages := buildObserverMessages(o.system, o.cfg.Capability, st, citations)
	content, err := o.gen.Stream(ctx, messages, func(token string) {
		emit(Event{Event: EventToken, SessionID: st.SessionID, Role: RoleObserver, Token: token})
	})
	if err != nil {
		return TurnMessage{}, fmt.Errorf("agent %s generation: %w", RoleObserver, err)
	}

	return TurnMessage{
		Role:            RoleObserver,
		Content:         content,
		Structured:      utils.ParseJSONObject(content),
		Retrievals:      []EvidenceItem{},
		CitationSources: citations,
		SearchQueries:   []string{},
		Timestamp:       nowStamp(),
	}, nil
}
