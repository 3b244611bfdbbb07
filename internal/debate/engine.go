package debate

import (
	"context"
	"log"
)

// Engine drives one debate session: A and B alternate for up to MaxRounds
// rounds, then C synthesizes once. C always runs, including after an early
// stop and when MaxRounds is zero.
type Engine struct {
	analysis  Agent
	challenge Agent
	observer  Agent
}

func NewEngine(analysis, challenge, observer Agent) *Engine {
	return &Engine{analysis: analysis, challenge: challenge, observer: observer}
}

// CreateState initializes a session whose transcript opens with the topic
// as a user message.
func (e *Engine) CreateState(topic, timeContext, prGoal string, maxRounds int) *State {
	st := NewState(topic, timeContext, prGoal, maxRounds)
	st.Messages = append(st.Messages, TurnMessage{
		Role:            RoleUser,
		Content:         topic,
		Structured:      map[string]interface{}{},
		Retrievals:      []EvidenceItem{},
		CitationSources: []EvidenceItem{},
		SearchQueries:   []string{},
		Timestamp:       nowStamp(),
	})
	return st
}

// Run executes a session to completion, discarding intermediate events.
// The caller reads results off st afterwards.
func (e *Engine) Run(ctx context.Context, st *State) error {
	return e.Stream(ctx, st, func(Event) {})
}

// Stream executes a session, delivering lifecycle events to emit as they
// occur. Turns run strictly sequentially on the calling goroutine; emit is
// never called concurrently.
func (e *Engine) Stream(ctx context.Context, st *State, emit EventSink) error {
	emit(Event{Event: EventSessionStarted, SessionID: st.SessionID, Topic: st.Topic, MaxRounds: st.MaxRounds})

	for round := 0; round < st.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		st.TurnIndex = round
		emit(Event{Event: EventRoundStart, SessionID: st.SessionID, Round: round + 1})

		aMsg, err := e.analysis.TakeTurn(ctx, st, emit)
		if err != nil {
			return err
		}
		st.Messages = append(st.Messages, aMsg)
		emit(Event{Event: EventMessage, SessionID: st.SessionID, Round: round + 1, Role: aMsg.Role, Message: &aMsg})

		bMsg, err := e.challenge.TakeTurn(ctx, st, emit)
		if err != nil {
			return err
		}
		st.Messages = append(st.Messages, bMsg)
		emit(Event{Event: EventMessage, SessionID: st.SessionID, Round: round + 1, Role: bMsg.Role, Message: &bMsg})

		if stopRequested(bMsg) {
			st.StopReason = stopReason(bMsg)
			log.Printf("[Engine] session %s stopped after round %d: %s", st.SessionID, round+1, st.StopReason)
			emit(Event{Event: EventStopped, SessionID: st.SessionID, Round: round + 1, Reason: st.StopReason})
			break
		}
	}

	emit(Event{Event: EventSynthesisStart, SessionID: st.SessionID})
	cMsg, err := e.observer.TakeTurn(ctx, st, emit)
	if err != nil {
		return err
	}
	st.Messages = append(st.Messages, cMsg)
	emit(Event{Event: EventMessage, SessionID: st.SessionID, Role: cMsg.Role, Message: &cMsg})

	emit(Event{Event: EventDone, SessionID: st.SessionID, Messages: st.Messages})
	log.Printf("[Engine] session %s done: %d round(s), %d messages, %d pooled items",
		st.SessionID, st.CompletedRounds(), len(st.Messages), len(st.IntelPool))
	return nil
}

// stopRequested honors the challenger's stop signal only when structured
// output carries a JSON true. String values like "true" do not count.
func stopRequested(m TurnMessage) bool {
	v, ok := m.Structured["stop"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func stopReason(m TurnMessage) string {
	if r, ok := m.Structured["reason"].(string); ok && r != "" {
		return r
	}
	return "challenge agent signalled convergence"
}
