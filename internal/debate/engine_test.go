package debate

import (
	"context"
	"testing"
)

func fixedGen(text string) *stubGen {
	return &stubGen{streamFn: func(_ context.Context, _ []map[string]string, onToken func(string)) (string, error) {
		onToken(text)
		return text, nil
	}}
}

func testEngine(genA, genB, genC Generator) *Engine {
	return NewEngine(
		NewAnalysisAgent(genA, nil, nil, TurnConfig{}),
		NewChallengeAgent(genB, nil, nil, TurnConfig{}),
		NewObserverAgent(genC, TurnConfig{}),
	)
}

func transcriptRoles(st *State) []string {
	roles := make([]string, 0, len(st.Messages))
	for _, m := range st.Messages {
		roles = append(roles, m.Role)
	}
	return roles
}

func TestEngineRunsConfiguredRoundsThenSynthesizes(t *testing.T) {
	e := testEngine(fixedGen("a-text"), fixedGen("b-text"), fixedGen("c-text"))
	st := e.CreateState("acme recall", "", "", 2)

	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{RoleUser, RoleAnalysis, RoleChallenge, RoleAnalysis, RoleChallenge, RoleObserver}
	got := transcriptRoles(st)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if st.StopReason != "" {
		t.Errorf("unexpected stop reason %q", st.StopReason)
	}
	if st.CompletedRounds() != 2 {
		t.Errorf("expected 2 completed rounds, got %d", st.CompletedRounds())
	}
}

func TestEngineStopsOnChallengeSignal(t *testing.T) {
	bCalls := 0
	genB := &stubGen{streamFn: func(_ context.Context, _ []map[string]string, _ func(string)) (string, error) {
		bCalls++
		if bCalls == 2 {
			return `{"stop": true, "reason": "no dispute remains"}`, nil
		}
		return "pushback", nil
	}}
	e := testEngine(fixedGen("a-text"), genB, fixedGen("c-text"))
	st := e.CreateState("acme recall", "", "", 3)

	var events []Event
	if err := e.Stream(context.Background(), st, func(ev Event) { events = append(events, ev) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two rounds ran, the third was skipped, the observer still closed out.
	want := []string{RoleUser, RoleAnalysis, RoleChallenge, RoleAnalysis, RoleChallenge, RoleObserver}
	got := transcriptRoles(st)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if st.StopReason != "no dispute remains" {
		t.Errorf("unexpected stop reason %q", st.StopReason)
	}

	var stopped *Event
	rounds := 0
	for i, ev := range events {
		switch ev.Event {
		case EventStopped:
			stopped = &events[i]
		case EventRoundStart:
			rounds++
		}
	}
	if stopped == nil {
		t.Fatal("expected a stopped event")
	}
	if stopped.Reason != "no dispute remains" || stopped.Round != 2 {
		t.Errorf("unexpected stopped event: %+v", stopped)
	}
	if rounds != 2 {
		t.Errorf("expected 2 round_start events, got %d", rounds)
	}
}

func TestEngineStopReasonDefault(t *testing.T) {
	genB := &stubGen{streamFn: func(_ context.Context, _ []map[string]string, _ func(string)) (string, error) {
		return `{"stop": true}`, nil
	}}
	e := testEngine(fixedGen("a-text"), genB, fixedGen("c-text"))
	st := e.CreateState("acme recall", "", "", 3)

	if err := e.Run(context.Background(), st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.StopReason != "challenge agent signalled convergence" {
		t.Errorf("unexpected default reason %q", st.StopReason)
	}
	if st.CompletedRounds() != 1 {
		t.Errorf("expected stop after round 1, got %d rounds", st.CompletedRounds())
	}
}

func TestEngineZeroRoundsStillRunsObserver(t *testing.T) {
	e := testEngine(fixedGen("a-text"), fixedGen("b-text"), fixedGen("c-text"))
	st := e.CreateState("acme recall", "", "", 0)

	var events []Event
	if err := e.Stream(context.Background(), st, func(ev Event) { events = append(events, ev) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := transcriptRoles(st)
	if len(got) != 2 || got[0] != RoleUser || got[1] != RoleObserver {
		t.Fatalf("expected user+observer transcript, got %v", got)
	}
	for _, ev := range events {
		if ev.Event == EventRoundStart {
			t.Error("no rounds should start when max rounds is zero")
		}
	}
}

func TestEngineEventSequence(t *testing.T) {
	e := testEngine(fixedGen("a-text"), fixedGen("b-text"), fixedGen("c-text"))
	st := e.CreateState("acme recall", "", "", 1)

	var events []Event
	if err := e.Stream(context.Background(), st, func(ev Event) { events = append(events, ev) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		EventSessionStarted,
		EventRoundStart,
		EventPhase, EventPhase, EventToken, EventMessage, // agent A
		EventPhase, EventPhase, EventToken, EventMessage, // agent B
		EventSynthesisStart,
		EventPhase, EventToken, EventMessage, // agent C
		EventDone,
	}
	if len(events) != len(want) {
		names := make([]string, 0, len(events))
		for _, ev := range events {
			names = append(names, ev.Event)
		}
		t.Fatalf("expected %d events %v, got %v", len(want), want, names)
	}
	for i := range want {
		if events[i].Event != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i].Event)
		}
		if events[i].SessionID != st.SessionID {
			t.Errorf("event %d missing session id", i)
		}
	}

	first := events[0]
	if first.Topic != "acme recall" || first.MaxRounds != 1 {
		t.Errorf("session_started payload incomplete: %+v", first)
	}
	for _, ev := range events {
		if ev.Event == EventMessage && (ev.Message == nil || ev.Message.Content == "") {
			t.Errorf("message event without full message: %+v", ev)
		}
	}
	last := events[len(events)-1]
	if len(last.Messages) != 4 {
		t.Errorf("done event should carry the full transcript, got %d messages", len(last.Messages))
	}
}

func TestEngineStreamAndRunProduceSameTranscript(t *testing.T) {
	build := func() (*Engine, *State) {
		e := testEngine(fixedGen("a-text"), fixedGen("b-text"), fixedGen("c-text"))
		return e, e.CreateState("acme recall", "ctx", "goal", 2)
	}

	e1, st1 := build()
	if err := e1.Run(context.Background(), st1); err != nil {
		t.Fatalf("run mode failed: %v", err)
	}
	e2, st2 := build()
	if err := e2.Stream(context.Background(), st2, func(Event) {}); err != nil {
		t.Fatalf("stream mode failed: %v", err)
	}

	if len(st1.Messages) != len(st2.Messages) {
		t.Fatalf("mode transcripts differ in length: %d vs %d", len(st1.Messages), len(st2.Messages))
	}
	for i := range st1.Messages {
		if st1.Messages[i].Role != st2.Messages[i].Role || st1.Messages[i].Content != st2.Messages[i].Content {
			t.Errorf("message %d differs between modes", i)
		}
	}
}

func TestEngineGenerationFailurePropagates(t *testing.T) {
	genA := &stubGen{streamFn: func(_ context.Context, _ []map[string]string, _ func(string)) (string, error) {
		return "", context.DeadlineExceeded
	}}
	e := testEngine(genA, fixedGen("b-text"), fixedGen("c-text"))
	st := e.CreateState("acme recall", "", "", 2)

	if err := e.Run(context.Background(), st); err == nil {
		t.Fatal("expected generation failure to propagate")
	}
	if len(st.Messages) != 1 {
		t.Errorf("expected only the opening message, got %d", len(st.Messages))
	}
}

func TestEngineHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := testEngine(fixedGen("a-text"), fixedGen("b-text"), fixedGen("c-text"))
	st := e.CreateState("acme recall", "", "", 2)

	if err := e.Run(ctx, st); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(st.Messages) != 1 {
		t.Errorf("expected no agent turns after cancellation, got %d messages", len(st.Messages))
	}
}

func TestStopRequestedRequiresBooleanTrue(t *testing.T) {
	cases := []struct {
		structured map[string]interface{}
		want       bool
	}{
		{map[string]interface{}{"stop": true}, true},
		{map[string]interface{}{"stop": false}, false},
		{map[string]interface{}{"stop": "true"}, false},
		{map[string]interface{}{"stop": 1.0}, false},
		{map[string]interface{}{}, false},
	}
	for _, c := range cases {
		if got := stopRequested(TurnMessage{Structured: c.structured}); got != c.want {
			t.Errorf("stopRequested(%v) = %v, want %v", c.structured, got, c.want)
		}
	}
}
