package debate

// Event types emitted by the engine, in lifecycle order. This vocabulary is
// the engine's externally observable contract; transports relay it verbatim.
const (
	EventSessionStarted = "session_started"
	EventRoundStart     = "round_start"
	EventPhase          = "phase"
	EventToken          = "token"
	EventMessage        = "message"
	EventStopped        = "stopped"
	EventSynthesisStart = "synthesis_start"
	EventDone           = "done"
)

// Event is one engine lifecycle notification. Event and SessionID are always
// set; the remaining fields are populated per event type.
type Event struct {
	Event     string        `json:"event"`
	SessionID string        `json:"session_id"`
	Topic     string        `json:"topic,omitempty"`      // session_started
	MaxRounds int           `json:"max_rounds,omitempty"` // session_started
	Round     int           `json:"round,omitempty"`      // 1-based
	Role      string        `json:"role,omitempty"`       // phase, token
	Phase     string        `json:"phase,omitempty"`      // searching or generating
	Token     string        `json:"token,omitempty"`      // one generation fragment
	Reason    string        `json:"reason,omitempty"`     // stopped
	Message   *TurnMessage  `json:"message,omitempty"`    // message
	Messages  []TurnMessage `json:"messages,omitempty"`   // done
}

// EventSink consumes engine events. Run-to-completion mode drains the same
// stream with a discarding sink.
type EventSink func(Event)
