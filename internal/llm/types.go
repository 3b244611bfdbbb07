package llm

import (
	"context"
	"net/http"
	"time"
)

// Priority levels (just 2)
type Priority int

const (
	PriorityCritical   Priority = 0 // debate turns a caller is waiting on
	PriorityBackground Priority = 1 // query planning and other deferrable work
)

// Request encapsulates one chat-completion call routed through the queue.
type Request struct {
	ID       string
	Priority Priority
	Context  context.Context

	URL         string
	APIKey      string
	Payload     map[string]interface{}
	IsStreaming bool

	// Response handling
	ResponseCh chan<- *Response
	ErrorCh    chan<- error

	SubmitTime time.Time
	Timeout    time.Duration
}

// Response encapsulates model output. Streaming responses hand the open
// HTTP response to the caller, which must drain it and call CancelFunc.
type Response struct {
	StatusCode int
	Body       []byte
	HTTPResp   *http.Response     // streaming only
	CancelFunc context.CancelFunc // streaming only: releases the request context
}

// Metrics tracks queue performance
type Metrics struct {
	CriticalEnqueued    int64
	CriticalProcessed   int64
	CriticalDropped     int64
	BackgroundEnqueued  int64
	BackgroundProcessed int64
	BackgroundDropped   int64
	CurrentQueueDepth   map[Priority]int
}
