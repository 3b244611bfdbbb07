package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// Manager coordinates all model requests. Debate turns go through the
// critical queue and query planning through the background queue, so a
// burst of planner calls can never starve a turn a caller is waiting on.
type Manager struct {
	criticalQueue   chan *Request
	backgroundQueue chan *Request

	maxConcurrent int
	semaphore     chan struct{} // Limit concurrent requests

	circuitBreaker *CircuitBreaker

	mu      sync.RWMutex
	metrics Metrics

	stopCh chan struct{}
	wg     sync.WaitGroup

	config *Config
}

// NewManager creates a new queue manager
func NewManager(config *Config, circuitBreaker *CircuitBreaker) *Manager {
	m := &Manager{
		criticalQueue:   make(chan *Request, config.CriticalQueueSize),
		backgroundQueue: make(chan *Request, config.BackgroundQueueSize),
		maxConcurrent:   config.MaxConcurrent,
		semaphore:       make(chan struct{}, config.MaxConcurrent),
		circuitBreaker:  circuitBreaker,
		metrics: Metrics{
			CurrentQueueDepth: map[Priority]int{
				PriorityCritical:   0,
				PriorityBackground: 0,
			},
		},
		stopCh: make(chan struct{}),
		config: config,
	}

	m.wg.Add(1)
	go m.dispatcher()

	log.Printf("[LLM Queue] Started with %d concurrent slots", config.MaxConcurrent)
	return m
}

// Submit adds a request to the queue (non-blocking with drop behavior)
func (m *Manager) Submit(req *Request) error {
	var queue chan *Request
	var priorityName string

	if req.Priority == PriorityCritical {
		queue = m.criticalQueue
		priorityName = "critical"
		m.mu.Lock()
		m.metrics.CriticalEnqueued++
		m.mu.Unlock()
	} else {
		queue = m.backgroundQueue
		priorityName = "background"
		m.mu.Lock()
		m.metrics.BackgroundEnqueued++
		m.mu.Unlock()
	}

	select {
	case queue <- req:
		return nil

	default:
		// Queue full - drop request
		m.mu.Lock()
		if req.Priority == PriorityCritical {
			m.metrics.CriticalDropped++
		} else {
			m.metrics.BackgroundDropped++
		}
		m.mu.Unlock()

		log.Printf("[LLM Queue] WARNING: %s queue full, dropping request %s",
			priorityName, req.ID)
		return fmt.Errorf("queue full")
	}
}

// dispatcher selects the next request, critical first. When both queues are
// populated the select alone cannot guarantee priority, so a background pick
// is double-checked against the critical queue before it claims a slot.
func (m *Manager) dispatcher() {
	defer m.wg.Done()

	for {
		var req *Request
		var isCritical bool

		select {
		case <-m.stopCh:
			return
		case req = <-m.criticalQueue:
			isCritical = true
		case req = <-m.backgroundQueue:
			isCritical = false
			select {
			case critReq := <-m.criticalQueue:
				// A critical request arrived between the two selects;
				// swap the background request back into its queue.
				m.backgroundQueue <- req
				req = critReq
				isCritical = true
			default:
			}
		}

		// Wait for a processing slot without losing the ability to stop.
		select {
		case <-m.stopCh:
			if isCritical {
				m.criticalQueue <- req
			} else {
				m.backgroundQueue <- req
			}
			return
		case m.semaphore <- struct{}{}:
		}

		m.wg.Add(1)
		go m.processRequest(req)
	}
}

// processRequest executes the actual model call
func (m *Manager) processRequest(req *Request) {
	defer func() {
		<-m.semaphore // Release slot
		m.wg.Done()

		m.mu.Lock()
		if req.Priority == PriorityCritical {
			m.metrics.CriticalProcessed++
		} else {
			m.metrics.BackgroundProcessed++
		}
		m.mu.Unlock()
	}()

	startTime := time.Now()

	if req.Context.Err() != nil {
		req.ErrorCh <- req.Context.Err()
		return
	}

	ctx, cancel := context.WithTimeout(req.Context, req.Timeout)

	// For streaming, the context must outlive this function: the caller
	// drains the body and releases it through Response.CancelFunc.
	if !req.IsStreaming {
		defer cancel()
	}

	resp, err := m.executeHTTPRequest(ctx, req)
	if err != nil {
		if req.IsStreaming {
			cancel()
		}
		log.Printf("[LLM Queue] Request %s failed after %s: %v",
			req.ID, time.Since(startTime), err)
		req.ErrorCh <- err
		return
	}

	if req.IsStreaming {
		resp.CancelFunc = cancel
	}

	select {
	case req.ResponseCh <- resp:
		log.Printf("[LLM Queue] Request %s completed in %s",
			req.ID, time.Since(startTime))
	case <-ctx.Done():
		if req.IsStreaming {
			cancel()
		}
		log.Printf("[LLM Queue] Request %s timeout after %s",
			req.ID, time.Since(startTime))
		req.ErrorCh <- ctx.Err()
	}
}

// executeHTTPRequest performs the actual HTTP call
func (m *Manager) executeHTTPRequest(ctx context.Context, req *Request) (*Response, error) {
	if m.circuitBreaker != nil && m.circuitBreaker.IsOpen() {
		return nil, ErrCircuitOpen
	}

	jsonData, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", req.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	client := &http.Client{
		Timeout: req.Timeout,
		Transport: &http.Transport{
			ResponseHeaderTimeout: req.Timeout,
			IdleConnTimeout:       req.Timeout,
			MaxIdleConns:          10,
			DisableKeepAlives:     false,
		},
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		if m.circuitBreaker != nil {
			m.circuitBreaker.Call(func() error { return err })
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	if m.circuitBreaker != nil {
		m.circuitBreaker.Call(func() error { return nil })
	}

	// For streaming, hand the open response to the caller to drain.
	if req.IsStreaming {
		return &Response{
			StatusCode: httpResp.StatusCode,
			HTTPResp:   httpResp,
		}, nil
	}

	defer httpResp.Body.Close()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
	}, nil
}

// GetMetrics returns current queue statistics
func (m *Manager) GetMetrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metrics := m.metrics
	metrics.CurrentQueueDepth = map[Priority]int{
		PriorityCritical:   len(m.criticalQueue),
		PriorityBackground: len(m.backgroundQueue),
	}
	return metrics
}

// BreakerStats exposes the circuit breaker state for the metrics surface.
func (m *Manager) BreakerStats() map[string]interface{} {
	if m.circuitBreaker == nil {
		return nil
	}
	return m.circuitBreaker.Stats()
}

// Stop gracefully shuts down the queue
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
	log.Printf("[LLM Queue] Stopped")
}
