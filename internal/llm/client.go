package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"go-debate/internal/config"
)

// endTokens are sentinel strings some model servers leak as literal output
// at the end of a stream; they are filtered from accumulated text.
var endTokens = []string{
	"<|end_of_text|>",
	"<|end|>",
	"<|assistant|>",
	"<|eot_id|>",
	"<|im_end|>",
	"[|endofturn|]",
}

// Client adapts one configured agent endpoint to the debate package's
// generation contract. Completions and streams both ride the priority
// queue; a stream is drained on the caller's goroutine once the queue
// grants it a slot.
type Client struct {
	manager  *Manager
	cfg      config.AgentConfig
	priority Priority
	timeout  time.Duration
}

// NewClient creates a queue-backed client for one agent endpoint.
func NewClient(manager *Manager, cfg config.AgentConfig, priority Priority) *Client {
	timeout := manager.config.CriticalTimeout
	if priority == PriorityBackground {
		timeout = manager.config.BackgroundTimeout
	}
	return &Client{manager: manager, cfg: cfg, priority: priority, timeout: timeout}
}

func (c *Client) endpoint() string {
	return strings.TrimRight(c.cfg.URL, "/") + "/chat/completions"
}

func (c *Client) buildPayload(messages []map[string]string, stream bool) map[string]interface{} {
	payload := map[string]interface{}{
		"model":       c.cfg.Model,
		"messages":    messages,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
	}
	if stream {
		payload["stream"] = true
	}
	return payload
}

// Complete submits a blocking completion and returns the message content.
func (c *Client) Complete(ctx context.Context, messages []map[string]string) (string, error) {
	respCh := make(chan *Response, 1)
	errCh := make(chan error, 1)

	req := &Request{
		ID:         fmt.Sprintf("%d_%d", c.priority, time.Now().UnixNano()),
		Priority:   c.priority,
		Context:    ctx,
		URL:        c.endpoint(),
		APIKey:     c.cfg.APIKey,
		Payload:    c.buildPayload(messages, false),
		ResponseCh: respCh,
		ErrorCh:    errCh,
		SubmitTime: time.Now(),
		Timeout:    c.timeout,
	}

	if err := c.manager.Submit(req); err != nil {
		return "", fmt.Errorf("failed to submit: %w", err)
	}

	select {
	case resp := <-respCh:
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("model returned status %d", resp.StatusCode)
		}
		return parseCompletion(resp.Body)
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func parseCompletion(body []byte) (string, error) {
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion carried no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// Stream submits a streaming completion, forwards each content fragment to
// onToken and returns the accumulated text. A cancelled caller context
// surfaces as an error alongside whatever text arrived first.
func (c *Client) Stream(ctx context.Context, messages []map[string]string, onToken func(string)) (string, error) {
	respCh := make(chan *Response, 1)
	errCh := make(chan error, 1)

	req := &Request{
		ID:          fmt.Sprintf("%d_stream_%d", c.priority, time.Now().UnixNano()),
		Priority:    c.priority,
		Context:     ctx,
		URL:         c.endpoint(),
		APIKey:      c.cfg.APIKey,
		Payload:     c.buildPayload(messages, true),
		IsStreaming: true,
		ResponseCh:  respCh,
		ErrorCh:     errCh,
		SubmitTime:  time.Now(),
		Timeout:     c.timeout,
	}

	if err := c.manager.Submit(req); err != nil {
		return "", fmt.Errorf("failed to submit: %w", err)
	}

	var resp *Response
	select {
	case resp = <-respCh:
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer resp.CancelFunc()
	defer resp.HTTPResp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.HTTPResp.Body)
	var builder strings.Builder
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if len(line) < 7 || !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := line[6:]
		if data == "[DONE]" {
			break
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
			FinishReason string `json:"finish_reason"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			log.Printf("[LLM Queue] stream decode error: %v", err)
			continue
		}

		if len(chunk.Choices) > 0 {
			token := chunk.Choices[0].Delta.Content
			if token != "" && !isEndToken(token) {
				builder.WriteString(token)
				if onToken != nil {
					onToken(token)
				}
			}
		}
		if chunk.FinishReason != "" {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return builder.String(), err
	}
	return builder.String(), nil
}

func isEndToken(token string) bool {
	for _, t := range endTokens {
		if token == t {
			return true
		}
	}
	return false
}
