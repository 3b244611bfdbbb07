package search

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-debate/internal/config"
	"go-debate/internal/debate"
)

// Client handles communication with the Tavily search API.
type Client struct {
	baseURL    string
	apiKey     string
	days       int
	httpClient *http.Client
}

// NewClient creates a Tavily client. A configured day window is clamped to
// 1-365; zero leaves the search unrestricted by recency.
func NewClient(cfg config.TavilyConfig) *Client {
	days := cfg.Days
	if days < 0 {
		days = 0
	}
	if days > 365 {
		days = 365
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		days:       days,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Search performs one query and maps provider hits onto evidence items.
func (c *Client) Search(ctx context.Context, query string, maxResults int, domains []string) ([]debate.EvidenceItem, error) {
	payload := map[string]interface{}{
		"api_key":        c.apiKey,
		"query":          query,
		"max_results":    maxResults,
		"include_answer": false,
	}
	if len(domains) > 0 {
		payload["include_domains"] = domains
	}
	if c.days > 0 {
		payload["days"] = c.days
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var out struct {
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	items := make([]debate.EvidenceItem, 0, len(out.Results))
	for i, r := range out.Results {
		items = append(items, debate.EvidenceItem{
			ID:      evidenceID(r.URL, i),
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}
	return items, nil
}

// evidenceID fingerprints a result by its URL so the same document found by
// different queries collapses to one pool entry. Results without a URL get
// a positional placeholder.
func evidenceID(url string, index int) string {
	src := url
	if src == "" {
		src = fmt.Sprintf("result-%d", index)
	}
	sum := md5.Sum([]byte(src))
	return hex.EncodeToString(sum[:])[:12]
}
