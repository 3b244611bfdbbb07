package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-debate/internal/config"
	"go-debate/internal/llm"

	"github.com/gin-gonic/gin"
)

func TestHealthHandler_ReturnsOk(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", healthHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if !contains(w.Body.String(), "ok") {
		t.Errorf("expected response to contain 'ok', got: %s", w.Body.String())
	}
}

func TestConfigHandler_OmitsSecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.JWTSecret = "super-secret-value"
	cfg.Server.Subpath = "/debate"
	cfg.Agents.Analysis = config.AgentConfig{Name: "analysis", Model: "qwen2.5-14b", APIKey: "agent-key-value"}
	cfg.Tavily.APIKey = "tavily-key-value"
	cfg.Debate.MaxRounds = 3

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/config", configHandler(cfg))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/config", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !contains(body, "qwen2.5-14b") || !contains(body, "max_rounds") {
		t.Errorf("expected agent and debate fields, got: %s", body)
	}
	for _, secret := range []string{"super-secret-value", "agent-key-value", "tavily-key-value"} {
		if contains(body, secret) {
			t.Errorf("config response leaked %q: %s", secret, body)
		}
	}
}

func TestMetricsHandler_ReportsQueuesAndBreaker(t *testing.T) {
	mgr := llm.NewManager(llm.DefaultConfig(), llm.NewCircuitBreaker(3, time.Minute))
	defer mgr.Stop()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", MetricsHandler(mgr))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !contains(body, "critical") || !contains(body, "background") || !contains(body, "circuit_breaker") {
		t.Errorf("expected queue and breaker sections, got: %s", body)
	}
}
