package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-debate/internal/config"
	"go-debate/internal/llm"
)

// Helper to extract user ID from context
func getUserIDFromContext(c *gin.Context) (uint, bool) {
	idVal, exists := c.Get("userId")
	if !exists {
		return 0, false
	}
	switch v := idVal.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

// GET /health
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GET /config
func configHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only return non-sensitive config fields
		agents := gin.H{}
		for role, a := range map[string]config.AgentConfig{
			"analysis":  cfg.Agents.Analysis,
			"challenge": cfg.Agents.Challenge,
			"observer":  cfg.Agents.Observer,
			"planner":   cfg.Agents.Planner,
		} {
			agents[role] = gin.H{"name": a.Name, "model": a.Model}
		}
		c.JSON(http.StatusOK, gin.H{
			"server": gin.H{
				"host":    cfg.Server.Host,
				"port":    cfg.Server.Port,
				"subpath": cfg.Server.Subpath,
			},
			"agents": agents,
			"debate": gin.H{
				"max_rounds":           cfg.Debate.MaxRounds,
				"max_queries_per_turn": cfg.Debate.MaxQueries,
				"search_results":       cfg.Debate.SearchResults,
				"select_top_n":         cfg.Debate.SelectTopN,
			},
			"enrich_enabled":  cfg.Enrich.Enabled,
			"archive_enabled": cfg.Archive.Enabled,
		})
	}
}

// MetricsHandler reports queue and circuit breaker state for the model lanes.
func MetricsHandler(mgr *llm.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := mgr.GetMetrics()
		c.JSON(http.StatusOK, gin.H{
			"queues": gin.H{
				"critical": gin.H{
					"enqueued":  m.CriticalEnqueued,
					"processed": m.CriticalProcessed,
					"dropped":   m.CriticalDropped,
					"depth":     m.CurrentQueueDepth[llm.PriorityCritical],
				},
				"background": gin.H{
					"enqueued":  m.BackgroundEnqueued,
					"processed": m.BackgroundProcessed,
					"dropped":   m.BackgroundDropped,
					"depth":     m.CurrentQueueDepth[llm.PriorityBackground],
				},
			},
			"circuit_breaker": mgr.BreakerStats(),
		})
	}
}
