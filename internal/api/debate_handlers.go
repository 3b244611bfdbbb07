package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"go-debate/internal/archive"
	"go-debate/internal/config"
	"go-debate/internal/db"
	"go-debate/internal/debate"
	"go-debate/internal/llm"
	"go-debate/internal/search"
	"go-debate/internal/session"
)

// Hard ceiling on rounds per session, whatever the client or config asks for.
const maxRoundsCap = 8

type debateRequest struct {
	Topic       string `json:"topic" binding:"required"`
	TimeContext string `json:"time_context"`
	PRGoal      string `json:"pr_goal"`
	MaxRounds   int    `json:"max_rounds"`
}

// BuildEngine assembles a debate engine from config: one model client per
// role on the critical lane, planner calls on the background lane, and a
// shared search tool. Package variable so handler tests can swap in a stub.
var BuildEngine = func(cfg *config.Config, mgr *llm.Manager) *debate.Engine {
	searchTool := search.NewTool(search.NewClient(cfg.Tavily), search.NewEnricher(cfg.Enrich))
	planner := debate.NewQueryPlanner(
		llm.NewClient(mgr, cfg.Agents.Planner, llm.PriorityBackground),
		cfg.Debate.MaxQueries,
	)
	turnCfg := func(a config.AgentConfig) debate.TurnConfig {
		return debate.TurnConfig{
			MaxResults: cfg.Debate.SearchResults,
			TopN:       cfg.Debate.SelectTopN,
			Capability: a.Capability,
		}
	}
	analysis := debate.NewAnalysisAgent(
		llm.NewClient(mgr, cfg.Agents.Analysis, llm.PriorityCritical),
		searchTool, planner, turnCfg(cfg.Agents.Analysis))
	challenge := debate.NewChallengeAgent(
		llm.NewClient(mgr, cfg.Agents.Challenge, llm.PriorityCritical),
		searchTool, planner, turnCfg(cfg.Agents.Challenge))
	observer := debate.NewObserverAgent(
		llm.NewClient(mgr, cfg.Agents.Observer, llm.PriorityCritical),
		turnCfg(cfg.Agents.Observer))
	return debate.NewEngine(analysis, challenge, observer)
}

func resolveRounds(requested, configured int) int {
	rounds := requested
	if rounds <= 0 {
		rounds = configured
	}
	if rounds > maxRoundsCap {
		rounds = maxRoundsCap
	}
	return rounds
}

func sessionSummary(rec *session.Record) gin.H {
	return gin.H{
		"session_id":   rec.SessionID,
		"topic":        rec.Topic,
		"time_context": rec.TimeContext,
		"pr_goal":      rec.PRGoal,
		"max_rounds":   rec.MaxRounds,
		"rounds_run":   rec.RoundsRun,
		"stop_reason":  rec.StopReason,
		"seeded":       rec.Seeded,
		"createdAt":    rec.CreatedAt,
	}
}

// POST /debates: run a full session and return the transcript.
func RunDebateHandler(cfg *config.Config, mgr *llm.Manager, arch *archive.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := getUserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Not authenticated"}})
			return
		}
		var req debateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Topic is required"}})
			return
		}

		engine := BuildEngine(cfg, mgr)
		st := engine.CreateState(req.Topic, req.TimeContext, req.PRGoal, resolveRounds(req.MaxRounds, cfg.Debate.MaxRounds))
		arch.Seed(c.Request.Context(), st)

		if err := engine.Run(c.Request.Context(), st); err != nil {
			log.Printf("[API] WARNING: debate session %s failed: %v", st.SessionID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "Debate failed: " + err.Error()}})
			return
		}

		// A failed save still returns the transcript; the run itself succeeded.
		if _, err := session.NewStore(db.DB).Save(c.Request.Context(), st, userId); err != nil {
			log.Printf("[API] WARNING: failed to save session %s: %v", st.SessionID, err)
		}
		arch.ArchiveAsync(st)

		c.JSON(http.StatusOK, gin.H{
			"session_id":  st.SessionID,
			"topic":       st.Topic,
			"messages":    st.Messages,
			"stop_reason": st.StopReason,
			"rounds_run":  st.CompletedRounds(),
			"seeded":      st.Seeded,
		})
	}
}

// GET /debates: list the caller's sessions, newest first, without payloads.
func ListDebatesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := getUserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Not authenticated"}})
			return
		}
		records, err := session.NewStore(db.DB).ListByUser(c.Request.Context(), userId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "List error"}})
			return
		}
		result := make([]gin.H, 0, len(records))
		for i := range records {
			result = append(result, sessionSummary(&records[i]))
		}
		c.JSON(http.StatusOK, result)
	}
}

// GET /debates/:id: full record, owner-scoped.
func GetDebateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := getUserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Not authenticated"}})
			return
		}
		rec, err := session.NewStore(db.DB).Get(c.Request.Context(), userId, c.Param("id"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Session not found"}})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "DB error"}})
			return
		}
		resp := sessionSummary(rec)
		resp["messages"] = rec.Messages
		resp["intel_pool"] = rec.IntelPool
		resp["searched_queries"] = rec.SearchedQueries
		c.JSON(http.StatusOK, resp)
	}
}

// DELETE /debates/:id: owner-scoped soft delete.
func DeleteDebateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := getUserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Not authenticated"}})
			return
		}
		err := session.NewStore(db.DB).Delete(c.Request.Context(), userId, c.Param("id"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Session not found"}})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Delete error"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
	}
}
