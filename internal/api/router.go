package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"go-debate/internal/archive"
	"go-debate/internal/auth"
	"go-debate/internal/config"
	"go-debate/internal/llm"
)

func SetupRouter(cfg *config.Config, rdb *redis.Client, mgr *llm.Manager, arch *archive.Service) *gin.Engine {
	r := gin.Default()
	subpath := cfg.Server.Subpath // e.g. "/go-debate" or any custom path, always starts with '/'

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)
		group.GET("/config", configHandler(cfg))
		group.GET("/metrics", auth.AuthMiddleware(cfg, rdb, true), MetricsHandler(mgr))

		// Setup: only if no users
		group.POST("/setup", SetupHandler())

		// Auth
		group.POST("/auth/login", LoginHandler(cfg, rdb))
		group.POST("/auth/logout", auth.AuthMiddleware(cfg, rdb, false), LogoutHandler(rdb))
		group.GET("/auth/me", auth.AuthMiddleware(cfg, rdb, false), MeHandler())

		// Admin: users
		group.GET("/users", auth.AuthMiddleware(cfg, rdb, true), ListUsersHandler())
		group.POST("/users", auth.AuthMiddleware(cfg, rdb, true), CreateUserHandler())

		// User self-service
		group.GET("/users/me", auth.AuthMiddleware(cfg, rdb, false), GetMeHandler())
		group.PUT("/users/me", auth.AuthMiddleware(cfg, rdb, false), UpdateMeHandler())
		group.DELETE("/users/me", auth.AuthMiddleware(cfg, rdb, false), DeleteMeHandler())

		// Online users count
		group.GET("/users/online", auth.AuthMiddleware(cfg, rdb, false), OnlineUserCountHandler(rdb))

		// Admin: user by id
		group.GET("/users/:id", auth.AuthMiddleware(cfg, rdb, true), GetUserByIdHandler())
		group.PUT("/users/:id", auth.AuthMiddleware(cfg, rdb, true), UpdateUserByIdHandler())
		group.DELETE("/users/:id", auth.AuthMiddleware(cfg, rdb, true), DeleteUserByIdHandler())

		// Debate sessions
		group.POST("/debates", auth.AuthMiddleware(cfg, rdb, false), RunDebateHandler(cfg, mgr, arch))
		group.GET("/debates", auth.AuthMiddleware(cfg, rdb, false), ListDebatesHandler())
		group.GET("/debates/:id", auth.AuthMiddleware(cfg, rdb, false), GetDebateHandler())
		group.DELETE("/debates/:id", auth.AuthMiddleware(cfg, rdb, false), DeleteDebateHandler())

		// Streaming WebSocket endpoint
		group.GET("/ws/debate", WSDebateHandler(cfg, mgr, arch))
	}
	return r
}
