package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go-debate/internal/api"
	"go-debate/internal/archive"
	"go-debate/internal/config"
	"go-debate/internal/db"
	"go-debate/internal/llm"
	redisdb "go-debate/internal/redis"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := db.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}

	rdb := redisdb.NewClient(cfg)
	if err := redisdb.Ping(context.Background(), rdb); err != nil {
		log.Printf("[Main] WARNING: redis not reachable at %s: %v", cfg.Redis.Addr, err)
	}

	mgr := llm.NewManager(llm.DefaultConfig(), llm.NewCircuitBreaker(5, 60*time.Second))

	var arch *archive.Service
	if cfg.Archive.Enabled {
		arch, err = archive.NewService(cfg.Archive)
		if err != nil {
			log.Printf("[Main] WARNING: failed to initialize evidence archive: %v", err)
		} else {
			log.Printf("[Main] ✓ Evidence archive ready (collection: %s)", cfg.Archive.Qdrant.Collection)
		}
	} else {
		log.Printf("[Main] Evidence archive disabled in config")
	}

	r := api.SetupRouter(cfg, rdb, mgr, arch)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s%s\n", addr, cfg.Server.Subpath)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
