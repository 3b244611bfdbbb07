package llm

import "time"

// Config controls queue behavior
type Config struct {
	// Concurrency control
	MaxConcurrent int // Total concurrent model requests across all agents

	// Queue sizes
	CriticalQueueSize   int // debate turns (small, rarely queues)
	BackgroundQueueSize int // planner calls (larger buffer)

	// Timeouts
	CriticalTimeout   time.Duration
	BackgroundTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrent:       2, // Start conservative
		CriticalQueueSize:   20,
		BackgroundQueueSize: 100,
		CriticalTimeout:     360 * time.Second,
		BackgroundTimeout:   360 * time.Second,
	}
}
