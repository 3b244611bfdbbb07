package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// AgentConfig describes the model endpoint one debate role talks to.
type AgentConfig struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Model       string  `json:"model"`
	APIKey      string  `json:"api_key"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Capability  string  `json:"capability_prompt"`
}

// TavilyConfig points at the web-search provider. Days limits results to
// the last N days when set.
type TavilyConfig struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
	Days   int    `json:"days"`
}

// EnrichConfig controls full-page evidence enrichment.
type EnrichConfig struct {
	Enabled   bool   `json:"enabled"`
	MaxPages  int    `json:"max_pages"`
	MaxBodyKB int    `json:"max_body_kb"`
	UserAgent string `json:"user_agent"`
}

type ArchiveConfig struct {
	Enabled        bool `json:"enabled"`
	EmbeddingModel struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"embedding_model"`
	Qdrant struct {
		URL        string `json:"url"`
		Collection string `json:"collection"`
		APIKey     string `json:"api_key"`
	} `json:"qdrant"`
	VectorSize uint64 `json:"vector_size"`
	SeedLimit  int    `json:"seed_limit"`
}

type Config struct {
	Server struct {
		Host      string `json:"host"`
		Port      int    `json:"port"`
		Subpath   string `json:"subpath"`
		JWTSecret string `json:"jwtSecret"`
	} `json:"server"`
	Postgres struct {
		DSN string `json:"dsn"`
	} `json:"postgres"`
	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	Agents struct {
		Analysis  AgentConfig `json:"analysis"`
		Challenge AgentConfig `json:"challenge"`
		Observer  AgentConfig `json:"observer"`
		Planner   AgentConfig `json:"planner"`
	} `json:"agents"`
	Debate struct {
		MaxRounds     int `json:"max_rounds"`
		MaxQueries    int `json:"max_queries_per_turn"`
		SearchResults int `json:"search_results"`
		SelectTopN    int `json:"select_top_n"`
	} `json:"debate"`
	Tavily  TavilyConfig  `json:"tavily"`
	Enrich  EnrichConfig  `json:"enrich"`
	Archive ArchiveConfig `json:"archive"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads config.json from disk (singleton)
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := json.Unmarshal(raw, &c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		// Minimal validation
		if c.Server.JWTSecret == "" {
			cfgErr = errors.New("jwtSecret must be set in config")
			return
		}
		applyDefaults(&c)
		cfg = &c
	})
	return cfg, cfgErr
}

// applyDefaults fills the knobs most deployments never touch.
func applyDefaults(c *Config) {
	if c.Debate.MaxRounds <= 0 {
		c.Debate.MaxRounds = 3
	}
	if c.Debate.MaxQueries <= 0 {
		c.Debate.MaxQueries = 3
	}
	if c.Debate.SearchResults <= 0 {
		c.Debate.SearchResults = 5
	}
	if c.Debate.SelectTopN <= 0 {
		c.Debate.SelectTopN = 6
	}
	if c.Tavily.URL == "" {
		c.Tavily.URL = "https://api.tavily.com"
	}
	if c.Enrich.MaxPages <= 0 {
		c.Enrich.MaxPages = 3
	}
	if c.Enrich.MaxBodyKB <= 0 {
		c.Enrich.MaxBodyKB = 1024
	}
	if c.Archive.VectorSize == 0 {
		c.Archive.VectorSize = 384
	}
	if c.Archive.SeedLimit <= 0 {
		c.Archive.SeedLimit = 4
	}
	for _, a := range []*AgentConfig{&c.Agents.Analysis, &c.Agents.Challenge, &c.Agents.Observer, &c.Agents.Planner} {
		if a.Temperature == 0 {
			a.Temperature = 0.7
		}
		if a.MaxTokens == 0 {
			a.MaxTokens = 800
		}
	}
	// Planning calls ride the analysis endpoint unless pointed elsewhere.
	if c.Agents.Planner.URL == "" {
		planner := c.Agents.Analysis
		planner.Capability = ""
		c.Agents.Planner = planner
	}
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
