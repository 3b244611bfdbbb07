package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"go-debate/internal/api"
	"go-debate/internal/config"
	"go-debate/internal/debate"
	"go-debate/internal/llm"
)

// Manual harness: runs one debate from the terminal and prints events as
// they stream. No HTTP server, no database, no archive.
func main() {
	var (
		configPath  = flag.String("config", "config.json", "path to config file")
		topic       = flag.String("topic", "", "debate topic (required)")
		timeContext = flag.String("time", "", "time context, e.g. \"June 2025\"")
		prGoal      = flag.String("goal", "", "PR goal the synthesis steers toward")
		rounds      = flag.Int("rounds", 0, "max rounds (0 = config default)")
	)
	flag.Parse()
	if *topic == "" {
		fmt.Fprintln(os.Stderr, "Usage: console -topic \"...\" [-time \"...\"] [-goal \"...\"] [-rounds N]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *configPath, err)
	}

	mgr := llm.NewManager(llm.DefaultConfig(), llm.NewCircuitBreaker(5, 60*time.Second))
	defer mgr.Stop()

	engine := api.BuildEngine(cfg, mgr)
	maxRounds := *rounds
	if maxRounds <= 0 {
		maxRounds = cfg.Debate.MaxRounds
	}
	st := engine.CreateState(*topic, *timeContext, *prGoal, maxRounds)

	// Ctrl-C cancels the run mid-turn
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Session %s: %q, up to %d round(s)\n", st.SessionID, st.Topic, st.MaxRounds)

	if err := engine.Stream(ctx, st, printEvent); err != nil {
		log.Fatalf("Debate failed: %v", err)
	}
}

func printEvent(ev debate.Event) {
	switch ev.Event {
	case debate.EventRoundStart:
		fmt.Printf("\n--- Round %d ---\n", ev.Round)
	case debate.EventPhase:
		fmt.Printf("\n[%s] %s\n", ev.Role, ev.Phase)
	case debate.EventToken:
		fmt.Print(ev.Token)
	case debate.EventStopped:
		fmt.Printf("\n\nStopped early: %s\n", ev.Reason)
	case debate.EventSynthesisStart:
		fmt.Printf("\n--- Synthesis ---\n")
	case debate.EventDone:
		fmt.Printf("\n\nDone: %d message(s)\n", len(ev.Messages))
	}
}
