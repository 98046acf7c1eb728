// cmd/kallipolis/main.go
//
// Entry point for the kallipolis simulator.
//
// Flow:
// 1. Initialize the .kallipolis folder in the working directory
// 2. Load configuration (yaml file, then environment overrides)
// 3. Run one session per crisis prompt, streaming the transcript to the
//    console or the TUI, and persisting it as JSONL

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/kingrea/kallipolis/internal/config"
	"github.com/kingrea/kallipolis/internal/council"
	"github.com/kingrea/kallipolis/internal/logbook"
	"github.com/kingrea/kallipolis/internal/runtime/ollama"
	"github.com/kingrea/kallipolis/internal/runtime/script"
	"github.com/kingrea/kallipolis/internal/scenario"
	"github.com/kingrea/kallipolis/internal/session"
	"github.com/kingrea/kallipolis/internal/transcript"
	"github.com/kingrea/kallipolis/internal/tui"
)

const batchPause = 2 * time.Second

func main() {
	crisis := flag.String("crisis", "", "single crisis prompt for the arbiter (default: the fire scenario)")
	batch := flag.Bool("batch", false, "run every scenario in the catalog, one session each")
	scenarios := flag.String("scenarios", "", "path to a custom scenario catalog (yaml)")
	useTUI := flag.Bool("tui", false, "watch the transcript in a live viewer")
	dryRun := flag.Bool("dry-run", false, "replay the built-in scripted session instead of calling a model")
	flag.Parse()

	if err := run(*crisis, *batch, *scenarios, *useTUI, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "kallipolis: %v\n", err)
		os.Exit(1)
	}
}

func run(crisis string, batch bool, scenariosPath string, useTUI, dryRun bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	if err := config.InitDir(cwd); err != nil {
		return fmt.Errorf("initialize %s: %w", config.Dir, err)
	}
	cfg, err := config.New(cwd)
	if err != nil {
		return err
	}

	lb, err := logbook.New(cfg.LogbookPath())
	if err != nil {
		return err
	}
	defer lb.Close()

	catalog, err := selectScenarios(cfg, crisis, batch, scenariosPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	roster := &cfg.Session.Roster
	for i, sc := range catalog {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(batchPause):
			}
		}
		if len(catalog) > 1 {
			fmt.Printf("\n=== scenario %d/%d: %s ===\n", i+1, len(catalog), sc.Name)
		}
		if err := runOne(ctx, cfg, lb, roster, sc, useTUI, dryRun); err != nil {
			return err
		}
	}
	return nil
}

func selectScenarios(cfg *config.Config, crisis string, batch bool, override string) ([]scenario.Scenario, error) {
	if !batch {
		if crisis == "" {
			crisis = "God, create a crisis involving a massive fire."
		}
		return []scenario.Scenario{{Name: "custom", Prompt: crisis}}, nil
	}
	path := override
	if path == "" {
		path = cfg.ScenariosPath()
	}
	if path == "" {
		return scenario.BuiltIn(), nil
	}
	return scenario.Load(path)
}

func newRuntime(cfg *config.Config, roster *council.Roster, dryRun bool) (session.Runtime, error) {
	if dryRun {
		return script.Demo(roster), nil
	}
	opts, err := ollama.FromEnv(ollama.Options{
		Host:        cfg.Session.Model.Host,
		Model:       cfg.Session.Model.Name,
		Temperature: *cfg.Session.Model.Temperature,
		Timeout:     time.Duration(cfg.Session.Model.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return ollama.New(opts, roster, cfg.Session.Markers, *cfg.Session.Budget)
}

func runOne(ctx context.Context, cfg *config.Config, lb *logbook.Logbook, roster *council.Roster, sc scenario.Scenario, useTUI, dryRun bool) error {
	// A fresh runtime per session: the scripted demo is consumed as it
	// plays, and the ollama client is cheap to rebuild.
	rt, err := newRuntime(cfg, roster, dryRun)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	store, err := transcript.NewStore(cfg.LogsDir(), runID)
	if err != nil {
		return err
	}
	defer store.Close()

	params := session.Params{
		Roster:              roster,
		Markers:             cfg.Session.Markers,
		Budget:              *cfg.Session.Budget,
		TurnCap:             cfg.Session.TurnCap,
		RequireFullCoverage: cfg.Session.RequireFullCoverage,
		Runtime:             rt,
		Logbook:             lb,
		RunID:               runID,
	}
	seed := "Simulation Start. " + sc.Prompt

	if useTUI {
		return runWithTUI(ctx, params, store, roster, sc, seed, tea.WithAltScreen())
	}

	params.Sinks = []transcript.Sink{store, transcript.NewConsole(roster, os.Stdout)}
	s, err := session.New(params)
	if err != nil {
		return err
	}
	result, err := s.Run(ctx, seed)
	if err != nil {
		return err
	}
	printSummary(result, store.Path())
	return nil
}

func runWithTUI(ctx context.Context, params session.Params, store *transcript.Store, roster *council.Roster, sc scenario.Scenario, seed string, opts ...tea.ProgramOption) error {
	program := tea.NewProgram(tui.New(roster, "kallipolis: "+sc.Name), opts...)
	params.Sinks = []transcript.Sink{store, tui.NewProgramSink(program)}
	s, err := session.New(params)
	if err != nil {
		return err
	}

	// Quitting the viewer must also stop the session: the caller closes
	// the transcript store as soon as we return, and batch mode starts
	// the next session right after.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err := s.Run(runCtx, seed)
		if err != nil {
			program.Send(tui.ErrorMsg{Err: err})
			return
		}
		program.Send(tui.ResultMsg(result))
	}()

	_, runErr := program.Run()
	cancel()
	<-done
	if runErr != nil {
		return fmt.Errorf("run viewer: %w", runErr)
	}
	return nil
}

func printSummary(result session.Result, transcriptPath string) {
	fmt.Printf("\n--- RESULT (%s) ---\n", result.RunID)
	if result.Outcome == session.OutcomeSuccess {
		fmt.Printf("SUCCESS: total %d allocated (stop=%s, turns=%d)\n", result.Total, result.StopReason, result.Turns)
		for _, id := range result.Allocation.Roles() {
			fmt.Printf("  %s=%d\n", id, result.Allocation[id])
		}
	} else {
		fmt.Printf("FAILURE: %s (stop=%s, turns=%d)\n", result.Reason, result.StopReason, result.Turns)
	}
	fmt.Printf("transcript: %s\n", transcriptPath)
}
