package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kingrea/kallipolis/internal/council"
	"github.com/kingrea/kallipolis/internal/intent"
	"github.com/kingrea/kallipolis/internal/runtime/script"
	"github.com/kingrea/kallipolis/internal/selector"
	"github.com/kingrea/kallipolis/internal/transcript"
)

type runtimeFunc func(ctx context.Context, role council.RoleID, history []transcript.Message) (string, error)

func (f runtimeFunc) Generate(ctx context.Context, role council.RoleID, history []transcript.Message) (string, error) {
	return f(ctx, role, history)
}

func newSession(t *testing.T, rt Runtime, opts ...func(*Params)) *Session {
	t.Helper()
	params := Params{
		Roster:  council.Default(),
		Markers: intent.DefaultMarkers(),
		Budget:  700,
		TurnCap: 50,
		Runtime: rt,
	}
	for _, opt := range opts {
		opt(&params)
	}
	s, err := New(params)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestRunScriptedSessionSucceeds(t *testing.T) {
	roster := council.Default()
	var seen []transcript.Message
	sink := sinkFunc(func(m transcript.Message) error {
		seen = append(seen, m)
		return nil
	})
	s := newSession(t, script.Demo(roster), func(p *Params) {
		p.Sinks = []transcript.Sink{sink}
	})

	result, err := s.Run(context.Background(), "Simulation Start. God, create a crisis involving a drought.")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Total != 630 || result.Overage != 0 {
		t.Fatalf("unexpected totals: %+v", result)
	}
	if result.StopReason != selector.ReasonMarker {
		t.Fatalf("expected marker stop, got %q", result.StopReason)
	}
	if len(result.Allocation) != 7 {
		t.Fatalf("expected full allocation, got %v", result.Allocation)
	}
	// Seed + 8 scripted turns, sequence strictly increasing.
	if len(seen) != 9 {
		t.Fatalf("expected 9 recorded messages, got %d", len(seen))
	}
	for i, msg := range seen {
		if msg.Seq != i+1 {
			t.Fatalf("sequence broken at %d: %+v", i, msg)
		}
	}
	if seen[0].Speaker != transcript.SeedSpeaker {
		t.Fatalf("seed not recorded first: %+v", seen[0])
	}
}

func TestRunStopsAtTurnCap(t *testing.T) {
	calls := 0
	rt := runtimeFunc(func(ctx context.Context, role council.RoleID, history []transcript.Message) (string, error) {
		calls++
		return "I continue to deliberate in silence.", nil
	})
	s := newSession(t, rt, func(p *Params) { p.TurnCap = 6 })

	result, err := s.Run(context.Background(), "Simulation Start.")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.StopReason != selector.ReasonCap {
		t.Fatalf("expected cap stop, got %q", result.StopReason)
	}
	if result.Outcome != OutcomeFailure || result.Reason != "no directive found" {
		t.Fatalf("expected no-directive failure, got %+v", result)
	}
	if result.Turns != 6 {
		t.Fatalf("expected history to stop at the cap, got %d turns", result.Turns)
	}
	// Seed counts toward the cap, so the runtime was asked one fewer time.
	if calls != 5 {
		t.Fatalf("expected 5 generation calls, got %d", calls)
	}
}

func TestRunOverBudget(t *testing.T) {
	roster := council.Default()
	rt := script.New(
		script.Step{Role: roster.Arbiter, Text: `{"crisis": "famine"}`},
		script.Step{Role: roster.Coordinator, Text: "SET_SALARY\nFarmer=400\nBuilder=301"},
	)
	result, err := newSession(t, rt).Run(context.Background(), "Simulation Start.")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Outcome != OutcomeFailure || result.Overage != 1 || result.Total != 701 {
		t.Fatalf("expected overage 1, got %+v", result)
	}
	if !strings.Contains(result.Reason, "over budget by 1") {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
}

func TestRunFormatError(t *testing.T) {
	roster := council.Default()
	rt := script.New(
		script.Step{Role: roster.Arbiter, Text: `{"crisis": "storm"}`},
		script.Step{Role: roster.Coordinator, Text: "SET_SALARY shall be decided tomorrow, when the wind calms."},
	)
	result, err := newSession(t, rt).Run(context.Background(), "Simulation Start.")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Outcome != OutcomeFailure || !strings.HasPrefix(result.Reason, "format error") {
		t.Fatalf("expected format error, got %+v", result)
	}
}

func TestRunSeparateAllocationMarker(t *testing.T) {
	roster := council.Default()
	markers := intent.DefaultMarkers()
	markers.Finalize = "CONCLUDE"
	markers.Allocation = "REWARDS"
	// The table precedes the finalize marker, so parsing must key on the
	// allocation marker, not on the session-ending one.
	rt := script.New(
		script.Step{Role: roster.Arbiter, Text: `{"crisis": "locusts"}`},
		script.Step{Role: roster.Coordinator, Text: "REWARDS\nFarmer=200\nHealer=100\nCONCLUDE"},
	)
	s := newSession(t, rt, func(p *Params) { p.Markers = markers })
	result, err := s.Run(context.Background(), "Simulation Start.")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.StopReason != selector.ReasonMarker {
		t.Fatalf("expected marker stop, got %+v", result)
	}
	if result.Outcome != OutcomeSuccess || result.Total != 300 {
		t.Fatalf("expected success with total 300, got %+v", result)
	}
	if result.Allocation["Farmer"] != 200 || result.Allocation["Healer"] != 100 {
		t.Fatalf("unexpected allocation %v", result.Allocation)
	}
}

type pickerFunc func(history []transcript.Message) (council.RoleID, bool)

func (f pickerFunc) Next(history []transcript.Message) (council.RoleID, bool) { return f(history) }

func TestRunAbortsWhenPickerLeavesRoster(t *testing.T) {
	rt := runtimeFunc(func(ctx context.Context, role council.RoleID, history []transcript.Message) (string, error) {
		return "I speak regardless.", nil
	})
	s := newSession(t, rt, func(p *Params) {
		p.Picker = pickerFunc(func([]transcript.Message) (council.RoleID, bool) {
			return "Impostor", true
		})
	})
	result, err := s.Run(context.Background(), "Simulation Start.")
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if result.Outcome != OutcomeFailure || !strings.Contains(result.Reason, "Impostor") {
		t.Fatalf("expected failure naming the stray role, got %+v", result)
	}
	if result.RunID != s.RunID() {
		t.Fatalf("terminal record lost its run id: %+v", result)
	}
}

func TestRunRejectsUnknownRoleInAllocation(t *testing.T) {
	roster := council.Default()
	rt := script.New(
		script.Step{Role: roster.Arbiter, Text: `{"crisis": "flood"}`},
		script.Step{Role: roster.Coordinator, Text: "SET_SALARY\nFarmer=100\nOracle=50"},
	)
	result, err := newSession(t, rt).Run(context.Background(), "Simulation Start.")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Outcome != OutcomeFailure || !strings.Contains(result.Reason, "Oracle") {
		t.Fatalf("expected unknown-role failure, got %+v", result)
	}
}

func TestRunRequireFullCoverage(t *testing.T) {
	roster := council.Default()
	steps := []script.Step{
		{Role: roster.Arbiter, Text: `{"crisis": "plague"}`},
		{Role: roster.Coordinator, Text: "SET_SALARY\nFarmer=100\nBuilder=100"},
	}
	s := newSession(t, script.New(steps...), func(p *Params) { p.RequireFullCoverage = true })
	result, err := s.Run(context.Background(), "Simulation Start.")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Outcome != OutcomeFailure || !strings.Contains(result.Reason, "incomplete allocation") {
		t.Fatalf("expected coverage failure, got %+v", result)
	}

	// The same partial table passes when coverage is not required.
	s = newSession(t, script.New(steps...))
	result, err = s.Run(context.Background(), "Simulation Start.")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Outcome != OutcomeSuccess || result.Total != 200 {
		t.Fatalf("expected success without coverage, got %+v", result)
	}
}

func TestRunAbortsOnRuntimeError(t *testing.T) {
	boom := errors.New("backend unreachable")
	rt := runtimeFunc(func(ctx context.Context, role council.RoleID, history []transcript.Message) (string, error) {
		return "", boom
	})
	result, err := newSession(t, rt).Run(context.Background(), "Simulation Start.")
	if !errors.Is(err, boom) {
		t.Fatalf("expected runtime error, got %v", err)
	}
	if result.Outcome != "" || result.Allocation != nil {
		t.Fatalf("aborted session must not carry a partial result: %+v", result)
	}
}

func TestRunAbortsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rt := runtimeFunc(func(ctx context.Context, role council.RoleID, history []transcript.Message) (string, error) {
		cancel()
		return "", ctx.Err()
	})
	result, err := newSession(t, rt).Run(ctx, "Simulation Start.")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if result.Allocation != nil {
		t.Fatalf("cancelled session must not produce an allocation")
	}
}

func TestNewValidatesParams(t *testing.T) {
	rt := runtimeFunc(func(ctx context.Context, role council.RoleID, history []transcript.Message) (string, error) {
		return "", nil
	})
	if _, err := New(Params{Markers: intent.DefaultMarkers(), Budget: 1, TurnCap: 1, Runtime: rt}); err == nil {
		t.Fatalf("expected missing roster to fail")
	}
	if _, err := New(Params{Roster: council.Default(), Markers: intent.DefaultMarkers(), Budget: 1, TurnCap: 1}); err == nil {
		t.Fatalf("expected missing runtime to fail")
	}
	if _, err := New(Params{Roster: council.Default(), Markers: intent.DefaultMarkers(), Budget: 1, TurnCap: 0, Runtime: rt}); err == nil {
		t.Fatalf("expected zero turn cap to fail")
	}
}

func TestRunIDsAreUniquePerSession(t *testing.T) {
	rt := runtimeFunc(func(ctx context.Context, role council.RoleID, history []transcript.Message) (string, error) {
		return "", nil
	})
	a := newSession(t, rt)
	b := newSession(t, rt)
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Fatalf("run ids must be unique: %q vs %q", a.RunID(), b.RunID())
	}
}

type sinkFunc func(transcript.Message) error

func (f sinkFunc) Record(m transcript.Message) error { return f(m) }
