// internal/session/session.go
//
// The session driver is the only stateful piece of the core. It runs the
// turn loop: ask the selector who speaks, ask the runtime for that message,
// append it, and check for termination. All interpretation of message text
// is delegated to the pure components; the driver never looks at content.

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kingrea/kallipolis/internal/council"
	"github.com/kingrea/kallipolis/internal/directive"
	"github.com/kingrea/kallipolis/internal/intent"
	"github.com/kingrea/kallipolis/internal/logbook"
	"github.com/kingrea/kallipolis/internal/selector"
	"github.com/kingrea/kallipolis/internal/transcript"
)

// ErrConfiguration marks fatal wiring mistakes: the selector produced a
// speaker the roster does not know. The session aborts immediately.
var ErrConfiguration = errors.New("configuration error")

// Runtime produces one message for a role given the history so far. It is
// the external collaborator wrapping a model backend; any error it returns
// aborts the session.
type Runtime interface {
	Generate(ctx context.Context, role council.RoleID, history []transcript.Message) (string, error)
}

// Picker chooses the next speaker from a history snapshot. The driver
// trusts it only as far as the roster: a pick outside the role table is a
// configuration error.
type Picker interface {
	Next(history []transcript.Message) (council.RoleID, bool)
}

// Outcome says whether the session produced a valid allocation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Result is the single terminal record of a session.
type Result struct {
	RunID      string
	Outcome    Outcome
	Reason     string
	Allocation directive.Allocation
	Total      int
	Overage    int
	StopReason selector.Reason
	Turns      int
}

// Params wires one session together. Everything here is immutable for the
// session's lifetime.
type Params struct {
	Roster              *council.Roster
	Markers             intent.Markers
	Budget              int
	TurnCap             int
	RequireFullCoverage bool
	Runtime             Runtime
	Sinks               []transcript.Sink
	Logbook             *logbook.Logbook
	// Picker replaces the standard coordinator-hub selector when set.
	Picker Picker
	// RunID is generated when empty; callers that label transcripts up
	// front can supply their own.
	RunID string
}

// Session owns the history for one run. Nothing is shared across sessions;
// every run creates a fresh one.
type Session struct {
	roster      *council.Roster
	budget      int
	turnCap     int
	requireFull bool
	runtime     Runtime
	sink        transcript.MultiSink
	logbook     *logbook.Logbook

	selector    Picker
	termination *selector.Termination
	parser      *directive.Parser

	history transcript.History
	runID   string
}

// New validates the parameters and assembles the pure components.
func New(p Params) (*Session, error) {
	if p.Roster == nil {
		return nil, fmt.Errorf("session: roster is required")
	}
	if err := p.Roster.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if p.Runtime == nil {
		return nil, fmt.Errorf("session: runtime is required")
	}
	if p.Budget < 0 {
		return nil, fmt.Errorf("session: budget must be >= 0")
	}
	if p.TurnCap < 1 {
		return nil, fmt.Errorf("session: turn cap must be >= 1")
	}

	classifier, err := intent.NewClassifier(p.Roster, p.Markers)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	var picker Picker
	picker, err = selector.New(p.Roster, classifier)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if p.Picker != nil {
		picker = p.Picker
	}
	term, err := selector.NewTermination(p.Roster, p.Markers.Finalize, council.CategoryCoordinator)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	parser, err := directive.NewParser(p.Markers.AllocationMarker())
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	runID := p.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return &Session{
		roster:      p.Roster,
		budget:      p.Budget,
		turnCap:     p.TurnCap,
		requireFull: p.RequireFullCoverage,
		runtime:     p.Runtime,
		sink:        transcript.MultiSink(p.Sinks),
		logbook:     p.Logbook,
		selector:    picker,
		termination: term,
		parser:      parser,
		runID:       runID,
	}, nil
}

// RunID identifies this session in transcripts and logs.
func (s *Session) RunID() string {
	return s.runID
}

// Run drives the exchange to completion and reduces the final coordinator
// message to a Result. Turns are strictly sequential: at most one
// generation request is in flight at any moment, by construction of the
// loop. A runtime failure or context cancellation aborts the whole run
// with an error and no Result; a session that merely ends badly (missing
// directive, over budget) still returns a Failure Result.
func (s *Session) Run(ctx context.Context, seed string) (Result, error) {
	s.logbook.Info("session %s: starting (budget=%d, cap=%d)", s.runID, s.budget, s.turnCap)
	if seed != "" {
		s.record(s.history.Append(transcript.SeedSpeaker, seed))
	}

	stop := selector.ReasonNone
	for {
		if done, reason := s.termination.Terminal(s.history.Messages(), s.turnCap); done {
			stop = reason
			break
		}

		next, ok := s.selector.Next(s.history.Messages())
		if !ok {
			// The coordinator finalized; let the detector name the reason.
			_, stop = s.termination.Terminal(s.history.Messages(), s.turnCap)
			break
		}
		if !s.roster.Contains(next) {
			err := fmt.Errorf("session: %w: selector chose %q, absent from roster", ErrConfiguration, next)
			s.logbook.Error("session %s: %v", s.runID, err)
			return Result{
				RunID:      s.runID,
				Outcome:    OutcomeFailure,
				Reason:     fmt.Sprintf("configuration error: %q is not in the role table", next),
				StopReason: stop,
				Turns:      s.history.Len(),
			}, err
		}

		text, err := s.runtime.Generate(ctx, next, s.history.Messages())
		if err != nil {
			err = fmt.Errorf("session: generate for %s: %w", next, err)
			s.logbook.Error("session %s: %v", s.runID, err)
			return Result{}, err
		}
		s.record(s.history.Append(next, text))
	}

	result := s.conclude(stop)
	if result.Outcome == OutcomeSuccess {
		s.logbook.Info("session %s: success, total %d within budget %d (stop=%s, turns=%d)",
			s.runID, result.Total, s.budget, result.StopReason, result.Turns)
	} else {
		s.logbook.Warn("session %s: failure: %s (stop=%s, turns=%d)",
			s.runID, result.Reason, result.StopReason, result.Turns)
	}
	return result, nil
}

// record appends to the sinks; a sink failure is logged but never stops
// the exchange.
func (s *Session) record(msg transcript.Message) {
	if err := s.sink.Record(msg); err != nil {
		s.logbook.Warn("session %s: sink: %v", s.runID, err)
	}
}

// conclude runs the parsing and validation pipeline over the coordinator's
// final message.
func (s *Session) conclude(stop selector.Reason) Result {
	result := Result{
		RunID:      s.runID,
		Outcome:    OutcomeFailure,
		StopReason: stop,
		Turns:      s.history.Len(),
	}

	final, ok := transcript.LastFrom(s.history.Messages(), s.roster, council.CategoryCoordinator)
	if !ok {
		result.Reason = directive.ErrNoDirective.Error()
		return result
	}

	alloc, err := s.parser.Parse(final.Text)
	if err != nil {
		result.Reason = err.Error()
		return result
	}
	if err := directive.CheckRoles(alloc, s.roster); err != nil {
		result.Reason = err.Error()
		return result
	}
	if s.requireFull {
		if err := directive.Coverage(alloc, s.roster); err != nil {
			result.Reason = err.Error()
			return result
		}
	}

	report := directive.Validate(alloc, s.budget)
	result.Total = report.Total
	if !report.OK {
		result.Overage = report.Overage
		result.Reason = fmt.Sprintf("over budget by %d (total %d, budget %d)", report.Overage, report.Total, s.budget)
		return result
	}

	result.Outcome = OutcomeSuccess
	result.Allocation = alloc
	return result
}
