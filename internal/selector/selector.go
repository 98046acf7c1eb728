// internal/selector/selector.go
//
// The turn selector is a pure router: given the history so far it names the
// next speaker, or reports that the exchange is over. It holds no state
// between calls, so equal histories always produce equal answers.
//
// The coordinator is the hub. Every arbiter or specialist turn hands the
// floor back to the coordinator; only the coordinator's classified intent
// fans the conversation out again:
//
//	empty history / seed -> arbiter
//	arbiter, specialist  -> coordinator
//	coordinator+finalize -> terminal
//	coordinator+propose  -> arbiter
//	coordinator+consult  -> that specialist
//	coordinator+other    -> coordinator (retry)

package selector

import (
	"fmt"

	"github.com/kingrea/kallipolis/internal/council"
	"github.com/kingrea/kallipolis/internal/intent"
	"github.com/kingrea/kallipolis/internal/transcript"
)

// Selector routes turns for one roster and marker vocabulary.
type Selector struct {
	roster     *council.Roster
	classifier *intent.Classifier
}

// New builds a selector. The classifier must share the selector's roster so
// consult targets resolve consistently.
func New(roster *council.Roster, classifier *intent.Classifier) (*Selector, error) {
	if roster == nil {
		return nil, fmt.Errorf("selector: roster is required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("selector: classifier is required")
	}
	return &Selector{roster: roster, classifier: classifier}, nil
}

// Next returns the speaker for the upcoming turn. The second result is
// false when the exchange has reached its terminal state and nobody speaks.
func (s *Selector) Next(history []transcript.Message) (council.RoleID, bool) {
	if len(history) == 0 {
		return s.roster.Arbiter, true
	}
	last := history[len(history)-1]
	if last.Speaker == transcript.SeedSpeaker {
		return s.roster.Arbiter, true
	}

	switch s.roster.Category(last.Speaker) {
	case council.CategoryArbiter, council.CategorySpecialist:
		return s.roster.Coordinator, true
	case council.CategoryCoordinator:
		return s.afterCoordinator(last.Text)
	default:
		// Unknown speakers (external narration, tooling noise) hand the
		// floor to the coordinator rather than derailing the session.
		return s.roster.Coordinator, true
	}
}

func (s *Selector) afterCoordinator(text string) (council.RoleID, bool) {
	switch classified := s.classifier.Classify(text); classified.Kind {
	case intent.KindFinalize:
		return "", false
	case intent.KindPropose:
		return s.roster.Arbiter, true
	case intent.KindConsult:
		return classified.Target, true
	default:
		// Unknown, open, or a stray judgement from the coordinator: let the
		// coordinator retry the turn. Repeated speakers are allowed.
		return s.roster.Coordinator, true
	}
}
