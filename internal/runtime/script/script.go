// internal/runtime/script/script.go
//
// A scripted runtime replays canned lines instead of calling a model. It
// backs the driver tests and the --dry-run flag, where a full exchange has
// to play out deterministically with no server around.

package script

import (
	"context"
	"fmt"
	"sync"

	"github.com/kingrea/kallipolis/internal/council"
	"github.com/kingrea/kallipolis/internal/transcript"
)

// Step is one scripted turn: the role expected to be asked, and the line it
// delivers.
type Step struct {
	Role council.RoleID
	Text string
}

// Runtime replays steps in order and fails loudly when the driver asks for
// a different speaker than the script expects, or runs past the end.
type Runtime struct {
	mu    sync.Mutex
	steps []Step
	next  int
}

// New builds a runtime for the given script.
func New(steps ...Step) *Runtime {
	return &Runtime{steps: steps}
}

// Generate returns the next scripted line.
func (r *Runtime) Generate(ctx context.Context, role council.RoleID, history []transcript.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.steps) {
		return "", fmt.Errorf("script: exhausted after %d steps (asked for %s)", len(r.steps), role)
	}
	step := r.steps[r.next]
	if step.Role != role {
		return "", fmt.Errorf("script: step %d expects %s, driver asked for %s", r.next+1, step.Role, role)
	}
	r.next++
	return step.Text, nil
}

// Remaining reports how many steps have not been consumed.
func (r *Runtime) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps) - r.next
}

// Demo returns a complete scripted session for the stock roster: crisis,
// one consultation, proposal, approval, and the final reward table.
func Demo(roster *council.Roster) *Runtime {
	return New(
		Step{Role: roster.Arbiter, Text: `{"crisis": "The great aqueduct has cracked and the wells are failing."}`},
		Step{Role: roster.Coordinator, Text: "The city thirsts. I must hear from the fields first. speak @Farmer"},
		Step{Role: "Farmer", Text: "Ration irrigation, plant drought-hardy barley, and dig catch basins before the rains."},
		Step{Role: roster.Coordinator, Text: "Stone must answer water. speak @Builder"},
		Step{Role: "Builder", Text: "Shore the aqueduct arches with timber, then reline the channel in sections."},
		Step{Role: roster.Coordinator, Text: `{"directive": "Repair the aqueduct in sections while the fields shift to drought crops and rationed irrigation."}`},
		Step{Role: roster.Arbiter, Text: `{"judgement": "The plan addresses the threat directly.", "solved": true}`},
		Step{Role: roster.Coordinator, Text: "The city endures. SET_SALARY\nFarmer=100\nBuilder=110\nWarrior=80\nMerchant=85\nArtist=80\nHealer=90\nTeacher=85"},
	)
}
