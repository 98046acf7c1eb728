package selector

import (
	"fmt"
	"strings"

	"github.com/kingrea/kallipolis/internal/council"
	"github.com/kingrea/kallipolis/internal/transcript"
)

// Reason says why a session ended.
type Reason string

const (
	ReasonNone   Reason = ""
	ReasonMarker Reason = "marker"
	ReasonCap    Reason = "cap"
)

// Termination decides, from the full history alone, whether the exchange is
// over. It keeps no counters: the check is recomputed fresh every turn.
type Termination struct {
	roster *council.Roster
	// marker is the finalize literal, matched case-sensitively.
	marker string
	// speaker is the category whose messages can carry the marker.
	speaker council.Category
}

// NewTermination configures the detector. The terminal speaker is the
// coordinator in the stock simulation, but it is configuration, not law.
func NewTermination(roster *council.Roster, marker string, speaker council.Category) (*Termination, error) {
	if roster == nil {
		return nil, fmt.Errorf("selector: roster is required")
	}
	if strings.TrimSpace(marker) == "" {
		return nil, fmt.Errorf("selector: finalize marker is required")
	}
	return &Termination{roster: roster, marker: marker, speaker: speaker}, nil
}

// Terminal reports whether the session is over and why. When the marker and
// the turn cap fire on the same turn, the marker wins the report: natural
// completion takes precedence over the safety ceiling.
func (t *Termination) Terminal(history []transcript.Message, turnCap int) (bool, Reason) {
	if msg, ok := transcript.LastFrom(history, t.roster, t.speaker); ok {
		if strings.Contains(msg.Text, t.marker) {
			return true, ReasonMarker
		}
	}
	if turnCap > 0 && len(history) >= turnCap {
		return true, ReasonCap
	}
	return false, ReasonNone
}
