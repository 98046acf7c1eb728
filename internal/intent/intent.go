// internal/intent/intent.go
//
// Intent classification is the only place in the core that touches raw
// message text. Everything downstream (the turn selector in particular)
// works with the typed Intent produced here, so the brittle string matching
// stays contained and independently testable.

package intent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kingrea/kallipolis/internal/council"
)

// Kind enumerates the coarse intents a message can carry.
type Kind int

const (
	KindUnknown Kind = iota
	KindOpen
	KindConsult
	KindPropose
	KindJudge
	KindFinalize
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindConsult:
		return "consult"
	case KindPropose:
		return "propose"
	case KindJudge:
		return "judge"
	case KindFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// Intent is the classified reading of one message. Target is set only for
// KindConsult; Approved only for KindJudge.
type Intent struct {
	Kind     Kind
	Target   council.RoleID
	Approved bool
}

// Markers holds the literal vocabulary the classifier matches against.
// All of it is configuration; nothing is baked into the routing logic.
type Markers struct {
	// Finalize ends the session when the coordinator emits it.
	Finalize string `yaml:"finalize"`
	// Allocation starts the final role=amount table. Empty means the
	// finalize marker doubles as the table header, as in the stock
	// vocabulary.
	Allocation string `yaml:"allocation"`
	// Proposal tags the coordinator's structured directive message.
	Proposal string `yaml:"proposal"`
	// JudgeApprove / JudgeReject encode the arbiter's verdict.
	JudgeApprove string `yaml:"judge_approve"`
	JudgeReject  string `yaml:"judge_reject"`
	// Open tags the arbiter's initial scenario statement.
	Open string `yaml:"open"`
	// Address prefixes a consult instruction, e.g. "speak @" + name.
	Address string `yaml:"address"`
}

// DefaultMarkers returns the vocabulary of the original simulation.
func DefaultMarkers() Markers {
	return Markers{
		Finalize:     "SET_SALARY",
		Allocation:   "SET_SALARY",
		Proposal:     `"directive"`,
		JudgeApprove: `"solved": true`,
		JudgeReject:  `"solved": false`,
		Open:         `"crisis"`,
		Address:      "speak @",
	}
}

// Validate checks that every marker the classifier depends on is present.
func (m Markers) Validate() error {
	if strings.TrimSpace(m.Finalize) == "" {
		return fmt.Errorf("intent: finalize marker is required")
	}
	if strings.TrimSpace(m.Proposal) == "" {
		return fmt.Errorf("intent: proposal marker is required")
	}
	if strings.TrimSpace(m.JudgeApprove) == "" || strings.TrimSpace(m.JudgeReject) == "" {
		return fmt.Errorf("intent: judgement markers are required")
	}
	if strings.TrimSpace(m.Address) == "" {
		return fmt.Errorf("intent: address marker is required")
	}
	return nil
}

// AllocationMarker resolves the marker that opens the allocation table,
// falling back to the finalize marker when none is configured.
func (m Markers) AllocationMarker() string {
	if strings.TrimSpace(m.Allocation) != "" {
		return m.Allocation
	}
	return m.Finalize
}

// Classifier maps message text to an Intent. It never fails: text that
// matches nothing is KindUnknown.
type Classifier struct {
	roster  *council.Roster
	markers Markers
	address *regexp.Regexp
}

// NewClassifier compiles the addressing pattern against the given roster.
func NewClassifier(roster *council.Roster, markers Markers) (*Classifier, error) {
	if roster == nil {
		return nil, fmt.Errorf("intent: roster is required")
	}
	if err := markers.Validate(); err != nil {
		return nil, err
	}
	pattern := fmt.Sprintf(`(?i)%s([A-Za-z_]+)`, regexp.QuoteMeta(markers.Address))
	address, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("intent: compile address pattern: %w", err)
	}
	return &Classifier{roster: roster, markers: markers, address: address}, nil
}

// Classify applies the marker rules in priority order: finalize, proposal,
// judgement, addressing, open, unknown.
func (c *Classifier) Classify(text string) Intent {
	if strings.Contains(text, c.markers.Finalize) {
		return Intent{Kind: KindFinalize}
	}
	if strings.Contains(text, c.markers.Proposal) {
		return Intent{Kind: KindPropose}
	}
	if strings.Contains(text, c.markers.JudgeApprove) {
		return Intent{Kind: KindJudge, Approved: true}
	}
	if strings.Contains(text, c.markers.JudgeReject) {
		return Intent{Kind: KindJudge}
	}
	if target, ok := c.consultTarget(text); ok {
		return Intent{Kind: KindConsult, Target: target}
	}
	if c.markers.Open != "" && strings.Contains(text, c.markers.Open) {
		return Intent{Kind: KindOpen}
	}
	return Intent{Kind: KindUnknown}
}

// consultTarget scans addressing matches left to right and honors the first
// one that names a real specialist. First-match-wins is deliberate: a
// message that tags several citizens only consults the first.
func (c *Classifier) consultTarget(text string) (council.RoleID, bool) {
	for _, match := range c.address.FindAllStringSubmatch(text, -1) {
		if id, ok := c.roster.LookupSpecialist(match[1]); ok {
			return id, true
		}
	}
	return "", false
}
