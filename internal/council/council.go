// internal/council/council.go
//
// The council is the fixed cast of a simulation: one arbiter who opens the
// session and judges the plan, one coordinator who governs the deliberation,
// and an ordered set of specialists who are consulted one at a time.

package council

import (
	"fmt"
	"strings"
)

// RoleID identifies a single participant in the session.
type RoleID string

// Category classifies what a participant is allowed to do in the exchange.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryArbiter
	CategoryCoordinator
	CategorySpecialist
)

// String returns the lowercase category name.
func (c Category) String() string {
	switch c {
	case CategoryArbiter:
		return "arbiter"
	case CategoryCoordinator:
		return "coordinator"
	case CategorySpecialist:
		return "specialist"
	default:
		return "unknown"
	}
}

// Specialist pairs a role id with the craft it speaks for. The domain text
// is only consumed by the agent runtime when it builds persona prompts.
type Specialist struct {
	ID     RoleID `yaml:"id"`
	Domain string `yaml:"domain,omitempty"`
}

// Roster is the static role table for one session. It never changes after
// the session starts.
type Roster struct {
	Arbiter     RoleID       `yaml:"arbiter"`
	Coordinator RoleID       `yaml:"coordinator"`
	Specialists []Specialist `yaml:"specialists"`
}

// Default returns the seven-citizen roster the simulator ships with.
func Default() *Roster {
	return &Roster{
		Arbiter:     "God",
		Coordinator: "Philosopher_Ruler",
		Specialists: []Specialist{
			{ID: "Farmer", Domain: "agriculture"},
			{ID: "Builder", Domain: "infrastructure"},
			{ID: "Warrior", Domain: "protection"},
			{ID: "Merchant", Domain: "trade"},
			{ID: "Artist", Domain: "culture"},
			{ID: "Healer", Domain: "health"},
			{ID: "Teacher", Domain: "education"},
		},
	}
}

// Category reports the role category for the given id, or CategoryUnknown
// when the id is not part of the roster.
func (r *Roster) Category(id RoleID) Category {
	if r == nil {
		return CategoryUnknown
	}
	switch id {
	case r.Arbiter:
		return CategoryArbiter
	case r.Coordinator:
		return CategoryCoordinator
	}
	for _, s := range r.Specialists {
		if s.ID == id {
			return CategorySpecialist
		}
	}
	return CategoryUnknown
}

// Contains reports whether the id names any roster member.
func (r *Roster) Contains(id RoleID) bool {
	return r.Category(id) != CategoryUnknown
}

// SpecialistIDs returns the specialist ids in roster order.
func (r *Roster) SpecialistIDs() []RoleID {
	if r == nil {
		return nil
	}
	ids := make([]RoleID, 0, len(r.Specialists))
	for _, s := range r.Specialists {
		ids = append(ids, s.ID)
	}
	return ids
}

// LookupSpecialist resolves a specialist by name, case-insensitively.
func (r *Roster) LookupSpecialist(name string) (RoleID, bool) {
	if r == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(name)
	for _, s := range r.Specialists {
		if strings.EqualFold(string(s.ID), trimmed) {
			return s.ID, true
		}
	}
	return "", false
}

// Normalize trims whitespace from every id so yaml-sourced rosters behave
// like the built-in one.
func (r *Roster) Normalize() {
	if r == nil {
		return
	}
	r.Arbiter = RoleID(strings.TrimSpace(string(r.Arbiter)))
	r.Coordinator = RoleID(strings.TrimSpace(string(r.Coordinator)))
	for i := range r.Specialists {
		r.Specialists[i].ID = RoleID(strings.TrimSpace(string(r.Specialists[i].ID)))
		r.Specialists[i].Domain = strings.TrimSpace(r.Specialists[i].Domain)
	}
}

// Validate checks the roster invariants: exactly one arbiter, exactly one
// coordinator, at least one specialist, and no id used twice.
func (r *Roster) Validate() error {
	if r == nil {
		return fmt.Errorf("council: roster is required")
	}
	if r.Arbiter == "" {
		return fmt.Errorf("council: arbiter is required")
	}
	if r.Coordinator == "" {
		return fmt.Errorf("council: coordinator is required")
	}
	if len(r.Specialists) == 0 {
		return fmt.Errorf("council: at least one specialist is required")
	}
	seen := map[RoleID]bool{r.Arbiter: true}
	if seen[r.Coordinator] {
		return fmt.Errorf("council: coordinator %q duplicates another role", r.Coordinator)
	}
	seen[r.Coordinator] = true
	for i, s := range r.Specialists {
		if s.ID == "" {
			return fmt.Errorf("council: specialists[%d]: id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("council: specialist %q duplicates another role", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}
