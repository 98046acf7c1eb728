// internal/directive/directive.go
//
// At the end of a session the coordinator's final message carries a literal
// allocation marker followed by role=amount lines. This package extracts
// that table and checks it against the treasury.

package directive

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kingrea/kallipolis/internal/council"
)

var (
	// ErrNoDirective means the allocation marker never appeared.
	ErrNoDirective = errors.New("no directive found")
	// ErrFormat means the marker appeared but nothing parseable followed it.
	ErrFormat = errors.New("format error")
)

// entryPattern matches one "Role = 123" entry after the marker.
var entryPattern = regexp.MustCompile(`([A-Za-z]+)\s*=\s*(\d+)`)

// Allocation maps role names to the amount each receives.
type Allocation map[council.RoleID]int

// Total sums every amount in the allocation.
func (a Allocation) Total() int {
	total := 0
	for _, v := range a {
		total += v
	}
	return total
}

// Roles returns the allocated role ids in sorted order.
func (a Allocation) Roles() []council.RoleID {
	roles := make([]council.RoleID, 0, len(a))
	for id := range a {
		roles = append(roles, id)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Parser extracts allocations that follow a configured marker.
type Parser struct {
	marker string
}

// NewParser builds a parser for the given allocation marker.
func NewParser(marker string) (*Parser, error) {
	if strings.TrimSpace(marker) == "" {
		return nil, fmt.Errorf("directive: allocation marker is required")
	}
	return &Parser{marker: marker}, nil
}

// Parse scans text for the allocation table. Entries are collected left to
// right from the marker's first occurrence; when a role name repeats, the
// last occurrence wins. That mirrors the source system's behavior and is
// kept deliberately, not silently corrected.
func (p *Parser) Parse(text string) (Allocation, error) {
	idx := strings.Index(text, p.marker)
	if idx < 0 {
		return nil, ErrNoDirective
	}
	tail := text[idx+len(p.marker):]
	matches := entryPattern.FindAllStringSubmatch(tail, -1)
	if len(matches) == 0 {
		return nil, ErrFormat
	}
	alloc := make(Allocation, len(matches))
	for _, m := range matches {
		value, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q for %s", ErrFormat, m[2], m[1])
		}
		alloc[council.RoleID(m[1])] = value
	}
	return alloc, nil
}

// Report is the outcome of validating an allocation against the budget.
type Report struct {
	OK      bool
	Total   int
	Overage int
}

// Validate checks the allocation's total against a fixed budget. It does
// not check role coverage; see Coverage for that separate concern.
func Validate(alloc Allocation, budget int) Report {
	total := alloc.Total()
	if total > budget {
		return Report{Total: total, Overage: total - budget}
	}
	return Report{OK: true, Total: total}
}

// CheckRoles rejects allocations that name anyone outside the roster's
// specialist set. Unknown names mean the table is malformed.
func CheckRoles(alloc Allocation, roster *council.Roster) error {
	for _, id := range alloc.Roles() {
		if roster.Category(id) != council.CategorySpecialist {
			return fmt.Errorf("%w: %q is not a specialist", ErrFormat, id)
		}
	}
	return nil
}

// Coverage requires every specialist to appear in the allocation. Whether
// callers enforce it is a configuration choice (require_full_coverage).
func Coverage(alloc Allocation, roster *council.Roster) error {
	var missing []string
	for _, id := range roster.SpecialistIDs() {
		if _, ok := alloc[id]; !ok {
			missing = append(missing, string(id))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("incomplete allocation: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
