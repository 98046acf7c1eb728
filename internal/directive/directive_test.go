package directive

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kingrea/kallipolis/internal/council"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser("SET_SALARY")
	if err != nil {
		t.Fatalf("new parser: %v", err)
	}
	return p
}

func TestParseFullTable(t *testing.T) {
	p := newParser(t)
	text := "The city shall endure.\nSET_SALARY\n" +
		"Farmer=100\nBuilder=90\nWarrior=80\nMerchant=100\nArtist=90\nHealer=90\nTeacher=80"
	alloc, err := p.Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(alloc) != 7 {
		t.Fatalf("expected 7 entries, got %d: %v", len(alloc), alloc)
	}
	if alloc["Warrior"] != 80 || alloc["Merchant"] != 100 {
		t.Fatalf("unexpected amounts: %v", alloc)
	}
	if got := alloc.Total(); got != 630 {
		t.Fatalf("total = %d, want 630", got)
	}
	report := Validate(alloc, 700)
	if !report.OK || report.Total != 630 || report.Overage != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestParseMissingMarker(t *testing.T) {
	p := newParser(t)
	if _, err := p.Parse("Farmer=100\nBuilder=90"); !errors.Is(err, ErrNoDirective) {
		t.Fatalf("expected ErrNoDirective, got %v", err)
	}
}

func TestParseMarkerWithoutEntries(t *testing.T) {
	p := newParser(t)
	_, err := p.Parse("SET_SALARY and then nothing but prose, no sums at all.")
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestParseToleratesSpacingAndProse(t *testing.T) {
	p := newParser(t)
	alloc, err := p.Parse("SET_SALARY\nFarmer =  120, and for the rest Builder= 80")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if alloc["Farmer"] != 120 || alloc["Builder"] != 80 {
		t.Fatalf("unexpected amounts: %v", alloc)
	}
}

func TestParseDuplicateRoleLastWins(t *testing.T) {
	p := newParser(t)
	alloc, err := p.Parse("SET_SALARY\nFarmer=50\nBuilder=60\nFarmer=110")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if alloc["Farmer"] != 110 {
		t.Fatalf("duplicate role should keep the last value, got %d", alloc["Farmer"])
	}
}

func TestParseIgnoresTextBeforeMarker(t *testing.T) {
	p := newParser(t)
	alloc, err := p.Parse("Decoy=999 then SET_SALARY\nHealer=70")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := alloc["Decoy"]; ok {
		t.Fatalf("entries before the marker must be ignored: %v", alloc)
	}
	if alloc["Healer"] != 70 {
		t.Fatalf("unexpected amounts: %v", alloc)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	want := Allocation{"Farmer": 95, "Builder": 85, "Healer": 110}
	var b strings.Builder
	b.WriteString("SET_SALARY\n")
	for _, id := range want.Roles() {
		fmt.Fprintf(&b, "%s=%d\n", id, want[id])
	}
	got, err := newParser(t).Parse(b.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != len(want) || got.Total() != want.Total() {
		t.Fatalf("round trip mismatch: %v vs %v", got, want)
	}
	for id, v := range want {
		if got[id] != v {
			t.Fatalf("round trip lost %s: %d vs %d", id, got[id], v)
		}
	}
}

func TestValidateBoundary(t *testing.T) {
	alloc := Allocation{"Farmer": 350, "Builder": 350}
	if r := Validate(alloc, 700); !r.OK || r.Overage != 0 {
		t.Fatalf("total equal to budget must pass: %+v", r)
	}
	alloc["Builder"] = 351
	r := Validate(alloc, 700)
	if r.OK || r.Overage != 1 || r.Total != 701 {
		t.Fatalf("expected overage 1, got %+v", r)
	}
}

func TestCheckRolesRejectsStrangers(t *testing.T) {
	roster := council.Default()
	if err := CheckRoles(Allocation{"Farmer": 10, "Healer": 20}, roster); err != nil {
		t.Fatalf("valid roles rejected: %v", err)
	}
	err := CheckRoles(Allocation{"Farmer": 10, "Oracle": 20}, roster)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected format error for unknown role, got %v", err)
	}
	// The coordinator cannot pay themselves.
	if err := CheckRoles(Allocation{"Philosopher_Ruler": 700}, roster); err == nil {
		t.Fatalf("non-specialist roster member must be rejected")
	}
}

func TestCoverage(t *testing.T) {
	roster := council.Default()
	full := Allocation{}
	for _, id := range roster.SpecialistIDs() {
		full[id] = 90
	}
	if err := Coverage(full, roster); err != nil {
		t.Fatalf("full coverage rejected: %v", err)
	}
	delete(full, "Artist")
	err := Coverage(full, roster)
	if err == nil || !strings.Contains(err.Error(), "Artist") {
		t.Fatalf("expected missing Artist, got %v", err)
	}
}
