package council

import "testing"

func TestDefaultRosterValidates(t *testing.T) {
	roster := Default()
	if err := roster.Validate(); err != nil {
		t.Fatalf("default roster invalid: %v", err)
	}
	if got := len(roster.Specialists); got != 7 {
		t.Fatalf("expected 7 specialists, got %d", got)
	}
}

func TestCategoryLookup(t *testing.T) {
	roster := Default()
	if got := roster.Category("God"); got != CategoryArbiter {
		t.Fatalf("God category = %s", got)
	}
	if got := roster.Category("Philosopher_Ruler"); got != CategoryCoordinator {
		t.Fatalf("ruler category = %s", got)
	}
	if got := roster.Category("Healer"); got != CategorySpecialist {
		t.Fatalf("Healer category = %s", got)
	}
	if got := roster.Category("Stranger"); got != CategoryUnknown {
		t.Fatalf("expected unknown for absent id, got %s", got)
	}
}

func TestLookupSpecialistIsCaseInsensitive(t *testing.T) {
	roster := Default()
	id, ok := roster.LookupSpecialist("fArMeR")
	if !ok || id != "Farmer" {
		t.Fatalf("lookup fArMeR = %q, %v", id, ok)
	}
	if _, ok := roster.LookupSpecialist("God"); ok {
		t.Fatalf("arbiter must not resolve as a specialist")
	}
}

func TestValidateRejectsDuplicates(t *testing.T) {
	roster := &Roster{
		Arbiter:     "God",
		Coordinator: "Ruler",
		Specialists: []Specialist{{ID: "Farmer"}, {ID: "Farmer"}},
	}
	if err := roster.Validate(); err == nil {
		t.Fatalf("expected duplicate specialist to fail validation")
	}
	roster = &Roster{Arbiter: "God", Coordinator: "God", Specialists: []Specialist{{ID: "Farmer"}}}
	if err := roster.Validate(); err == nil {
		t.Fatalf("expected shared arbiter/coordinator id to fail validation")
	}
}

func TestNormalizeTrimsIDs(t *testing.T) {
	roster := &Roster{
		Arbiter:     " God ",
		Coordinator: "Ruler\n",
		Specialists: []Specialist{{ID: " Farmer", Domain: " agriculture "}},
	}
	roster.Normalize()
	if roster.Arbiter != "God" || roster.Coordinator != "Ruler" {
		t.Fatalf("normalize left whitespace: %+v", roster)
	}
	if roster.Specialists[0].ID != "Farmer" || roster.Specialists[0].Domain != "agriculture" {
		t.Fatalf("normalize left whitespace on specialist: %+v", roster.Specialists[0])
	}
}
