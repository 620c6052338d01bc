package domain

import (
	"errors"
	"testing"
)

func TestPaletteColorCycles(t *testing.T) {
	colors := make([]string, 6)
	for i := range colors {
		colors[i] = NewFamilyMember("Member", i).Color
	}
	if colors[0] != colors[5] {
		t.Fatalf("expected member 0 and 5 to share a color, got %s and %s", colors[0], colors[5])
	}
	seen := map[string]bool{}
	for _, c := range colors[:5] {
		if seen[c] {
			t.Fatalf("color %s repeated within palette size", c)
		}
		seen[c] = true
	}
}

func TestInitialFor(t *testing.T) {
	cases := map[string]string{
		"emma":   "E",
		"Alex":   "A",
		"éloïse": "É",
		"":       "",
		"7up":    "7",
		"\xffmma": "\xff",
	}
	for name, want := range cases {
		if got := InitialFor(name); got != want {
			t.Fatalf("InitialFor(%q) = %q, want %q", name, got, want)
		}
	}
	m := NewFamilyMember("zoe", 0)
	if m.Initial != "Z" || m.Chores == nil || len(m.Chores) != 0 {
		t.Fatalf("unexpected member %+v", m)
	}
}

func TestValidateMemberName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n", "\xffmma"} {
		err := ValidateMemberName(name)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", name, err)
		}
	}
	if err := ValidateMemberName("Sam"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestChoreUpdateApply(t *testing.T) {
	name := "Dishes"
	done := true
	due := Date{Year: 2024, Month: 5, Day: 2}
	base := Chore{ID: "c1", Name: "Plates", Description: "kitchen", DueDate: Date{Year: 2024, Month: 5, Day: 1}}
	got := ChoreUpdate{Name: &name, Completed: &done, DueDate: &due}.Apply(base)
	if got.ID != "c1" || got.Name != "Dishes" || !got.Completed || got.DueDate != due || got.Description != "kitchen" {
		t.Fatalf("unexpected merge result %+v", got)
	}
	if (ChoreUpdate{}).Apply(base).Name != "Plates" {
		t.Fatalf("empty update should not modify chore")
	}
}

func TestCloneMemberIsDeep(t *testing.T) {
	orig := FamilyMember{ID: "1", Name: "Emma", Chores: []Chore{{ID: "c1", Days: []Weekday{Monday}}}}
	cp := CloneMember(orig)
	cp.Chores[0].Completed = true
	cp.Chores[0].Days[0] = Friday
	if orig.Chores[0].Completed || orig.Chores[0].Days[0] != Monday {
		t.Fatalf("clone aliases original: %+v", orig)
	}
	if CloneMembers(nil) != nil || CloneTemplates(nil) != nil {
		t.Fatalf("nil lists should clone to nil")
	}
}

func TestErrorsMatchSentinels(t *testing.T) {
	if !errors.Is(NotFoundError{Entity: EntityTemplate, ID: "t1"}, ErrNotFound) {
		t.Fatalf("not found error should match sentinel")
	}
	cause := errors.New("connection refused")
	remote := RemoteError{Op: "create member", Err: cause}
	if !errors.Is(remote, ErrRemote) || !errors.Is(remote, cause) {
		t.Fatalf("remote error should match sentinel and cause")
	}
	if msg := (NotFoundError{Entity: EntityMember}).Error(); msg != "member not found" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestSeedMembers(t *testing.T) {
	today := Date{Year: 2024, Month: 1, Day: 1}
	seed := SeedMembers(today)
	if len(seed) != 3 || seed[0].Name != "Emma" || seed[0].Chores[0].Name != "Make bed" {
		t.Fatalf("unexpected seed %+v", seed)
	}
	for i, m := range seed {
		if m.Color != PaletteColor(i) || m.Initial != InitialFor(m.Name) {
			t.Fatalf("seed member %d inconsistent: %+v", i, m)
		}
		if m.Chores[0].DueDate != today {
			t.Fatalf("seed chores should be due today")
		}
	}
}
