package schema

import (
	"errors"
	"strings"
	"testing"
)

func testContract() Contract {
	return Contract{
		Columns: []Column{
			{Name: "First Name", Required: true, Kind: KindString},
			{Name: "Last Name", Required: true, Kind: KindString},
			{Name: "Nickname", Required: false, Kind: KindString},
		},
		Patterns: []PatternColumn{
			MustPattern("portal id", `portal.*id`),
		},
	}
}

func TestDiscover(t *testing.T) {
	m := Discover([]string{"First Name", "", "  Last Name  ", "First Name", "Grade"})

	if len(m) != 3 {
		t.Fatalf("unexpected map size: %d", len(m))
	}
	if i, ok := m.Index("First Name"); !ok || i != 0 {
		t.Fatalf("duplicate header must keep its first index, got %d ok=%v", i, ok)
	}
	if i, ok := m.Index("Last Name"); !ok || i != 2 {
		t.Fatalf("whitespace should be trimmed, got %d ok=%v", i, ok)
	}
	if _, ok := m.Index(""); ok {
		t.Fatal("blank headers must be skipped")
	}
}

func TestValidate_AllSatisfied(t *testing.T) {
	header := []string{"First Name", "Last Name", "Nickname", "Portal Player ID", "Notes"}

	m, result := Validate(header, testContract())
	if !result.IsValid {
		t.Fatalf("expected valid result: %+v", result)
	}
	if err := result.Err(); err != nil {
		t.Fatalf("valid result must have nil error, got %v", err)
	}
	if result.PatternMatches["portal id"] != "Portal Player ID" {
		t.Fatalf("unexpected pattern match: %q", result.PatternMatches["portal id"])
	}
	if len(result.ExtraColumns) != 1 || result.ExtraColumns[0] != "Notes" {
		t.Fatalf("unexpected extras: %v", result.ExtraColumns)
	}
	if i, ok := m.Index("Last Name"); !ok || i != 1 {
		t.Fatalf("map should come from the same pass, got %d ok=%v", i, ok)
	}
}

func TestValidate_AggregatesEveryFailure(t *testing.T) {
	header := []string{"Nickname"}

	_, result := Validate(header, testContract())
	if result.IsValid {
		t.Fatal("expected invalid result")
	}
	if len(result.MissingRequired) != 2 {
		t.Fatalf("both required columns must be reported, got %v", result.MissingRequired)
	}

	err := result.Err()
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	msg := err.Error()
	for _, want := range []string{"First Name", "Last Name", "portal id"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error message should mention %q: %s", want, msg)
		}
	}
}

func TestValidate_MissingOptionalStaysValid(t *testing.T) {
	header := []string{"First Name", "Last Name", "Portal External ID"}

	_, result := Validate(header, testContract())
	if !result.IsValid {
		t.Fatalf("missing optional column must not invalidate: %+v", result)
	}
	if len(result.MissingOptional) != 1 || result.MissingOptional[0] != "Nickname" {
		t.Fatalf("unexpected missing optional: %v", result.MissingOptional)
	}
}

func TestValidate_PatternFirstMatchWins(t *testing.T) {
	header := []string{"First Name", "Last Name", "Portal Roster ID", "Portal Backup ID"}

	_, result := Validate(header, testContract())
	if result.PatternMatches["portal id"] != "Portal Roster ID" {
		t.Fatalf("leftmost matching header must win, got %q", result.PatternMatches["portal id"])
	}
}

func TestValidate_PatternIsCaseInsensitive(t *testing.T) {
	header := []string{"First Name", "Last Name", "PORTAL ID"}

	_, result := Validate(header, testContract())
	if !result.IsValid {
		t.Fatalf("case-folded pattern should match: %+v", result)
	}
}

func TestContractCheck_RejectsDuplicates(t *testing.T) {
	contract := Contract{
		Columns: []Column{
			{Name: "First Name", Required: true},
			{Name: "First Name", Required: false},
		},
	}
	if err := contract.Check(); err == nil {
		t.Fatal("expected duplicate column error")
	}
}
