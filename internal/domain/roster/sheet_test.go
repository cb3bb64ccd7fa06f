package roster

import (
	"testing"

	"github.com/BigLep/roster-sync/internal/domain/schema"
)

func TestSheetContract_AcceptsCurrentHeader(t *testing.T) {
	header := []string{
		"First Name", "Last Name", "Grade",
		"Parents Signed", "Player Signed", "Physical Cleared",
		"Questionnaire", "Parent 1 On Mailing List", "Parent 2 On Mailing List",
		"TeamSnap Portal Username", "TeamSnap Portal ID",
	}

	_, result := schema.Validate(header, SheetContract())
	if err := result.Err(); err != nil {
		t.Fatalf("expected valid header: %v", err)
	}

	key, ok := result.PatternMatches[PatternPortalKey]
	if !ok || key != "TeamSnap Portal Username" {
		t.Fatalf("portal key pattern resolved to %q", key)
	}
	id, ok := result.PatternMatches[PatternPortalID]
	if !ok || id != "TeamSnap Portal ID" {
		t.Fatalf("portal id pattern resolved to %q", id)
	}
}

func TestSheetContract_MissingRequiredColumn(t *testing.T) {
	header := []string{"First Name", "Grade"}
	_, result := schema.Validate(header, SheetContract())
	if result.Err() == nil {
		t.Fatal("expected validation failure")
	}
}

func TestSheetFields_CoverEveryNamedColumn(t *testing.T) {
	fields := SheetFields()
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f.Column] = true
	}
	for _, col := range []string{
		ColFirstName, ColLastName, ColGrade,
		ColGuardianSigned, ColPlayerSigned, ColPhysicalCleared,
		ColQuestionnaire, ColGuardian1OnList, ColGuardian2OnList,
	} {
		if !seen[col] {
			t.Fatalf("column %q has no synthesis source", col)
		}
	}
}

func TestSheetFields_RenderProfile(t *testing.T) {
	p := IntegratedProfile{
		FirstName:      "Alex",
		LastName:       "Nguyen",
		Grade:          "7",
		GuardianSigned: true,
	}

	values := make(map[string]string, len(SheetFields()))
	for _, f := range SheetFields() {
		values[f.Column] = f.Value(p)
	}

	if values[ColFirstName] != "Alex" || values[ColGrade] != "7" {
		t.Fatalf("unexpected rendered values: %v", values)
	}
	if values[ColGuardianSigned] != "Yes" || values[ColPlayerSigned] != "No" {
		t.Fatalf("flag rendering wrong: %v", values)
	}
}
