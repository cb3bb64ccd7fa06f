package roster

import (
	"errors"
	"testing"

	"github.com/BigLep/roster-sync/internal/domain/tabular"
)

const finalFormsExport = `FinalForms Export - Generated 2025-09-01
First Name,Last Name,Grade,Parent 1 Email,Parent 2 Email,Parents Signed,Student Signed,Physical Cleared
Alex,Nguyen,7,alex.parent@example.org,,Yes,yes,TRUE
Sam,Porter,8,porter@example.org,porter2@example.org,No,true,
,Nameless,7,x@example.org,,Yes,Yes,Yes
Jordan,Lee,7,lee@example.org,,YES,0,no
`

func TestParseFinalFormsCSV(t *testing.T) {
	records, err := ParseFinalFormsCSV(finalFormsExport, DefaultFinalFormsColumns())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	alex := records[0]
	if alex.FirstName != "Alex" || alex.LastName != "Nguyen" || alex.Grade != "7" {
		t.Fatalf("unexpected first record: %+v", alex)
	}
	if !alex.GuardianSigned || !alex.PlayerSigned || !alex.PhysicalCleared {
		t.Fatalf("flag coercion failed: %+v", alex)
	}

	sam := records[1]
	if sam.GuardianSigned {
		t.Fatalf("No should coerce to false: %+v", sam)
	}
	if !sam.PlayerSigned {
		t.Fatalf("true should coerce to true: %+v", sam)
	}
	if sam.PhysicalCleared {
		t.Fatalf("empty cell should coerce to false: %+v", sam)
	}
	if sam.GuardianEmail2 != "porter2@example.org" {
		t.Fatalf("unexpected second email: %q", sam.GuardianEmail2)
	}

	jordan := records[2]
	if !jordan.GuardianSigned || jordan.PlayerSigned || jordan.PhysicalCleared {
		t.Fatalf("unexpected flags: %+v", jordan)
	}
}

func TestParseFinalFormsCSV_NoHeader(t *testing.T) {
	_, err := ParseFinalFormsCSV("a,b,c\n1,2,3\n", DefaultFinalFormsColumns())
	if !errors.Is(err, tabular.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestParseFinalFormsCSV_AllRowsNameless(t *testing.T) {
	csv := "First Name,Last Name\n,Porter\nAlex,\n"
	_, err := ParseFinalFormsCSV(csv, DefaultFinalFormsColumns())
	if !errors.Is(err, tabular.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}
