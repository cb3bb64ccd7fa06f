package roster

import (
	"fmt"

	"github.com/BigLep/roster-sync/internal/domain/schema"
	"github.com/BigLep/roster-sync/internal/domain/tabular"
)

// FinalFormsColumns names the export's columns. The defaults track the
// current FinalForms CSV layout; overriding them keeps a provider-side
// rename from requiring a code change.
type FinalFormsColumns struct {
	FirstName       string
	LastName        string
	Grade           string
	GuardianEmail1  string
	GuardianEmail2  string
	GuardianSigned  string
	PlayerSigned    string
	PhysicalCleared string
}

func DefaultFinalFormsColumns() FinalFormsColumns {
	return FinalFormsColumns{
		FirstName:       "First Name",
		LastName:        "Last Name",
		Grade:           "Grade",
		GuardianEmail1:  "Parent 1 Email",
		GuardianEmail2:  "Parent 2 Email",
		GuardianSigned:  "Parents Signed",
		PlayerSigned:    "Student Signed",
		PhysicalCleared: "Physical Cleared",
	}
}

// ParseFinalFormsCSV turns the raw export into records. The export sometimes
// carries a provider banner line before the header, so the header is located
// by its first-name column rather than assumed to be row zero. Rows missing
// a name are dropped; a source with zero usable rows is an error.
func ParseFinalFormsCSV(text string, cols FinalFormsColumns) ([]FinalFormsRecord, error) {
	rows, err := tabular.ReadCSV(text)
	if err != nil {
		return nil, fmt.Errorf("read final forms csv: %w", err)
	}

	headerIdx := tabular.HeaderIndex(rows, cols.FirstName)
	if headerIdx < 0 {
		return nil, fmt.Errorf("final forms export: header row with %q not found: %w", cols.FirstName, tabular.ErrNoRows)
	}

	idx := columnIndexes(rows[headerIdx], cols)

	records := make([]FinalFormsRecord, 0, len(rows)-headerIdx-1)
	for _, row := range rows[headerIdx+1:] {
		rec := FinalFormsRecord{
			FirstName:       tabular.Cell(row, idx.first),
			LastName:        tabular.Cell(row, idx.last),
			Grade:           tabular.Cell(row, idx.grade),
			GuardianEmail1:  tabular.Cell(row, idx.email1),
			GuardianEmail2:  tabular.Cell(row, idx.email2),
			GuardianSigned:  tabular.ParseBool(tabular.Cell(row, idx.guardianSigned)),
			PlayerSigned:    tabular.ParseBool(tabular.Cell(row, idx.playerSigned)),
			PhysicalCleared: tabular.ParseBool(tabular.Cell(row, idx.cleared)),
		}
		if rec.FirstName == "" || rec.LastName == "" {
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("final forms export: %w", tabular.ErrNoRows)
	}
	return records, nil
}

type finalFormsIndexes struct {
	first, last, grade, email1, email2 int
	guardianSigned, playerSigned       int
	cleared                            int
}

func columnIndexes(header []string, cols FinalFormsColumns) finalFormsIndexes {
	m := schema.Discover(header)
	find := func(name string) int {
		if i, ok := m.Index(name); ok {
			return i
		}
		return -1
	}

	return finalFormsIndexes{
		first:          find(cols.FirstName),
		last:           find(cols.LastName),
		grade:          find(cols.Grade),
		email1:         find(cols.GuardianEmail1),
		email2:         find(cols.GuardianEmail2),
		guardianSigned: find(cols.GuardianSigned),
		playerSigned:   find(cols.PlayerSigned),
		cleared:        find(cols.PhysicalCleared),
	}
}
