// Package questionnaire parses the player questionnaire response sheet.
package questionnaire

import (
	"fmt"
	"time"

	"github.com/BigLep/roster-sync/internal/domain/schema"
	"github.com/BigLep/roster-sync/internal/domain/tabular"
)

// Response is one submitted questionnaire. Names are self-reported and are
// matched against the roster fuzzily, never by key.
type Response struct {
	FirstName   string
	LastName    string
	SubmittedAt time.Time
}

// ResponseColumns names the response sheet's columns.
type ResponseColumns struct {
	Timestamp string
	FirstName string
	LastName  string
}

func DefaultResponseColumns() ResponseColumns {
	return ResponseColumns{
		Timestamp: "Timestamp",
		FirstName: "Player First Name",
		LastName:  "Player Last Name",
	}
}

// Response sheets render timestamps in the spreadsheet locale format.
const timestampLayout = "1/2/2006 15:04:05"

// ParseRows parses the response sheet's cell rows. A row missing either name
// is dropped; an unparseable timestamp leaves SubmittedAt zero rather than
// dropping the row, since the names are what integration needs.
func ParseRows(rows [][]string, cols ResponseColumns) ([]Response, error) {
	headerIdx := tabular.HeaderIndex(rows, cols.FirstName)
	if headerIdx < 0 {
		return nil, fmt.Errorf("questionnaire sheet: header row with %q not found: %w", cols.FirstName, tabular.ErrNoRows)
	}

	m := schema.Discover(rows[headerIdx])
	firstIdx, _ := m.Index(cols.FirstName)
	lastIdx, _ := m.Index(cols.LastName)
	tsIdx := -1
	if i, ok := m.Index(cols.Timestamp); ok {
		tsIdx = i
	}

	responses := make([]Response, 0, len(rows)-headerIdx-1)
	for _, row := range rows[headerIdx+1:] {
		resp := Response{
			FirstName: tabular.Cell(row, firstIdx),
			LastName:  tabular.Cell(row, lastIdx),
		}
		if resp.FirstName == "" || resp.LastName == "" {
			continue
		}
		if raw := tabular.Cell(row, tsIdx); raw != "" {
			if ts, err := time.Parse(timestampLayout, raw); err == nil {
				resp.SubmittedAt = ts
			}
		}
		responses = append(responses, resp)
	}

	if len(responses) == 0 {
		return nil, fmt.Errorf("questionnaire sheet: %w", tabular.ErrNoRows)
	}
	return responses, nil
}
