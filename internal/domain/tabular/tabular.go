// Package tabular holds the shared plumbing for the three source parsers:
// CSV reading, preamble stripping and loose boolean coercion.
package tabular

import (
	"encoding/csv"
	"errors"
	"strings"
)

// ErrNoRows reports source-level exhaustion: a source that produced zero
// usable rows. Individual malformed rows are dropped silently; an entirely
// unusable source is an error the caller must see.
var ErrNoRows = errors.New("no usable rows")

// ReadCSV parses CSV text into rows, tolerating ragged row lengths. Provider
// exports routinely pad or truncate trailing columns.
func ReadCSV(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// HeaderIndex returns the index of the first row containing marker as one of
// its trimmed cells, or -1. Sources prepend banner lines before the real
// header; the marker column identifies where data actually starts.
func HeaderIndex(rows [][]string, marker string) int {
	for i, row := range rows {
		for _, cell := range row {
			if strings.EqualFold(strings.TrimSpace(cell), marker) {
				return i
			}
		}
	}
	return -1
}

// ParseBool coerces the string booleans sources emit. Only "true" and "yes"
// (case-insensitive) are true; everything else, including absence, is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes":
		return true
	default:
		return false
	}
}

// Cell returns the trimmed value at idx, or "" when the row is too short.
// Missing optional fields become explicit empty values instead of errors.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
