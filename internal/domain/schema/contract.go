// Package schema discovers and validates the column layout of
// spreadsheet-backed tables. Header rows are free-form and move around as
// humans edit sheets, so every consumer re-discovers the layout instead of
// hard-coding indexes.
package schema

import (
	"fmt"
	"regexp"
)

// Kind describes how a column's values should be interpreted.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindEmail   Kind = "email"
	KindDate    Kind = "date"
)

// Column is one declared named column of a contract.
type Column struct {
	Name     string
	Required bool
	Kind     Kind
}

// PatternColumn is matched by regex against all headers instead of by exact
// name, for providers that embed ids in unstable header text.
type PatternColumn struct {
	Name    string
	Pattern *regexp.Regexp
}

// Contract declares the columns a table must carry. Names are unique.
type Contract struct {
	Columns  []Column
	Patterns []PatternColumn
}

// MustPattern compiles expr case-insensitively and panics on error. Contracts
// are package-level constants, so a bad expression is a programming error.
func MustPattern(name, expr string) PatternColumn {
	return PatternColumn{Name: name, Pattern: regexp.MustCompile("(?i)" + expr)}
}

// Check verifies the contract's own invariants.
func (c Contract) Check() error {
	seen := make(map[string]struct{}, len(c.Columns)+len(c.Patterns))
	for _, col := range c.Columns {
		if col.Name == "" {
			return fmt.Errorf("contract column with empty name")
		}
		if _, dup := seen[col.Name]; dup {
			return fmt.Errorf("duplicate contract column %q", col.Name)
		}
		seen[col.Name] = struct{}{}
	}
	for _, p := range c.Patterns {
		if p.Name == "" || p.Pattern == nil {
			return fmt.Errorf("pattern column needs a name and a pattern")
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate contract column %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}
