package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Map is a discovered header-name to zero-based column index mapping. It is
// built fresh on every discovery pass and never mutated afterwards.
type Map map[string]int

// Discover scans a header row left to right and maps each non-blank header
// to its index. The first occurrence of a duplicated header wins.
func Discover(header []string) Map {
	m := make(Map, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, exists := m[name]; exists {
			continue
		}
		m[name] = i
	}
	return m
}

// Index returns the column index for name.
func (m Map) Index(name string) (int, bool) {
	i, ok := m[name]
	return i, ok
}

// ValidationResult aggregates everything wrong (and right) with a header row
// against a contract, so callers never have to re-validate to discover the
// next problem.
type ValidationResult struct {
	IsValid         bool              `json:"isValid"`
	MissingRequired []string          `json:"missingRequired"`
	MissingOptional []string          `json:"missingOptional"`
	ExtraColumns    []string          `json:"extraColumns"`
	PatternMatches  map[string]string `json:"patternMatches"`
}

// Err returns a ValidationError carrying the full result, or nil when valid.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return &ValidationError{Result: r}
}

// ValidationError is fatal to whatever depends on the schema. It lists every
// missing item in one message.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Result.MissingRequired) > 0 {
		parts = append(parts, fmt.Sprintf("missing required columns: %s", strings.Join(e.Result.MissingRequired, ", ")))
	}
	var unmatched []string
	for _, name := range sortedKeys(e.Result.PatternMatches) {
		if e.Result.PatternMatches[name] == "" {
			unmatched = append(unmatched, name)
		}
	}
	if len(unmatched) > 0 {
		parts = append(parts, fmt.Sprintf("pattern columns with no matching header: %s", strings.Join(unmatched, ", ")))
	}
	if len(parts) == 0 {
		parts = append(parts, "schema does not satisfy contract")
	}
	return "schema validation failed: " + strings.Join(parts, "; ")
}

// Validate builds a Map from header and checks it against contract. Required
// columns must all be present and every pattern column must match at least
// one header for the result to be valid. Pattern matching is first-match-wins
// over the header scan order.
func Validate(header []string, contract Contract) (Map, ValidationResult) {
	m := Discover(header)

	result := ValidationResult{
		IsValid:        true,
		PatternMatches: make(map[string]string, len(contract.Patterns)),
	}

	declared := make(map[string]struct{}, len(contract.Columns))
	for _, col := range contract.Columns {
		declared[col.Name] = struct{}{}
		if _, ok := m[col.Name]; ok {
			continue
		}
		if col.Required {
			result.MissingRequired = append(result.MissingRequired, col.Name)
			result.IsValid = false
		} else {
			result.MissingOptional = append(result.MissingOptional, col.Name)
		}
	}

	// Pattern scan walks the raw header order, not the map, so that the
	// first textual match wins regardless of map iteration order.
	patternHit := make(map[string]struct{})
	for _, p := range contract.Patterns {
		result.PatternMatches[p.Name] = ""
		for _, raw := range header {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			if p.Pattern.MatchString(name) {
				result.PatternMatches[p.Name] = name
				patternHit[name] = struct{}{}
				break
			}
		}
		if result.PatternMatches[p.Name] == "" {
			result.IsValid = false
		}
	}

	for _, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := declared[name]; ok {
			continue
		}
		if _, ok := patternHit[name]; ok {
			continue
		}
		result.ExtraColumns = append(result.ExtraColumns, name)
	}

	return m, result
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
