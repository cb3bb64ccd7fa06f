// Package portal models the secondary index derived from the roster sheet's
// portal columns: opaque external ids keyed by a human-entered lookup key.
package portal

import (
	"strings"

	"github.com/BigLep/roster-sync/internal/domain/schema"
)

// Values shorter than this are treated as placeholder noise, not real keys.
const MinValueLength = 2

// Entry is one derived index row. RawRow is the full source row snapshot so
// callers can render context without another sheet read.
type Entry struct {
	LookupKey  string     `json:"lookupKey"`
	ExternalID string     `json:"externalId"`
	RowIndex   int        `json:"rowIndex"`
	RawRow     schema.Row `json:"-"`
}

// Usable reports whether a candidate (lookupKey, externalID) pair should be
// indexed: both present, above the length floor, and neither echoing the
// header text. Repeated header rows inside the data range are a recurring
// sheet-editing accident.
func Usable(lookupKey, externalID, keyHeader, idHeader string) bool {
	lookupKey = strings.TrimSpace(lookupKey)
	externalID = strings.TrimSpace(externalID)
	if len(lookupKey) <= MinValueLength || len(externalID) <= MinValueLength {
		return false
	}
	if strings.EqualFold(lookupKey, keyHeader) || strings.EqualFold(externalID, idHeader) {
		return false
	}
	return true
}
