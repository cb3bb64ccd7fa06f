// Package synthesis models the change log produced when integrated profiles
// are reconciled against the authoritative roster sheet.
package synthesis

// Action is what the reconciliation decided for one player.
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// FieldDiff is one overwritten column value. Every overwritten field is
// surfaced here so the source-of-truth-wins policy stays auditable.
type FieldDiff struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ChangeLogEntry records the outcome for one player in one synthesis run.
type ChangeLogEntry struct {
	Identity   string               `json:"identity"`
	Action     Action               `json:"action"`
	FieldDiffs map[string]FieldDiff `json:"fieldDiffs,omitempty"`
	Reason     string               `json:"reason,omitempty"`
}

// Result summarizes a synthesis run. Orphaned rows are reported but never
// deleted from the sheet.
type Result struct {
	RunID       string           `json:"runId"`
	Added       int              `json:"added"`
	Updated     int              `json:"updated"`
	Skipped     int              `json:"skipped"`
	WriteErrors int              `json:"writeErrors"`
	Orphaned    []string         `json:"orphaned"`
	Changes     []ChangeLogEntry `json:"changes"`
}
