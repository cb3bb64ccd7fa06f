package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BigLep/roster-sync/internal/domain/roster"
	"github.com/BigLep/roster-sync/internal/domain/schema"
	"github.com/BigLep/roster-sync/internal/domain/synthesis"
	"github.com/BigLep/roster-sync/internal/platform/logging"
	"github.com/BigLep/roster-sync/internal/platform/textmatch"
)

// SynthesisConfig tunes the write pacing against the provider's rate limit.
type SynthesisConfig struct {
	RosterSource string
	BatchSize    int
	BatchDelay   time.Duration
	RowDelay     time.Duration
}

// SynthesisNotifier publishes a change summary after a run. Optional.
type SynthesisNotifier interface {
	PublishSynthesis(ctx context.Context, result synthesis.Result) error
}

// SynthesisService reconciles integrated profiles against the authoritative
// roster sheet: full-overwrite updates for matched players, appends for new
// ones, orphan reporting for rows with no incoming match. It never deletes.
type SynthesisService struct {
	integration *IntegrationService
	sheets      *SheetCacheService
	writer      RangeWriter
	notifier    SynthesisNotifier
	cfg         SynthesisConfig
	sleep       func(time.Duration)
	logger      *logging.Logger
}

func NewSynthesisService(
	integration *IntegrationService,
	sheets *SheetCacheService,
	writer RangeWriter,
	notifier SynthesisNotifier,
	cfg SynthesisConfig,
	logger *logging.Logger,
) *SynthesisService {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 10
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SynthesisService{
		integration: integration,
		sheets:      sheets,
		writer:      writer,
		notifier:    notifier,
		cfg:         cfg,
		sleep:       time.Sleep,
		logger:      logger,
	}
}

type existingPlayer struct {
	first    string
	last     string
	sheetRow int // 1-based sheet row number
	cells    []string
}

func (p existingPlayer) identity() string {
	return strings.TrimSpace(p.first + " " + p.last)
}

type rowWrite struct {
	identity string
	rangeA1  string
	row      []string
}

// SynthesizeRoster diffs the latest integrated profiles against the roster
// sheet and applies batched, rate-limited writes. Row-level write failures
// are logged and skipped; schema validation failures abort before any write.
func (s *SynthesisService) SynthesizeRoster(ctx context.Context) (synthesis.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SynthesisService.SynthesizeRoster")
	defer span.End()

	integrated, err := s.integration.GetIntegratedData(ctx, false)
	if err != nil {
		return synthesis.Result{}, fmt.Errorf("load integrated data: %w", err)
	}

	src, ok := s.sheets.Source(s.cfg.RosterSource)
	if !ok {
		return synthesis.Result{}, fmt.Errorf("%w: roster source %q not configured", ErrNotFound, s.cfg.RosterSource)
	}

	// Diff against a fresh read; reconciling against an hours-old cached
	// view would re-apply changes the sheet already has.
	data, err := s.sheets.ForceRefresh(ctx, s.cfg.RosterSource, "")
	if err != nil {
		return synthesis.Result{}, fmt.Errorf("refresh roster rows: %w", err)
	}
	if len(data.Rows) == 0 {
		return synthesis.Result{}, fmt.Errorf("%w: roster range is empty", ErrNoData)
	}

	header := data.Rows[0].Texts()
	schemaMap, validation := schema.Validate(header, roster.SheetContract())
	if !validation.IsValid {
		return synthesis.Result{}, validation.Err()
	}

	existing := parseExistingPlayers(data.Rows, schemaMap)

	result := synthesis.Result{RunID: uuid.NewString()}
	var updates []rowWrite
	var appends []rowWrite

	fields := roster.SheetFields()
	sheetName := sheetNameOf(src.Range)
	lastCol := columnLetter(len(header) - 1)

	existingNames := make([]textmatch.Name, len(existing))
	for i, e := range existing {
		existingNames[i] = textmatch.Name{First: e.first, Last: e.last}
	}

	for _, profile := range integrated.Data.Profiles {
		matchIdx := matchExisting(profile, existing, existingNames)

		if matchIdx < 0 {
			row := buildRow(profile, fields, schemaMap, len(header), nil)
			appends = append(appends, rowWrite{identity: profile.Identity(), row: row})
			result.Changes = append(result.Changes, synthesis.ChangeLogEntry{
				Identity: profile.Identity(),
				Action:   synthesis.ActionAdded,
			})
			result.Added++
			continue
		}

		old := existing[matchIdx]
		row := buildRow(profile, fields, schemaMap, len(header), old.cells)
		diffs := diffMapped(old.cells, row, fields, schemaMap)
		if len(diffs) == 0 {
			result.Changes = append(result.Changes, synthesis.ChangeLogEntry{
				Identity: profile.Identity(),
				Action:   synthesis.ActionSkipped,
				Reason:   "no column differs",
			})
			result.Skipped++
			continue
		}

		rangeA1 := fmt.Sprintf("%s!A%d:%s%d", sheetName, old.sheetRow, lastCol, old.sheetRow)
		updates = append(updates, rowWrite{identity: profile.Identity(), rangeA1: rangeA1, row: row})
		result.Changes = append(result.Changes, synthesis.ChangeLogEntry{
			Identity:   profile.Identity(),
			Action:     synthesis.ActionUpdated,
			FieldDiffs: diffs,
		})
		result.Updated++
	}

	result.Orphaned = findOrphans(existing, integrated.Data.Profiles)

	result.WriteErrors = s.applyUpdates(ctx, src.SpreadsheetID, updates)
	result.WriteErrors += s.applyAppends(ctx, src.SpreadsheetID, src.Range, appends)

	// The sheet changed underneath the raw cache; drop it so the next read
	// (and the portal index) sees the synthesized rows.
	if result.Added > 0 || result.Updated > 0 {
		s.sheets.Invalidate(s.cfg.RosterSource)
	}

	s.logger.InfoContext(ctx, "roster synthesis complete",
		"run_id", result.RunID,
		"added", result.Added,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"orphaned", len(result.Orphaned),
		"write_errors", result.WriteErrors,
	)

	if s.notifier != nil {
		if err := s.notifier.PublishSynthesis(ctx, result); err != nil {
			s.logger.WarnContext(ctx, "synthesis notification failed", "error", err)
		}
	}

	return result, nil
}

// matchExisting tries exact identity equality first, then falls back to the
// fuzzy resolver at the same strict threshold.
func matchExisting(profile roster.IntegratedProfile, existing []existingPlayer, names []textmatch.Name) int {
	for i, e := range existing {
		if strings.EqualFold(e.first, profile.FirstName) && strings.EqualFold(e.last, profile.LastName) {
			return i
		}
	}

	match := textmatch.BestMatch(textmatch.Name{First: profile.FirstName, Last: profile.LastName}, names)
	if match.IsMatch {
		return match.Index
	}
	return -1
}

// findOrphans reports existing rows no incoming profile claims with
// confidence above the match threshold. Orphans are left untouched.
func findOrphans(existing []existingPlayer, profiles []roster.IntegratedProfile) []string {
	incoming := make([]textmatch.Name, len(profiles))
	for i, p := range profiles {
		incoming[i] = textmatch.Name{First: p.FirstName, Last: p.LastName}
	}

	var orphaned []string
	for _, e := range existing {
		match := textmatch.BestMatch(textmatch.Name{First: e.first, Last: e.last}, incoming)
		if !match.IsMatch {
			orphaned = append(orphaned, e.identity())
		}
	}
	return orphaned
}

// buildRow produces the row a player should have. Mapped columns are always
// sourced from the profile (full overwrite, never merged); unmapped columns
// (portal ids, hand-maintained extras) keep their existing cell text so a
// synthesis run cannot blank them.
func buildRow(profile roster.IntegratedProfile, fields []roster.SheetField, m schema.Map, width int, old []string) []string {
	row := make([]string, width)
	for i := range row {
		if old != nil && i < len(old) {
			row[i] = old[i]
		}
	}
	for _, field := range fields {
		idx, ok := m.Index(field.Column)
		if !ok || idx >= width {
			continue
		}
		row[idx] = field.Value(profile)
	}
	return row
}

func diffMapped(old, new []string, fields []roster.SheetField, m schema.Map) map[string]synthesis.FieldDiff {
	diffs := make(map[string]synthesis.FieldDiff)
	for _, field := range fields {
		idx, ok := m.Index(field.Column)
		if !ok {
			continue
		}
		oldVal := ""
		if idx < len(old) {
			oldVal = strings.TrimSpace(old[idx])
		}
		newVal := ""
		if idx < len(new) {
			newVal = strings.TrimSpace(new[idx])
		}
		if oldVal != newVal {
			diffs[field.Column] = synthesis.FieldDiff{Old: oldVal, New: newVal}
		}
	}
	if len(diffs) == 0 {
		return nil
	}
	return diffs
}

// applyUpdates writes rows in fixed-size batches with an inter-batch delay
// and a smaller inter-row delay, respecting the provider's rate limit. One
// row's failure never aborts the rest of the batch.
func (s *SynthesisService) applyUpdates(ctx context.Context, spreadsheetID string, updates []rowWrite) int {
	failures := 0
	for batchStart := 0; batchStart < len(updates); batchStart += s.cfg.BatchSize {
		if batchStart > 0 && s.cfg.BatchDelay > 0 {
			s.sleep(s.cfg.BatchDelay)
		}
		batchEnd := min(batchStart+s.cfg.BatchSize, len(updates))
		for i, write := range updates[batchStart:batchEnd] {
			if i > 0 && s.cfg.RowDelay > 0 {
				s.sleep(s.cfg.RowDelay)
			}
			if err := s.writer.WriteRange(ctx, spreadsheetID, write.rangeA1, [][]string{write.row}); err != nil {
				s.logger.ErrorContext(ctx, "row write failed",
					"identity", write.identity,
					"range", write.rangeA1,
					"error", err,
				)
				failures++
			}
		}
	}
	return failures
}

func (s *SynthesisService) applyAppends(ctx context.Context, spreadsheetID, rangeA1 string, appends []rowWrite) int {
	failures := 0
	for batchStart := 0; batchStart < len(appends); batchStart += s.cfg.BatchSize {
		if batchStart > 0 && s.cfg.BatchDelay > 0 {
			s.sleep(s.cfg.BatchDelay)
		}
		batchEnd := min(batchStart+s.cfg.BatchSize, len(appends))
		batch := appends[batchStart:batchEnd]
		rows := make([][]string, len(batch))
		for i, write := range batch {
			rows[i] = write.row
		}
		if err := s.writer.AppendRows(ctx, spreadsheetID, rangeA1, rows); err != nil {
			for _, write := range batch {
				s.logger.ErrorContext(ctx, "row append failed",
					"identity", write.identity,
					"error", err,
				)
				failures++
			}
		}
	}
	return failures
}

func parseExistingPlayers(rows []schema.Row, m schema.Map) []existingPlayer {
	firstIdx, _ := m.Index(roster.ColFirstName)
	lastIdx, _ := m.Index(roster.ColLastName)

	players := make([]existingPlayer, 0, len(rows)-1)
	for i, row := range rows[1:] {
		texts := row.Texts()
		first := cellAt(texts, firstIdx)
		last := cellAt(texts, lastIdx)
		if first == "" && last == "" {
			continue
		}
		players = append(players, existingPlayer{
			first:    first,
			last:     last,
			sheetRow: i + 2,
			cells:    texts,
		})
	}
	return players
}

func sheetNameOf(rangeA1 string) string {
	if i := strings.Index(rangeA1, "!"); i >= 0 {
		return rangeA1[:i]
	}
	return rangeA1
}

// columnLetter converts a zero-based column index to its A1 letter(s).
func columnLetter(idx int) string {
	if idx < 0 {
		return "A"
	}
	letters := ""
	for {
		letters = string(rune('A'+idx%26)) + letters
		idx = idx/26 - 1
		if idx < 0 {
			break
		}
	}
	return letters
}
