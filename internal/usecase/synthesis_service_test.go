package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BigLep/roster-sync/internal/domain/schema"
	"github.com/BigLep/roster-sync/internal/domain/synthesis"
	"github.com/BigLep/roster-sync/internal/platform/cache"
)

type routedFetcher struct {
	mu          sync.Mutex
	rowsByRange map[string][]schema.Row
}

func (f *routedFetcher) FetchRange(_ context.Context, _, rangeA1 string) ([]schema.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rowsByRange[rangeA1], nil
}

type stubWriter struct {
	mu       sync.Mutex
	writes   []rowWrite
	appends  [][]string
	writeErr error
}

func (w *stubWriter) WriteRange(_ context.Context, _, rangeA1 string, rows [][]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr != nil {
		return w.writeErr
	}
	w.writes = append(w.writes, rowWrite{rangeA1: rangeA1, row: rows[0]})
	return nil
}

func (w *stubWriter) AppendRows(_ context.Context, _, _ string, rows [][]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr != nil {
		return w.writeErr
	}
	w.appends = append(w.appends, rows...)
	return nil
}

type stubNotifier struct {
	mu      sync.Mutex
	results []synthesis.Result
	err     error
}

func (n *stubNotifier) PublishSynthesis(_ context.Context, result synthesis.Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, result)
	return n.err
}

// synthesisFixture wires a full pipeline on stubs: final forms and mailing
// list exports behind a FileStore, questionnaire and roster ranges behind one
// RangeFetcher, writes captured by a stubWriter.
func synthesisFixture(t *testing.T, rosterRows []schema.Row, notifier SynthesisNotifier) (*SynthesisService, *stubWriter, *routedFetcher) {
	t.Helper()

	fetcher := &routedFetcher{rowsByRange: map[string][]schema.Row{
		"Players!A1:Z":          rosterRows,
		"Form Responses 1!A1:D": questionnaireRows(),
	}}
	sheets := NewSheetCacheService(fetcher, cache.NewStore(), []SheetSource{
		{Name: "roster", SpreadsheetID: "sheet-1", Range: "Players!A1:Z", TTL: time.Minute},
		{Name: "questionnaire", SpreadsheetID: "sheet-q", Range: "Form Responses 1!A1:D", TTL: time.Minute},
	}, nil)

	integration := NewIntegrationService(&stubFileStore{blobs: testBlobs()}, sheets, cache.NewStore(), IntegrationConfig{
		FinalFormsFolderID:  testFinalFormsFolder,
		MailingListFolderID: testMailingListFolder,
		QuestionnaireSource: "questionnaire",
		TTL:                 time.Minute,
	}, nil)

	writer := &stubWriter{}
	svc := NewSynthesisService(integration, sheets, writer, notifier, SynthesisConfig{
		RosterSource: "roster",
		BatchSize:    2,
	}, nil)
	svc.sleep = func(time.Duration) {}

	return svc, writer, fetcher
}

// The integrated fixture yields two players: Alex Nguyen (all flags set,
// questionnaire matched, guardian 1 on the list) and Jordan Lee (guardian
// unsigned, no questionnaire, guardian 2 on the list).

func TestSynthesizeRoster_AppendsNewPlayers(t *testing.T) {
	svc, writer, _ := synthesisFixture(t, []schema.Row{rosterHeaderRow()}, nil)

	result, err := svc.SynthesizeRoster(t.Context())
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	if result.Added != 2 || result.Updated != 0 || result.Skipped != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(writer.appends) != 2 {
		t.Fatalf("expected 2 appended rows, got %d", len(writer.appends))
	}
	if result.RunID == "" {
		t.Fatal("run id must be assigned")
	}

	row := writer.appends[0]
	if row[0] != "Alex" || row[1] != "Nguyen" {
		t.Fatalf("unexpected appended row: %v", row)
	}
	if row[3] != "Yes" || row[6] != "Yes" {
		t.Fatalf("flags must render as Yes/No: %v", row)
	}
}

func TestSynthesizeRoster_FuzzyMatchUpdatesInsteadOfAppending(t *testing.T) {
	// The sheet spells the player "Alexandra"; the forms say "Alex". The
	// fuzzy resolver must claim the existing row rather than duplicate it.
	svc, writer, _ := synthesisFixture(t, []schema.Row{
		rosterHeaderRow(),
		textRow("Alexandra", "Nguyen", "6", "No", "No", "No", "No", "No", "No", "anguyen", "98211"),
	}, nil)

	result, err := svc.SynthesizeRoster(t.Context())
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	if result.Updated != 1 {
		t.Fatalf("expected 1 update, got %+v", result)
	}
	if result.Added != 1 {
		t.Fatalf("Jordan Lee is new and must be appended, got %+v", result)
	}
	for _, orphan := range result.Orphaned {
		if strings.Contains(orphan, "Nguyen") {
			t.Fatalf("a claimed row must not be reported orphaned: %v", result.Orphaned)
		}
	}

	if len(writer.writes) != 1 {
		t.Fatalf("expected 1 row write, got %d", len(writer.writes))
	}
	write := writer.writes[0]
	if write.rangeA1 != "Players!A2:K2" {
		t.Fatalf("unexpected write range: %q", write.rangeA1)
	}
	if write.row[0] != "Alex" || write.row[2] != "7" {
		t.Fatalf("mapped columns must be fully overwritten: %v", write.row)
	}
	if write.row[9] != "anguyen" || write.row[10] != "98211" {
		t.Fatalf("unmapped portal columns must survive the overwrite: %v", write.row)
	}
}

func TestSynthesizeRoster_SkipsUnchangedRows(t *testing.T) {
	svc, writer, _ := synthesisFixture(t, []schema.Row{
		rosterHeaderRow(),
		textRow("Alex", "Nguyen", "7", "Yes", "Yes", "Yes", "Yes", "Yes", "No", "anguyen", "98211"),
		textRow("Jordan", "Lee", "8", "No", "Yes", "No", "No", "No", "Yes", "", ""),
	}, nil)

	result, err := svc.SynthesizeRoster(t.Context())
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	if result.Skipped != 2 || result.Updated != 0 || result.Added != 0 {
		t.Fatalf("identical rows must be skipped: %+v", result)
	}
	if len(writer.writes) != 0 || len(writer.appends) != 0 {
		t.Fatal("no writes expected for unchanged rows")
	}
}

func TestSynthesizeRoster_ReportsOrphansWithoutDeleting(t *testing.T) {
	svc, writer, _ := synthesisFixture(t, []schema.Row{
		rosterHeaderRow(),
		textRow("Riley", "Vandermeer", "8", "Yes", "Yes", "Yes", "No", "No", "No", "rvan", "77001"),
	}, nil)

	result, err := svc.SynthesizeRoster(t.Context())
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	if len(result.Orphaned) != 1 || result.Orphaned[0] != "Riley Vandermeer" {
		t.Fatalf("unexpected orphans: %v", result.Orphaned)
	}
	for _, write := range writer.writes {
		if write.rangeA1 == "Players!A2:K2" {
			t.Fatal("orphaned rows must be left untouched")
		}
	}
}

func TestSynthesizeRoster_WriteFailureContinuesRun(t *testing.T) {
	writerErr := errors.New("quota exceeded")
	svc, writer, _ := synthesisFixture(t, []schema.Row{rosterHeaderRow()}, nil)
	writer.writeErr = writerErr

	result, err := svc.SynthesizeRoster(t.Context())
	if err != nil {
		t.Fatalf("run must survive row write failures: %v", err)
	}

	if result.WriteErrors != 2 {
		t.Fatalf("expected 2 write errors, got %d", result.WriteErrors)
	}
}

func TestSynthesizeRoster_SchemaFailureAbortsBeforeWriting(t *testing.T) {
	svc, writer, _ := synthesisFixture(t, []schema.Row{textRow("Wrong", "Header")}, nil)

	_, err := svc.SynthesizeRoster(t.Context())
	if err == nil {
		t.Fatal("expected schema validation failure")
	}
	var validationErr *schema.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *schema.ValidationError, got %v", err)
	}
	if len(writer.writes) != 0 || len(writer.appends) != 0 {
		t.Fatal("no writes may happen against an invalid sheet")
	}
}

func TestSynthesizeRoster_NotifiesAfterRun(t *testing.T) {
	notifier := &stubNotifier{}
	svc, _, _ := synthesisFixture(t, []schema.Row{rosterHeaderRow()}, notifier)

	result, err := svc.SynthesizeRoster(t.Context())
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	if len(notifier.results) != 1 || notifier.results[0].RunID != result.RunID {
		t.Fatalf("notifier must receive the run result: %+v", notifier.results)
	}
}

func TestSynthesizeRoster_NotifierFailureIsNonFatal(t *testing.T) {
	notifier := &stubNotifier{err: errors.New("webhook down")}
	svc, _, _ := synthesisFixture(t, []schema.Row{rosterHeaderRow()}, notifier)

	if _, err := svc.SynthesizeRoster(t.Context()); err != nil {
		t.Fatalf("notification failure must not fail the run: %v", err)
	}
}
