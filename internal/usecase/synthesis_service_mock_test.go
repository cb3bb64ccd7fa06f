package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BigLep/roster-sync/internal/domain/schema"
	"github.com/BigLep/roster-sync/internal/platform/cache"
)

type mockRangeWriter struct {
	mock.Mock
}

func (m *mockRangeWriter) WriteRange(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]string) error {
	args := m.Called(ctx, spreadsheetID, rangeA1, rows)
	return args.Error(0)
}

func (m *mockRangeWriter) AppendRows(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]string) error {
	args := m.Called(ctx, spreadsheetID, rangeA1, rows)
	return args.Error(0)
}

func TestSynthesizeRoster_AppendTargetsConfiguredRange(t *testing.T) {
	fetcher := &routedFetcher{rowsByRange: map[string][]schema.Row{
		"Players!A1:Z":          {rosterHeaderRow()},
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

	writer := &mockRangeWriter{}
	writer.
		On("AppendRows", mock.Anything, "sheet-1", "Players!A1:Z", mock.MatchedBy(func(rows [][]string) bool {
			return len(rows) == 2
		})).
		Return(nil).
		Once()

	svc := NewSynthesisService(integration, sheets, writer, nil, SynthesisConfig{
		RosterSource: "roster",
	}, nil)
	svc.sleep = func(time.Duration) {}

	result, err := svc.SynthesizeRoster(t.Context())
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}
	if result.Added != 2 {
		t.Fatalf("expected 2 appended players, got %+v", result)
	}

	writer.AssertExpectations(t)
}
