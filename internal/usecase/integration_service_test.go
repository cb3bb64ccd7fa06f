package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/BigLep/roster-sync/internal/domain/schema"
	"github.com/BigLep/roster-sync/internal/platform/cache"
)

const (
	testFinalFormsFolder  = "folder-finalforms"
	testMailingListFolder = "folder-mailinglist"
)

type stubFileStore struct {
	blobs map[string]string
	err   error
}

func (s *stubFileStore) MostRecentFile(_ context.Context, folderID string) (FileInfo, error) {
	if s.err != nil {
		return FileInfo{}, s.err
	}
	if _, ok := s.blobs[folderID]; !ok {
		return FileInfo{}, fmt.Errorf("%w: folder %q has no files", ErrNotFound, folderID)
	}
	return FileInfo{ID: folderID + "-latest", Name: "export.csv", ProducedAt: time.Now()}, nil
}

func (s *stubFileStore) DownloadBlob(_ context.Context, fileID string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	for folder, blob := range s.blobs {
		if fileID == folder+"-latest" {
			return []byte(blob), nil
		}
	}
	return nil, fmt.Errorf("%w: file %q", ErrNotFound, fileID)
}

func questionnaireRows() []schema.Row {
	return []schema.Row{
		textRow("Timestamp", "Player First Name", "Player Last Name"),
		textRow("9/12/2025 18:30:05", "Alexandra", "Nguyen"),
		textRow("9/12/2025 19:02:11", "Sam", "Porter"),
	}
}

func newIntegrationFixture(t *testing.T, files *stubFileStore) *IntegrationService {
	t.Helper()

	fetcher := &stubFetcher{rows: questionnaireRows()}
	sheets := NewSheetCacheService(fetcher, cache.NewStore(), []SheetSource{
		{Name: "questionnaire", SpreadsheetID: "sheet-q", Range: "Form Responses 1!A1:D", TTL: time.Minute},
	}, nil)

	return NewIntegrationService(files, sheets, cache.NewStore(), IntegrationConfig{
		FinalFormsFolderID:  testFinalFormsFolder,
		MailingListFolderID: testMailingListFolder,
		QuestionnaireSource: "questionnaire",
		TTL:                 time.Minute,
	}, nil)
}

func testBlobs() map[string]string {
	return map[string]string{
		testFinalFormsFolder: "First Name,Last Name,Grade,Parent 1 Email,Parent 2 Email,Parents Signed,Student Signed,Physical Cleared\n" +
			"Alex,Nguyen,7,nguyen@example.org,,Yes,Yes,Yes\n" +
			"Jordan,Lee,8,lee@example.org,lee2@example.org,No,Yes,No\n",
		testMailingListFolder: "Members for team-families@example.org\n" +
			"Email address,Nickname\n" +
			"NGUYEN@example.org,\n" +
			"lee2@example.org,\n",
	}
}

func TestIntegrationService_GetIntegratedData(t *testing.T) {
	svc := newIntegrationFixture(t, &stubFileStore{blobs: testBlobs()})

	result, err := svc.GetIntegratedData(t.Context(), false)
	if err != nil {
		t.Fatalf("integration failed: %v", err)
	}
	if result.Stale {
		t.Fatal("fresh rebuild must not be stale")
	}

	profiles := result.Data.Profiles
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	alex := profiles[0]
	if alex.FirstName != "Alex" || alex.LastName != "Nguyen" {
		t.Fatalf("identity order must follow the forms source, got %+v", alex)
	}
	if !alex.Questionnaire {
		t.Fatal("Alexandra Nguyen should fuzzily match Alex Nguyen")
	}
	if !alex.Guardian1OnList {
		t.Fatal("mailing list membership is case-insensitive exact equality")
	}
	if alex.Guardian2OnList {
		t.Fatal("missing guardian email must not count as a member")
	}

	jordan := profiles[1]
	if jordan.Questionnaire {
		t.Fatal("Jordan Lee has no questionnaire response")
	}
	if jordan.Guardian1OnList || !jordan.Guardian2OnList {
		t.Fatalf("unexpected mailing list flags: %+v", jordan)
	}

	stats := result.Data.Statistics
	if stats.Players != 2 || stats.Questionnaire != 1 || stats.GuardianSigned != 1 {
		t.Fatalf("unexpected statistics: %+v", stats)
	}
	if stats.FullyComplete != 1 {
		t.Fatalf("only Alex is fully complete, got %d", stats.FullyComplete)
	}
}

func TestIntegrationService_Deterministic(t *testing.T) {
	svc := newIntegrationFixture(t, &stubFileStore{blobs: testBlobs()})

	first, err := svc.GetIntegratedData(t.Context(), false)
	if err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	second, err := svc.GetIntegratedData(t.Context(), true)
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}

	if !reflect.DeepEqual(first.Data, second.Data) {
		t.Fatal("identical inputs must produce identical integrated data")
	}
}

func TestIntegrationService_SourceFailureServesStale(t *testing.T) {
	files := &stubFileStore{blobs: testBlobs()}
	svc := newIntegrationFixture(t, files)

	if _, err := svc.GetIntegratedData(t.Context(), false); err != nil {
		t.Fatalf("prime failed: %v", err)
	}

	files.err = errors.New("drive unavailable")
	result, err := svc.GetIntegratedData(t.Context(), true)
	if err != nil {
		t.Fatalf("expected stale fallback, got %v", err)
	}
	if !result.Stale || len(result.Data.Profiles) != 2 {
		t.Fatalf("expected stale previous data, got %+v", result)
	}
}

func TestIntegrationService_SourceFailureWithoutPreviousData(t *testing.T) {
	svc := newIntegrationFixture(t, &stubFileStore{err: errors.New("drive unavailable")})

	if _, err := svc.GetIntegratedData(t.Context(), false); err == nil {
		t.Fatal("expected error when no previous value exists")
	}
}

func TestIntegrationService_Invalidate(t *testing.T) {
	files := &stubFileStore{blobs: testBlobs()}
	svc := newIntegrationFixture(t, files)

	if _, err := svc.GetIntegratedData(t.Context(), false); err != nil {
		t.Fatalf("prime failed: %v", err)
	}

	svc.Invalidate()
	files.err = errors.New("drive unavailable")
	if _, err := svc.GetIntegratedData(t.Context(), false); err == nil {
		t.Fatal("invalidate must drop the cached value")
	}
}
