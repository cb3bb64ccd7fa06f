package questionnaire

import (
	"errors"
	"testing"
	"time"

	"github.com/BigLep/roster-sync/internal/domain/tabular"
)

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"Timestamp", "Player First Name", "Player Last Name", "Shirt Size"},
		{"9/12/2025 18:30:05", "Alex", "Nguyen", "M"},
		{"", "Sam", "Porter", "L"},
		{"9/13/2025 08:01:22", "", "Missing", ""},
		{"garbage", "Jordan", "Lee", "S"},
	}

	responses, err := ParseRows(rows, DefaultResponseColumns())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(responses) != 3 {
		t.Fatalf("expected 3 usable responses, got %d", len(responses))
	}

	want := time.Date(2025, 9, 12, 18, 30, 5, 0, time.UTC)
	if !responses[0].SubmittedAt.Equal(want) {
		t.Fatalf("unexpected timestamp: %v", responses[0].SubmittedAt)
	}
	if !responses[1].SubmittedAt.IsZero() {
		t.Fatalf("blank timestamp should stay zero, got %v", responses[1].SubmittedAt)
	}
	if !responses[2].SubmittedAt.IsZero() {
		t.Fatalf("unparseable timestamp should stay zero and keep the row, got %v", responses[2].SubmittedAt)
	}
}

func TestParseRows_HeaderNotFound(t *testing.T) {
	_, err := ParseRows([][]string{{"a", "b"}}, DefaultResponseColumns())
	if !errors.Is(err, tabular.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestParseRows_AllRowsDropped(t *testing.T) {
	rows := [][]string{
		{"Timestamp", "Player First Name", "Player Last Name"},
		{"9/12/2025 18:30:05", "", ""},
	}
	_, err := ParseRows(rows, DefaultResponseColumns())
	if !errors.Is(err, tabular.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}
