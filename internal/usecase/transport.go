package usecase

import (
	"context"
	"time"

	"github.com/BigLep/roster-sync/internal/domain/schema"
)

// The core never talks to a provider API directly; it consumes these narrow
// interfaces and leaves network concerns (auth, retries, timeouts) to the
// implementing client.

// RangeFetcher reads a rectangular range of cells from a spreadsheet.
type RangeFetcher interface {
	FetchRange(ctx context.Context, spreadsheetID, rangeA1 string) ([]schema.Row, error)
}

// FileInfo describes a stored export file.
type FileInfo struct {
	ID         string
	Name       string
	ProducedAt time.Time
}

// FileStore locates and downloads source export files.
type FileStore interface {
	MostRecentFile(ctx context.Context, folderID string) (FileInfo, error)
	DownloadBlob(ctx context.Context, fileID string) ([]byte, error)
}

// RangeWriter applies synthesized rows back to a spreadsheet.
type RangeWriter interface {
	WriteRange(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]string) error
	AppendRows(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]string) error
}
