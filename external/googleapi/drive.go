package googleapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BigLep/roster-sync/internal/usecase"
)

type driveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ModifiedTime string `json:"modifiedTime"`
}

type driveFileList struct {
	Files []driveFile `json:"files"`
}

// MostRecentFile returns the newest file in a folder by modification time.
func (c *Client) MostRecentFile(ctx context.Context, folderID string) (usecase.FileInfo, error) {
	if strings.TrimSpace(folderID) == "" {
		return usecase.FileInfo{}, fmt.Errorf("%w: folder id is required", usecase.ErrInvalidInput)
	}

	query := url.Values{}
	query.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", folderID))
	query.Set("orderBy", "modifiedTime desc")
	query.Set("pageSize", "1")
	query.Set("fields", "files(id,name,modifiedTime)")
	fullURL := c.driveBaseURL + "/files?" + query.Encode()

	var payload driveFileList
	if err := c.doJSON(ctx, "GET", fullURL, nil, &payload); err != nil {
		return usecase.FileInfo{}, fmt.Errorf("list folder %q: %w", folderID, err)
	}
	if len(payload.Files) == 0 {
		return usecase.FileInfo{}, fmt.Errorf("%w: folder %q has no files", usecase.ErrNotFound, folderID)
	}

	newest := payload.Files[0]
	producedAt, err := time.Parse(time.RFC3339, newest.ModifiedTime)
	if err != nil {
		producedAt = time.Time{}
	}
	return usecase.FileInfo{ID: newest.ID, Name: newest.Name, ProducedAt: producedAt}, nil
}

// DownloadBlob fetches the raw contents of a file.
func (c *Client) DownloadBlob(ctx context.Context, fileID string) ([]byte, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("%w: file id is required", usecase.ErrInvalidInput)
	}
	fullURL := fmt.Sprintf("%s/files/%s?alt=media", c.driveBaseURL, url.PathEscape(fileID))
	raw, err := c.doRaw(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download file %q: %w", fileID, err)
	}
	return raw, nil
}
