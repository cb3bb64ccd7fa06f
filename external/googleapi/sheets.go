package googleapi

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/BigLep/roster-sync/internal/domain/schema"
	"github.com/BigLep/roster-sync/internal/usecase"
)

// valueRange is the Sheets API wire shape for writes.
type valueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values"`
}

// readValueRange is the read-side shape: the provider returns typed
// scalars, so a numeric or boolean cell arrives as a JSON number or bool
// rather than a string.
type readValueRange struct {
	Values [][]any `json:"values"`
}

// hyperlinkFormula matches =HYPERLINK("url","text") as the FORMULA render
// option returns it. Reads request formulas so that linked cells keep both
// the display text and the target URL.
var hyperlinkFormula = regexp.MustCompile(`(?i)^=HYPERLINK\(\s*"([^"]*)"\s*[,;]\s*"([^"]*)"\s*\)$`)

func (c *Client) FetchRange(ctx context.Context, spreadsheetID, rangeA1 string) ([]schema.Row, error) {
	if strings.TrimSpace(spreadsheetID) == "" || strings.TrimSpace(rangeA1) == "" {
		return nil, fmt.Errorf("%w: spreadsheet id and range are required", usecase.ErrInvalidInput)
	}

	fullURL := fmt.Sprintf("%s/spreadsheets/%s/values/%s?valueRenderOption=FORMULA",
		c.sheetsBaseURL,
		url.PathEscape(spreadsheetID),
		url.PathEscape(rangeA1),
	)

	var payload readValueRange
	if err := c.doJSON(ctx, "GET", fullURL, nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch range %q: %w", rangeA1, err)
	}

	rows := make([]schema.Row, 0, len(payload.Values))
	for _, raw := range payload.Values {
		row := make(schema.Row, 0, len(raw))
		for _, cell := range raw {
			row = append(row, parseCell(cellText(cell)))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cellText renders a decoded scalar cell as its sheet text.
func cellText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func (c *Client) WriteRange(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	fullURL := fmt.Sprintf("%s/spreadsheets/%s/values/%s?valueInputOption=RAW",
		c.sheetsBaseURL,
		url.PathEscape(spreadsheetID),
		url.PathEscape(rangeA1),
	)
	body := valueRange{Range: rangeA1, MajorDimension: "ROWS", Values: rows}
	if err := c.doJSON(ctx, "PUT", fullURL, body, nil); err != nil {
		return fmt.Errorf("write range %q: %w", rangeA1, err)
	}
	return nil
}

func (c *Client) AppendRows(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	fullURL := fmt.Sprintf("%s/spreadsheets/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		c.sheetsBaseURL,
		url.PathEscape(spreadsheetID),
		url.PathEscape(rangeA1),
	)
	body := valueRange{MajorDimension: "ROWS", Values: rows}
	if err := c.doJSON(ctx, "POST", fullURL, body, nil); err != nil {
		return fmt.Errorf("append rows to %q: %w", rangeA1, err)
	}
	return nil
}

func parseCell(raw string) schema.CellValue {
	if m := hyperlinkFormula.FindStringSubmatch(strings.TrimSpace(raw)); m != nil {
		return schema.Linked(m[2], m[1])
	}
	return schema.Plain(raw)
}
