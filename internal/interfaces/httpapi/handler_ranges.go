package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BigLep/roster-sync/internal/usecase"
)

type rangeSourceDTO struct {
	Name       string     `json:"name"`
	Range      string     `json:"range"`
	TTL        string     `json:"ttl"`
	Cached     bool       `json:"cached"`
	ProducedAt *time.Time `json:"producedAt,omitempty"`
	Age        string     `json:"age,omitempty"`
	Refreshing bool       `json:"refreshing"`
}

type rangeDataDTO struct {
	Source     string     `json:"source"`
	Range      string     `json:"range"`
	Rows       [][]string `json:"rows"`
	RowCount   int        `json:"rowCount"`
	ProducedAt time.Time  `json:"producedAt"`
	Stale      bool       `json:"stale"`
}

func (h *Handler) ListRanges(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRanges")
	defer span.End()

	items := make([]rangeSourceDTO, 0)
	for _, name := range h.sheetService.Sources() {
		src, ok := h.sheetService.Source(name)
		if !ok {
			continue
		}
		item := rangeSourceDTO{
			Name:  src.Name,
			Range: src.Range,
			TTL:   src.TTL.String(),
		}
		state := h.sheetService.CacheState(name)
		item.Cached = state.Cached
		item.Refreshing = state.Refreshing
		if state.Cached {
			producedAt := state.ProducedAt
			item.ProducedAt = &producedAt
			item.Age = state.Age.String()
		}
		items = append(items, item)
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetRange(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRange")
	defer span.End()

	source := strings.TrimSpace(r.PathValue("source"))
	rangeA1 := strings.TrimSpace(r.URL.Query().Get("range"))

	data, err := h.sheetService.GetCachedRange(ctx, source, rangeA1)
	if err != nil {
		h.logger.WarnContext(ctx, "get cached range failed", "source", source, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeRangeData(ctx, w, source, rangeA1, data)
}

func (h *Handler) RefreshRange(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshRange")
	defer span.End()

	source := strings.TrimSpace(r.PathValue("source"))
	rangeA1 := strings.TrimSpace(r.URL.Query().Get("range"))

	data, err := h.sheetService.ForceRefresh(ctx, source, rangeA1)
	if err != nil {
		h.logger.WarnContext(ctx, "force refresh failed", "source", source, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeRangeData(ctx, w, source, rangeA1, data)
}

func (h *Handler) InvalidateRange(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InvalidateRange")
	defer span.End()

	source := strings.TrimSpace(r.PathValue("source"))
	if _, ok := h.sheetService.Source(source); !ok {
		writeError(ctx, w, fmt.Errorf("%w: unknown source %q", usecase.ErrNotFound, source))
		return
	}

	h.sheetService.Invalidate(source)
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"source": source, "status": "invalidated"})
}

func (h *Handler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshAll")
	defer span.End()

	result, err := h.refreshService.RefreshAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "bulk refresh failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func writeRangeData(ctx context.Context, w http.ResponseWriter, source, rangeA1 string, data usecase.RangeData) {
	rows := make([][]string, 0, len(data.Rows))
	for _, row := range data.Rows {
		rows = append(rows, row.Texts())
	}

	w.Header().Set("X-Roster-Stale", strconv.FormatBool(data.Stale))
	writeSuccess(ctx, w, http.StatusOK, rangeDataDTO{
		Source:     source,
		Range:      rangeA1,
		Rows:       rows,
		RowCount:   len(rows),
		ProducedAt: data.ProducedAt,
		Stale:      data.Stale,
	})
}
