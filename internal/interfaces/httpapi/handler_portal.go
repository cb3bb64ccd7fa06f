package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/BigLep/roster-sync/internal/domain/portal"
	"github.com/BigLep/roster-sync/internal/usecase"
)

type portalEntryDTO struct {
	LookupKey  string `json:"lookupKey"`
	ExternalID string `json:"externalId"`
	RowIndex   int    `json:"rowIndex"`
}

func (h *Handler) GetPortalEntryByExternalID(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPortalEntryByExternalID")
	defer span.End()

	externalID := strings.TrimSpace(r.PathValue("externalID"))
	entry, err := h.portalService.FindByExternalID(ctx, externalID)
	if err != nil {
		h.logger.WarnContext(ctx, "portal lookup by external id failed", "external_id", externalID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if entry == nil {
		writeError(ctx, w, fmt.Errorf("%w: portal entry %q", usecase.ErrNotFound, externalID))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, portalEntryToDTO(*entry))
}

func (h *Handler) ResolvePortalExternalID(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolvePortalExternalID")
	defer span.End()

	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		writeError(ctx, w, fmt.Errorf("%w: query parameter key is required", usecase.ErrInvalidInput))
		return
	}

	externalID, err := h.portalService.FindExternalIDByLookupKey(ctx, key)
	if err != nil {
		h.logger.WarnContext(ctx, "portal lookup by key failed", "key", key, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"lookupKey": key, "externalId": externalID})
}

func (h *Handler) ListPortalEntries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPortalEntries")
	defer span.End()

	entries, err := h.portalService.Entries(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list portal entries failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]portalEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, portalEntryToDTO(entry))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func portalEntryToDTO(entry portal.Entry) portalEntryDTO {
	return portalEntryDTO{
		LookupKey:  entry.LookupKey,
		ExternalID: entry.ExternalID,
		RowIndex:   entry.RowIndex,
	}
}
