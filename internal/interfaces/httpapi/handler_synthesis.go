package httpapi

import (
	"net/http"

	"github.com/BigLep/roster-sync/internal/domain/roster"
	"github.com/BigLep/roster-sync/internal/domain/schema"
)

func (h *Handler) SynthesizeRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SynthesizeRoster")
	defer span.End()

	result, err := h.synthesisService.SynthesizeRoster(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "roster synthesis failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

type validateHeaderRequest struct {
	Header []string `json:"header" validate:"required,min=1"`
}

// ValidateRosterHeader checks a submitted header row against the roster
// sheet contract without touching any remote spreadsheet.
func (h *Handler) ValidateRosterHeader(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ValidateRosterHeader")
	defer span.End()

	var req validateHeaderRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	_, result := schema.Validate(req.Header, roster.SheetContract())
	writeSuccess(ctx, w, http.StatusOK, result)
}
