package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/BigLep/roster-sync/internal/domain/roster"
)

type integratedDataDTO struct {
	Profiles   []roster.IntegratedProfile `json:"profiles"`
	Statistics roster.Statistics          `json:"statistics"`
	ProducedAt time.Time                  `json:"producedAt"`
	Stale      bool                       `json:"stale"`
}

func (h *Handler) GetIntegrated(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetIntegrated")
	defer span.End()

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	result, err := h.integrationService.GetIntegratedData(ctx, force)
	if err != nil {
		h.logger.ErrorContext(ctx, "get integrated data failed", "force", force, "error", err)
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("X-Roster-Stale", strconv.FormatBool(result.Stale))
	writeSuccess(ctx, w, http.StatusOK, integratedDataDTO{
		Profiles:   result.Data.Profiles,
		Statistics: result.Data.Statistics,
		ProducedAt: result.ProducedAt,
		Stale:      result.Stale,
	})
}

func (h *Handler) InvalidateIntegrated(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InvalidateIntegrated")
	defer span.End()

	h.integrationService.Invalidate()
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "invalidated"})
}
