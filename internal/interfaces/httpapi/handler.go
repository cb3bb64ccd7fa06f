package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/BigLep/roster-sync/internal/platform/logging"
	"github.com/BigLep/roster-sync/internal/usecase"
)

type Handler struct {
	sheetService       *usecase.SheetCacheService
	integrationService *usecase.IntegrationService
	portalService      *usecase.PortalService
	synthesisService   *usecase.SynthesisService
	refreshService     *usecase.RefreshService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	sheetService *usecase.SheetCacheService,
	integrationService *usecase.IntegrationService,
	portalService *usecase.PortalService,
	synthesisService *usecase.SynthesisService,
	refreshService *usecase.RefreshService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		sheetService:       sheetService,
		integrationService: integrationService,
		portalService:      portalService,
		synthesisService:   synthesisService,
		refreshService:     refreshService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether at least one sheet source is configured.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	sources := h.sheetService.Sources()
	if len(sources) == 0 {
		writeError(ctx, w, fmt.Errorf("%w: no sheet sources configured", usecase.ErrDependencyUnavailable))
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]any{"status": "ok", "sources": sources})
}

func (h *Handler) decodeRequest(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil && err != io.EOF {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
