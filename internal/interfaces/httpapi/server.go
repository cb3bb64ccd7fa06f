package httpapi

import (
	"net/http"

	"github.com/BigLep/roster-sync/internal/platform/logging"
)

func NewRouter(handler *Handler, logger *logging.Logger, corsAllowedOrigins []string) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerRangeRoutes(mux, handler)
	registerRosterRoutes(mux, handler)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)
}

func registerRangeRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/ranges", handler.ListRanges)
	mux.HandleFunc("GET /v1/ranges/{source}", handler.GetRange)
	mux.HandleFunc("POST /v1/ranges/{source}/refresh", handler.RefreshRange)
	mux.HandleFunc("DELETE /v1/ranges/{source}", handler.InvalidateRange)
	mux.HandleFunc("POST /v1/refresh", handler.RefreshAll)
}

func registerRosterRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/roster/integrated", handler.GetIntegrated)
	mux.HandleFunc("DELETE /v1/roster/integrated", handler.InvalidateIntegrated)
	mux.HandleFunc("GET /v1/roster/portal", handler.ListPortalEntries)
	mux.HandleFunc("GET /v1/roster/portal/resolve", handler.ResolvePortalExternalID)
	mux.HandleFunc("GET /v1/roster/portal/{externalID}", handler.GetPortalEntryByExternalID)
	mux.HandleFunc("POST /v1/roster/synthesize", handler.SynthesizeRoster)
	mux.HandleFunc("POST /v1/roster/validate-header", handler.ValidateRosterHeader)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
