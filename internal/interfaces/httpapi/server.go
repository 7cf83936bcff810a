package httpapi

import (
	"net/http"

	"github.com/tcastillov/futbol-data/internal/platform/logging"
)

func NewRouter(handler *Handler, logger *logging.Logger, internalToken string) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerPublicRoutes(mux, handler)
	registerInternalRoutes(mux, handler, internalToken)

	return RequestTracing(RequestLogging(logger, recoverPanic(logger, mux)))
}
