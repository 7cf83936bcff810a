package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/ligas", handler.ListLeagues)
	mux.HandleFunc("GET /v1/equipos", handler.ListTeams)
	mux.HandleFunc("GET /v1/jugadores", handler.ListPlayers)
	mux.HandleFunc("GET /v1/partidos", handler.ListMatches)
	mux.HandleFunc("GET /v1/clasificacion", handler.ListStandings)
	mux.HandleFunc("GET /v1/estadisticas", handler.ListTeamStats)
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalToken string) {
	mux.Handle("POST /v1/internal/refresh", RequireInternalToken(internalToken, http.HandlerFunc(handler.RunRefresh)))
	mux.Handle("POST /v1/internal/cache/invalidate", RequireInternalToken(internalToken, http.HandlerFunc(handler.InvalidateCache)))
}
