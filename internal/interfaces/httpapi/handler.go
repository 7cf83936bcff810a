package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tcastillov/futbol-data/internal/platform/logging"
	"github.com/tcastillov/futbol-data/internal/source"
	"github.com/tcastillov/futbol-data/internal/usecase"
)

type Handler struct {
	unified   *usecase.UnifiedDataService
	refresher *usecase.RefreshService
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(unified *usecase.UnifiedDataService, refresher *usecase.RefreshService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		unified:   unified,
		refresher: refresher,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]any{
		"status":  "ok",
		"fuentes": h.unified.Sources(),
	})
}

// listQueryParams is the shared query surface of the public read routes.
type listQueryParams struct {
	Liga      string `validate:"omitempty,alphanum,max=8"`
	Temporada string `validate:"omitempty,max=9"`
	Equipo    string `validate:"omitempty,max=64"`
}

func (h *Handler) parseQuery(r *http.Request) (source.Query, bool, error) {
	values := r.URL.Query()

	params := listQueryParams{
		Liga:      strings.TrimSpace(values.Get("liga")),
		Temporada: strings.TrimSpace(values.Get("temporada")),
		Equipo:    strings.TrimSpace(values.Get("equipo")),
	}
	if err := h.validator.Struct(params); err != nil {
		return source.Query{}, false, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	q := source.Query{
		LeagueCode: params.Liga,
		Season:     params.Temporada,
		TeamID:     params.Equipo,
	}

	for _, bound := range []struct {
		key string
		dst *time.Time
	}{
		{"desde", &q.DateFrom},
		{"hasta", &q.DateTo},
	} {
		raw := strings.TrimSpace(values.Get(bound.key))
		if raw == "" {
			continue
		}
		when, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return source.Query{}, false, fmt.Errorf("%w: %s must be yyyy-mm-dd", usecase.ErrInvalidInput, bound.key)
		}
		*bound.dst = when.UTC()
	}
	if !q.DateFrom.IsZero() && !q.DateTo.IsZero() && q.DateTo.Before(q.DateFrom) {
		return source.Query{}, false, fmt.Errorf("%w: hasta precedes desde", usecase.ErrInvalidInput)
	}

	debug, _ := strconv.ParseBool(values.Get("debug"))
	return q, debug, nil
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	q, debug, err := h.parseQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotateQuery(span, q)

	resolved, err := h.unified.GetLeagues(ctx, q)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]ligaDTO, 0, len(resolved))
	for _, item := range resolved {
		out = append(out, toLigaDTO(item, debug))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	q, debug, err := h.parseQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotateQuery(span, q)

	resolved, err := h.unified.GetTeams(ctx, q)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]equipoDTO, 0, len(resolved))
	for _, item := range resolved {
		out = append(out, toEquipoDTO(item, debug))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	q, debug, err := h.parseQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotateQuery(span, q)

	resolved, err := h.unified.GetPlayers(ctx, q)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]jugadorDTO, 0, len(resolved))
	for _, item := range resolved {
		out = append(out, toJugadorDTO(item, debug))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	q, debug, err := h.parseQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotateQuery(span, q)

	resolved, err := h.unified.GetMatches(ctx, q)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]partidoDTO, 0, len(resolved))
	for _, item := range resolved {
		out = append(out, toPartidoDTO(item, debug))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	q, debug, err := h.parseQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotateQuery(span, q)

	resolved, err := h.unified.GetStandings(ctx, q)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]clasificacionDTO, 0, len(resolved))
	for _, item := range resolved {
		out = append(out, toClasificacionDTO(item, debug))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListTeamStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamStats")
	defer span.End()

	q, debug, err := h.parseQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	annotateQuery(span, q)

	resolved, err := h.unified.GetTeamStats(ctx, q)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]estadisticasDTO, 0, len(resolved))
	for _, item := range resolved {
		out = append(out, toEstadisticasDTO(item, debug))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

type refreshRequest struct {
	Ligas      []string `json:"ligas"`
	Temporada  string   `json:"temporada"`
	Datos      []string `json:"datos"`
	MaxWorkers int      `json:"max_workers" validate:"omitempty,min=1,max=64"`
}

func (h *Handler) RunRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefresh")
	defer span.End()

	if h.refresher == nil {
		writeError(ctx, w, fmt.Errorf("%w: refresh is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req refreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSONBody(r, &req); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	result, err := h.refresher.Refresh(ctx, usecase.RefreshInput{
		Leagues:    req.Ligas,
		Season:     req.Temporada,
		Kinds:      req.Datos,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}

type invalidateRequest struct {
	Categoria string `json:"categoria" validate:"required,max=32"`
}

func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InvalidateCache")
	defer span.End()

	var req invalidateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	if err := h.unified.InvalidateCategory(ctx, req.Categoria); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"categoria": req.Categoria, "estado": "invalidada"})
}
