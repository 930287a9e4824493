package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/pages"
	"superstore-dashboard/internal/services"
)

const cacheControl = "public, max-age=60"

type APIHandlers struct {
	router *pages.Router
	store  *services.Store
	logger *slog.Logger
}

func NewAPIHandlers(router *pages.Router, store *services.Store, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		router: router,
		store:  store,
		logger: logger,
	}
}

// parseSelection builds the filter snapshot from query parameters. An
// absent parameter selects everything; a parameter present with only
// empty values is a deliberately emptied selector and matches nothing.
func parseSelection(r *http.Request) (services.Selection, error) {
	q := r.URL.Query()
	sel := services.Selection{
		Regions:    multiValue(q, "region"),
		Categories: multiValue(q, "category"),
		Segments:   multiValue(q, "segment"),
		SalesReps:  multiValue(q, "rep"),
	}

	var err error
	if sel.Start, err = dateValue(q.Get("start")); err != nil {
		return services.Selection{}, apperrors.BadRequestWrap(err, "invalid start date")
	}
	if sel.End, err = dateValue(q.Get("end")); err != nil {
		return services.Selection{}, apperrors.BadRequestWrap(err, "invalid end date")
	}

	if raw := q.Get("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return services.Selection{}, apperrors.BadRequestWrap(err, "invalid top_n")
		}
		sel.TopN = n
	}
	return sel, nil
}

// multiValue supports both repeated parameters and comma-separated
// lists. nil means the parameter was absent entirely.
func multiValue(q map[string][]string, key string) []string {
	raw, present := q[key]
	if !present {
		return nil
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}

func dateValue(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

// HandlePage renders one of the six dashboard pages for the request's
// filter selection.
func (h *APIHandlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	sel, err := parseSelection(r)
	if err != nil {
		apperrors.WriteError(w, h.logger, err, requestID)
		return
	}

	payload, err := h.router.Render(pages.Page(r.PathValue("page")), sel)
	if err != nil {
		apperrors.WriteError(w, h.logger, err, requestID)
		return
	}

	apperrors.WriteSuccessWithHeaders(w, payload, map[string]string{
		"Cache-Control": cacheControl,
	})
}

// HandlePages lists the menu in order.
func (h *APIHandlers) HandlePages(w http.ResponseWriter, r *http.Request) {
	type pageInfo struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	menu := make([]pageInfo, 0, len(pages.All()))
	for _, p := range pages.All() {
		menu = append(menu, pageInfo{ID: string(p), Title: p.Title()})
	}
	apperrors.WriteSuccess(w, menu)
}

// HandleFilters exposes the observed filter domain so the sidebar can
// populate its selectors and clamp its date pickers.
func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	minDate, maxDate := h.store.DateBounds()

	apperrors.WriteSuccessWithHeaders(w, map[string]any{
		"regions":    h.store.Regions(),
		"categories": h.store.Categories(),
		"segments":   h.store.Segments(),
		"sales_reps": h.store.SalesReps(),
		"min_date":   minDate.Format("2006-01-02"),
		"max_date":   maxDate.Format("2006-01-02"),
		"top_n": map[string]int{
			"min":     services.MinTopN,
			"max":     services.MaxTopN,
			"default": services.DefaultTopN,
		},
	}, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, h.store.Stats())
}
