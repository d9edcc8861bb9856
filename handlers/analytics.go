package handlers

import (
	"context"
	"net/http"

	"streamvault/services"
)

type chartFunc = func(context.Context) (*services.Chart, error)

// maxChartLimit bounds ?limit; each value gets its own cache key.
const maxChartLimit = 50

// charts maps the analytics API names onto their chart queries. Top-N
// charts read ?limit (default 10, at most maxChartLimit).
func (h *Handler) charts(r *http.Request) map[string]chartFunc {
	limit := min(queryInt(r, "limit", 10), maxChartLimit)
	return map[string]chartFunc{
		"top-series-viewers": func(ctx context.Context) (*services.Chart, error) {
			return h.Analytics.TopSeriesByViewers(ctx, limit)
		},
		"top-series-rating": func(ctx context.Context) (*services.Chart, error) {
			return h.Analytics.TopSeriesByRating(ctx, limit)
		},
		"series-by-country":      h.Analytics.SeriesByCountry,
		"series-by-type":         h.Analytics.SeriesByType,
		"monthly-feedback":       h.Analytics.MonthlyFeedback,
		"production-house-stats": h.Analytics.ProductionHouseStats,
		"rating-distribution":    h.Analytics.RatingDistribution,
		"top-countries-viewers":  h.Analytics.TopCountriesByViewers,
	}
}

func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	fn, ok := h.charts(r)[param(r, "chart")]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown chart"})
		return
	}
	list(w, r, fn)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	switch param(r, "report") {
	case "series-performance":
		list(w, r, h.Analytics.SeriesPerformanceReport)
	case "user-engagement":
		list(w, r, h.Analytics.UserEngagementReport)
	default:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown report"})
	}
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Analytics.CacheStatus())
}

// FlushCache drops ?key, or the whole cache when no key is given.
func (h *Handler) FlushCache(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	h.Analytics.FlushCache(key)
	scope := key
	if scope == "" {
		scope = "all"
	}
	writeJSON(w, http.StatusOK, map[string]string{"flushed": scope})
}
