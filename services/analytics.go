package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"streamvault/cache"
	"streamvault/database"
)

// Chart is the labels/values shape the dashboard charts consume.
type Chart struct {
	Labels   []string             `json:"labels"`
	Data     []float64            `json:"data,omitempty"`
	Datasets map[string][]float64 `json:"datasets,omitempty"`
}

type CacheStatus struct {
	Enabled bool `json:"enabled"`
	cache.Stats
}

type AnalyticsService struct {
	store *database.Store
	ttl   time.Duration
}

// NewAnalyticsService serves chart data through the read cache; ttl of zero
// uses the store default.
func NewAnalyticsService(store *database.Store, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{store: store, ttl: ttl}
}

func (s *AnalyticsService) chart(ctx context.Context, key, labelCol, valueCol, query string, args ...any) (*Chart, error) {
	rows, err := s.store.CachedQuery(ctx, key, s.ttl, query, args...)
	if err != nil {
		return nil, err
	}
	c := &Chart{Labels: make([]string, 0, len(rows)), Data: make([]float64, 0, len(rows))}
	for _, row := range rows {
		c.Labels = append(c.Labels, interfaceToString(row[labelCol]))
		c.Data = append(c.Data, round2(interfaceToFloat64(row[valueCol])))
	}
	return c, nil
}

func (s *AnalyticsService) TopSeriesByViewers(ctx context.Context, n int) (*Chart, error) {
	return s.chart(ctx, fmt.Sprintf("top_series_viewers_%d", n), "ws_name", "total_viewers", `
		SELECT ws.ws_name, COALESCE(SUM(e.total_viewers), 0)::bigint AS total_viewers
		FROM web_series ws LEFT JOIN episodes e ON e.ws_id = ws.ws_id
		GROUP BY ws.ws_id, ws.ws_name
		ORDER BY total_viewers DESC, ws.ws_name
		LIMIT $1`, n)
}

func (s *AnalyticsService) TopSeriesByRating(ctx context.Context, n int) (*Chart, error) {
	return s.chart(ctx, fmt.Sprintf("top_series_rating_%d", n), "ws_name", "avg_rating", `
		SELECT ws.ws_name, AVG(f.rating)::float8 AS avg_rating, COUNT(*) AS review_count
		FROM web_series ws JOIN feedback f ON f.ws_id = ws.ws_id
		GROUP BY ws.ws_id, ws.ws_name
		ORDER BY avg_rating DESC, review_count DESC
		LIMIT $1`, n)
}

func (s *AnalyticsService) SeriesByCountry(ctx context.Context) (*Chart, error) {
	return s.chart(ctx, "series_by_country", "country_name", "series_count", `
		SELECT c.country_name, COUNT(sc.ws_id) AS series_count
		FROM countries c JOIN series_countries sc ON sc.country_id = c.country_id
		GROUP BY c.country_name
		ORDER BY series_count DESC, c.country_name`)
}

func (s *AnalyticsService) SeriesByType(ctx context.Context) (*Chart, error) {
	return s.chart(ctx, "series_by_type", "ws_type_name", "series_count", `
		SELECT st.ws_type_name, COUNT(stl.ws_id) AS series_count
		FROM series_types st JOIN series_type_links stl ON stl.ws_type_id = st.ws_type_id
		GROUP BY st.ws_type_name
		ORDER BY series_count DESC, st.ws_type_name`)
}

func (s *AnalyticsService) TopCountriesByViewers(ctx context.Context) (*Chart, error) {
	return s.chart(ctx, "top_countries_viewers", "country_name", "total_viewers", `
		SELECT c.country_name, COALESCE(SUM(e.total_viewers), 0)::bigint AS total_viewers
		FROM countries c
		JOIN series_countries sc ON sc.country_id = c.country_id
		JOIN episodes e ON e.ws_id = sc.ws_id
		GROUP BY c.country_name
		ORDER BY total_viewers DESC
		LIMIT 10`)
}

// MonthlyFeedback covers the twelve most recent months with feedback, oldest
// first.
func (s *AnalyticsService) MonthlyFeedback(ctx context.Context) (*Chart, error) {
	rows, err := s.store.CachedQuery(ctx, "monthly_feedback", s.ttl, `
		SELECT TO_CHAR(DATE_TRUNC('month', date_recorded), 'YYYY-MM') AS month,
			COUNT(*) AS feedback_count, AVG(rating)::float8 AS avg_rating
		FROM feedback
		GROUP BY 1
		ORDER BY 1 DESC
		LIMIT 12`)
	if err != nil {
		return nil, err
	}

	rows = slices.Clone(rows)
	slices.Reverse(rows)
	c := &Chart{Labels: []string{}, Datasets: map[string][]float64{"feedback_count": {}, "avg_rating": {}}}
	for _, row := range rows {
		c.Labels = append(c.Labels, interfaceToString(row["month"]))
		c.Datasets["feedback_count"] = append(c.Datasets["feedback_count"], interfaceToFloat64(row["feedback_count"]))
		c.Datasets["avg_rating"] = append(c.Datasets["avg_rating"], round2(interfaceToFloat64(row["avg_rating"])))
	}
	return c, nil
}

func (s *AnalyticsService) ProductionHouseStats(ctx context.Context) (*Chart, error) {
	rows, err := s.store.CachedQuery(ctx, "production_house_stats", s.ttl, `
		SELECT ph.ph_name, COUNT(DISTINCT ws.ws_id) AS series_count,
			COALESCE(AVG(f.rating), 0)::float8 AS avg_rating
		FROM production_houses ph
		LEFT JOIN web_series ws ON ws.ph_id = ph.ph_id
		LEFT JOIN feedback f ON f.ws_id = ws.ws_id
		GROUP BY ph.ph_id, ph.ph_name
		ORDER BY series_count DESC, ph.ph_name`)
	if err != nil {
		return nil, err
	}

	c := &Chart{Labels: []string{}, Datasets: map[string][]float64{"series_count": {}, "avg_rating": {}}}
	for _, row := range rows {
		c.Labels = append(c.Labels, interfaceToString(row["ph_name"]))
		c.Datasets["series_count"] = append(c.Datasets["series_count"], interfaceToFloat64(row["series_count"]))
		c.Datasets["avg_rating"] = append(c.Datasets["avg_rating"], round2(interfaceToFloat64(row["avg_rating"])))
	}
	return c, nil
}

// RatingDistribution always reports all five star levels.
func (s *AnalyticsService) RatingDistribution(ctx context.Context) (*Chart, error) {
	rows, err := s.store.CachedQuery(ctx, "rating_distribution", s.ttl,
		"SELECT rating, COUNT(*) AS count FROM feedback GROUP BY rating ORDER BY rating")
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]float64, len(rows))
	for _, row := range rows {
		counts[interfaceToInt64(row["rating"])] = interfaceToFloat64(row["count"])
	}
	c := &Chart{Labels: make([]string, 0, 5), Data: make([]float64, 0, 5)}
	for star := int64(1); star <= 5; star++ {
		label := fmt.Sprintf("%d Stars", star)
		if star == 1 {
			label = "1 Star"
		}
		c.Labels = append(c.Labels, label)
		c.Data = append(c.Data, counts[star])
	}
	return c, nil
}

// SeriesPerformanceReport is always computed live.
func (s *AnalyticsService) SeriesPerformanceReport(ctx context.Context) ([]database.Row, error) {
	return s.store.Query(ctx, `
		SELECT ws.ws_id, ws.ws_name, ph.ph_name,
			(SELECT COUNT(*) FROM episodes e WHERE e.ws_id = ws.ws_id) AS episode_count,
			COALESCE((SELECT SUM(e.total_viewers) FROM episodes e WHERE e.ws_id = ws.ws_id), 0)::bigint AS total_viewers,
			(SELECT COUNT(*) FROM episodes e WHERE e.ws_id = ws.ws_id AND e.tech_interrupt = 'Yes') AS interrupted_episodes,
			COALESCE((SELECT AVG(f.rating) FROM feedback f WHERE f.ws_id = ws.ws_id), 0)::float8 AS avg_rating,
			(SELECT COUNT(*) FROM feedback f WHERE f.ws_id = ws.ws_id) AS review_count
		FROM web_series ws JOIN production_houses ph ON ph.ph_id = ws.ph_id
		ORDER BY total_viewers DESC, ws.ws_name`)
}

func (s *AnalyticsService) UserEngagementReport(ctx context.Context) ([]database.Row, error) {
	return s.store.Query(ctx, `
		SELECT l.username, ua.first_name || ' ' || ua.last_name AS full_name, ua.country,
			COUNT(f.ws_id) AS reviews, COALESCE(AVG(f.rating), 0)::float8 AS avg_rating_given,
			MAX(f.date_recorded) AS last_feedback
		FROM user_accounts ua
		JOIN logins l ON l.account_id = ua.account_id
		LEFT JOIN feedback f ON f.account_id = ua.account_id
		WHERE l.role = 'CUSTOMER'
		GROUP BY l.username, ua.account_id
		ORDER BY reviews DESC, l.username
		LIMIT 50`)
}

func (s *AnalyticsService) CacheStatus() CacheStatus {
	stats, enabled := s.store.CacheStats()
	return CacheStatus{Enabled: enabled, Stats: stats}
}

// FlushCache drops key, or everything when key is empty.
func (s *AnalyticsService) FlushCache(key string) {
	s.store.Invalidate(key)
}
