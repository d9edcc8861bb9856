package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"streamvault/database"
	"streamvault/models"
)

type BrowseFilter struct {
	TypeID    string
	Language  string
	CountryID string
	Search    string
	Page      int
}

type SeriesPage struct {
	Series     []models.SeriesSummary `json:"series"`
	Page       int                    `json:"page"`
	PerPage    int                    `json:"per_page"`
	Total      int64                  `json:"total"`
	TotalPages int                    `json:"total_pages"`
}

type CatalogService struct {
	store   *database.Store
	perPage int
}

func NewCatalogService(store *database.Store, perPage int) *CatalogService {
	return &CatalogService{store: store, perPage: perPage}
}

// where builds the shared filter clause; placeholders start at $1.
func (f BrowseFilter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.TypeID != "" {
		add("EXISTS (SELECT 1 FROM series_type_links stl WHERE stl.ws_id = ws.ws_id AND stl.ws_type_id = $%d)", f.TypeID)
	}
	if f.Language != "" {
		add("ws.language = $%d", f.Language)
	}
	if f.CountryID != "" {
		add("EXISTS (SELECT 1 FROM series_countries sc WHERE sc.ws_id = ws.ws_id AND sc.country_id = $%d)", f.CountryID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("ws.ws_name ILIKE $%d", "%"+s+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Browse lists series matching f, best rated first.
func (s *CatalogService) Browse(ctx context.Context, f BrowseFilter) (*SeriesPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	where, args := f.where()

	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM web_series ws"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count series: %w", err)
	}

	pageArgs := append(args, s.perPage, (f.Page-1)*s.perPage)
	query := `
		SELECT ws.ws_id, ws.ws_name, ws.num_of_eps, ws.language, ws.release_date, ws.country_of_origin,
			COALESCE(ws.image_url, ''), ws.ph_id, ph.ph_name,
			COALESCE((SELECT STRING_AGG(st.ws_type_name, ',' ORDER BY st.ws_type_name)
				FROM series_type_links stl JOIN series_types st ON st.ws_type_id = stl.ws_type_id
				WHERE stl.ws_id = ws.ws_id), '') AS types,
			COALESCE((SELECT AVG(f.rating) FROM feedback f WHERE f.ws_id = ws.ws_id), 0)::float8 AS avg_rating,
			(SELECT COUNT(*) FROM feedback f WHERE f.ws_id = ws.ws_id) AS review_count,
			COALESCE((SELECT SUM(e.total_viewers) FROM episodes e WHERE e.ws_id = ws.ws_id), 0)::bigint AS total_viewers
		FROM web_series ws
		JOIN production_houses ph ON ph.ph_id = ws.ph_id` + where + fmt.Sprintf(`
		ORDER BY avg_rating DESC, total_viewers DESC, ws.ws_name
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	rows, err := q.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to browse series: %w", err)
	}
	defer rows.Close()

	page := &SeriesPage{
		Series:  []models.SeriesSummary{},
		Page:    f.Page,
		PerPage: s.perPage,
		Total:   total,
	}
	for rows.Next() {
		var sum models.SeriesSummary
		var types string
		if err := rows.Scan(&sum.WsID, &sum.Name, &sum.NumOfEps, &sum.Language, &sum.ReleaseDate, &sum.CountryOfOrigin,
			&sum.ImageURL, &sum.PhID, &sum.PhName, &types, &sum.AvgRating, &sum.ReviewCount, &sum.TotalViewers); err != nil {
			return nil, err
		}
		sum.Types = splitList(types)
		sum.AvgRating = round2(sum.AvgRating)
		page.Series = append(page.Series, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page.TotalPages = int((total + int64(s.perPage) - 1) / int64(s.perPage))
	return page, nil
}

// Detail loads a series with everything the detail view shows. accountID
// may be empty for anonymous visitors.
func (s *CatalogService) Detail(ctx context.Context, wsID, accountID string) (*models.SeriesDetail, error) {
	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}

	d := &models.SeriesDetail{}
	err = q.QueryRowContext(ctx, `
		SELECT ws.ws_id, ws.ws_name, ws.num_of_eps, ws.language, ws.release_date, ws.country_of_origin,
			COALESCE(ws.image_url, ''), ws.ph_id, ph.ph_name
		FROM web_series ws
		JOIN production_houses ph ON ph.ph_id = ws.ph_id
		WHERE ws.ws_id = $1`, wsID,
	).Scan(&d.WsID, &d.Name, &d.NumOfEps, &d.Language, &d.ReleaseDate, &d.CountryOfOrigin, &d.ImageURL, &d.PhID, &d.PhName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	lists := []struct {
		dst   *[]string
		query string
	}{
		{&d.Types, "SELECT st.ws_type_name FROM series_type_links stl JOIN series_types st ON st.ws_type_id = stl.ws_type_id WHERE stl.ws_id = $1 ORDER BY 1"},
		{&d.DubbingLanguages, "SELECT l.lang_name FROM series_dubbing sd JOIN languages l ON l.lang_id = sd.lang_id WHERE sd.ws_id = $1 ORDER BY 1"},
		{&d.SubtitleLanguages, "SELECT l.lang_name FROM series_subtitles ss JOIN languages l ON l.lang_id = ss.lang_id WHERE ss.ws_id = $1 ORDER BY 1"},
	}
	for _, l := range lists {
		names, err := scanStrings(ctx, q, l.query, wsID)
		if err != nil {
			return nil, err
		}
		*l.dst = names
	}

	if d.ReleaseCountries, err = s.releaseCountries(ctx, q, wsID); err != nil {
		return nil, err
	}
	if d.Episodes, err = listEpisodes(ctx, q, wsID); err != nil {
		return nil, err
	}
	for _, ep := range d.Episodes {
		d.TotalViewers += ep.TotalViewers
	}

	if err := q.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM feedback WHERE ws_id = $1", wsID,
	).Scan(&d.AvgRating, &d.ReviewCount); err != nil {
		return nil, err
	}
	d.AvgRating = round2(d.AvgRating)

	if d.RecentFeedback, err = recentFeedback(ctx, q, wsID, 10); err != nil {
		return nil, err
	}

	if accountID != "" {
		for i := range d.RecentFeedback {
			if d.RecentFeedback[i].AccountID == accountID {
				d.MyFeedback = &d.RecentFeedback[i]
			}
		}
		if d.MyFeedback == nil {
			mine, err := ownFeedback(ctx, q, wsID, accountID)
			if err != nil && !errors.Is(err, database.ErrNotFound) {
				return nil, err
			}
			d.MyFeedback = mine
		}
	}
	return d, nil
}

func (s *CatalogService) releaseCountries(ctx context.Context, q database.Querier, wsID string) ([]models.CountryRelease, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.country_id, c.country_name, sc.country_release_dt
		FROM series_countries sc JOIN countries c ON c.country_id = sc.country_id
		WHERE sc.ws_id = $1 ORDER BY sc.country_release_dt, c.country_name`, wsID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CountryRelease{}
	for rows.Next() {
		var cr models.CountryRelease
		if err := rows.Scan(&cr.CountryID, &cr.CountryName, &cr.ReleaseDate); err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

// Lookups returns the reference lists used by filters and forms. They
// change rarely, so they are served from the cache.
func (s *CatalogService) Lookups(ctx context.Context) (*models.Lookups, error) {
	sources := []struct {
		key   string
		query string
	}{
		{"lookup_countries", "SELECT country_id AS id, country_name AS name FROM countries ORDER BY country_name"},
		{"lookup_languages", "SELECT lang_id AS id, lang_name AS name FROM languages ORDER BY lang_name"},
		{"lookup_series_types", "SELECT ws_type_id AS id, ws_type_name AS name FROM series_types ORDER BY ws_type_name"},
	}

	out := make([][]models.Lookup, len(sources))
	for i, src := range sources {
		rows, err := s.store.CachedQuery(ctx, src.key, 0, src.query)
		if err != nil {
			return nil, err
		}
		items := make([]models.Lookup, 0, len(rows))
		for _, row := range rows {
			items = append(items, models.Lookup{ID: interfaceToString(row["id"]), Name: interfaceToString(row["name"])})
		}
		out[i] = items
	}
	return &models.Lookups{Countries: out[0], Languages: out[1], SeriesTypes: out[2]}, nil
}

func scanStrings(ctx context.Context, q database.Querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func listEpisodes(ctx context.Context, q database.Querier, wsID string) ([]models.Episode, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT ep_id, ep_name, total_viewers, tech_interrupt, ws_id FROM episodes WHERE ws_id = $1 ORDER BY ep_id", wsID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Episode{}
	for rows.Next() {
		var ep models.Episode
		if err := rows.Scan(&ep.EpID, &ep.Name, &ep.TotalViewers, &ep.TechInterrupt, &ep.WsID); err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}
