package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"streamvault/database"
	"streamvault/models"
	"streamvault/security"
)

type CountryReleaseInput struct {
	CountryID   string `json:"country_id" validate:"required,max=12"`
	ReleaseDate string `json:"release_date" validate:"required,isodate"`
}

type SeriesInput struct {
	Name             string                `json:"ws_name" validate:"required,max=100"`
	NumOfEps         int                   `json:"num_of_eps" validate:"gt=0"`
	Language         string                `json:"language" validate:"required,max=30"`
	ReleaseDate      string                `json:"release_date" validate:"required,isodate"`
	CountryOfOrigin  string                `json:"country_of_origin" validate:"required,max=30"`
	ImageURL         string                `json:"image_url" validate:"omitempty,url,max=255"`
	PhID             string                `json:"ph_id" validate:"required,max=12"`
	TypeIDs          []string              `json:"type_ids"`
	DubbingLangIDs   []string              `json:"dubbing_lang_ids"`
	SubtitleLangIDs  []string              `json:"subtitle_lang_ids"`
	ReleaseCountries []CountryReleaseInput `json:"release_countries" validate:"dive"`
}

type EpisodeInput struct {
	Name          string `json:"ep_name" validate:"required,max=100"`
	TotalViewers  int64  `json:"total_viewers" validate:"gte=0"`
	TechInterrupt string `json:"tech_interrupt" validate:"required,yesno"`
}

type ScheduleInput struct {
	Start time.Time `json:"start_dt" validate:"required"`
	End   time.Time `json:"end_dt" validate:"required"`
}

// AdminService backs the employee console. Every write invalidates the
// whole read cache once it has committed.
type AdminService struct {
	store *database.Store
}

func NewAdminService(store *database.Store) *AdminService {
	return &AdminService{store: store}
}

func (s *AdminService) written(what, id string) {
	s.store.Invalidate("")
	slog.Info("Catalog updated", "entity", what, "id", id)
}

func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	row, err := s.store.CachedQuery(ctx, "dashboard_stats", 0, `
		SELECT
			(SELECT COUNT(*) FROM web_series) AS total_series,
			(SELECT COUNT(*) FROM episodes) AS total_episodes,
			(SELECT COUNT(*) FROM user_accounts) AS total_users,
			(SELECT COUNT(*) FROM feedback) AS total_feedback,
			(SELECT COALESCE(SUM(total_viewers), 0)::bigint FROM episodes) AS total_viewers,
			(SELECT COALESCE(AVG(rating), 0)::float8 FROM feedback) AS avg_rating`)
	if err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, database.ErrNotFound
	}

	stats := &models.DashboardStats{
		TotalSeries:   interfaceToInt64(row[0]["total_series"]),
		TotalEpisodes: interfaceToInt64(row[0]["total_episodes"]),
		TotalUsers:    interfaceToInt64(row[0]["total_users"]),
		TotalFeedback: interfaceToInt64(row[0]["total_feedback"]),
		TotalViewers:  interfaceToInt64(row[0]["total_viewers"]),
		AvgRating:     round2(interfaceToFloat64(row[0]["avg_rating"])),
	}

	stats.RecentSeries, err = s.listSeries(ctx, "ORDER BY ws.release_date DESC LIMIT 5")
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *AdminService) ListSeries(ctx context.Context) ([]models.Series, error) {
	return s.listSeries(ctx, "ORDER BY ws.ws_name")
}

func (s *AdminService) listSeries(ctx context.Context, tail string) ([]models.Series, error) {
	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, `
		SELECT ws.ws_id, ws.ws_name, ws.num_of_eps, ws.language, ws.release_date, ws.country_of_origin,
			COALESCE(ws.image_url, ''), ws.ph_id, ph.ph_name
		FROM web_series ws JOIN production_houses ph ON ph.ph_id = ws.ph_id `+tail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Series{}
	for rows.Next() {
		var ws models.Series
		if err := rows.Scan(&ws.WsID, &ws.Name, &ws.NumOfEps, &ws.Language, &ws.ReleaseDate,
			&ws.CountryOfOrigin, &ws.ImageURL, &ws.PhID, &ws.PhName); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

// CreateSeries inserts the series and all of its links in one transaction.
func (s *AdminService) CreateSeries(ctx context.Context, in SeriesInput) (string, error) {
	release, err := validateSeries(in)
	if err != nil {
		return "", err
	}

	wsID := security.GenerateID("WS")
	err = s.store.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO web_series (ws_id, ws_name, num_of_eps, language, release_date, country_of_origin, image_url, ph_id)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`,
			wsID, in.Name, in.NumOfEps, in.Language, release, in.CountryOfOrigin, in.ImageURL, in.PhID,
		); err != nil {
			return err
		}
		return writeSeriesLinks(ctx, tx, wsID, in)
	})
	if err != nil {
		return "", mapConstraintError(err, "series")
	}

	s.written("series", wsID)
	return wsID, nil
}

// UpdateSeries rewrites the series row and replaces its links.
func (s *AdminService) UpdateSeries(ctx context.Context, wsID string, in SeriesInput) error {
	release, err := validateSeries(in)
	if err != nil {
		return err
	}

	err = s.store.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE web_series
			SET ws_name = $1, num_of_eps = $2, language = $3, release_date = $4,
				country_of_origin = $5, image_url = NULLIF($6, ''), ph_id = $7
			WHERE ws_id = $8`,
			in.Name, in.NumOfEps, in.Language, release, in.CountryOfOrigin, in.ImageURL, in.PhID, wsID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return database.ErrNotFound
		}

		for _, table := range seriesLinkTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE ws_id = $1", wsID); err != nil {
				return err
			}
		}
		return writeSeriesLinks(ctx, tx, wsID, in)
	})
	if err != nil {
		return mapConstraintError(err, "series")
	}

	s.written("series", wsID)
	return nil
}

// DeleteSeries removes a series together with everything that depends on
// it. Either all of it goes or none of it does.
func (s *AdminService) DeleteSeries(ctx context.Context, wsID string) error {
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		steps := []string{
			"DELETE FROM schedules WHERE ep_id IN (SELECT ep_id FROM episodes WHERE ws_id = $1)",
			"DELETE FROM episodes WHERE ws_id = $1",
			"DELETE FROM contracts WHERE ws_id = $1",
			"DELETE FROM feedback WHERE ws_id = $1",
		}
		for _, table := range seriesLinkTables {
			steps = append(steps, "DELETE FROM "+table+" WHERE ws_id = $1")
		}
		for _, stmt := range steps {
			if _, err := tx.ExecContext(ctx, stmt, wsID); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM web_series WHERE ws_id = $1", wsID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return database.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.written("series", wsID)
	return nil
}

var seriesLinkTables = []string{"series_type_links", "series_countries", "series_dubbing", "series_subtitles"}

func validateSeries(in SeriesInput) (time.Time, error) {
	if err := security.Validate(in); err != nil {
		return time.Time{}, err
	}
	release, err := security.ParseDate(in.ReleaseDate)
	if err != nil {
		return time.Time{}, security.NewValidationError("release_date must be a date in YYYY-MM-DD format")
	}
	return release, nil
}

func writeSeriesLinks(ctx context.Context, tx *sql.Tx, wsID string, in SeriesInput) error {
	for _, id := range dedupe(in.TypeIDs) {
		if _, err := tx.ExecContext(ctx, "INSERT INTO series_type_links (ws_id, ws_type_id) VALUES ($1, $2)", wsID, id); err != nil {
			return err
		}
	}
	for _, id := range dedupe(in.DubbingLangIDs) {
		if _, err := tx.ExecContext(ctx, "INSERT INTO series_dubbing (ws_id, lang_id) VALUES ($1, $2)", wsID, id); err != nil {
			return err
		}
	}
	for _, id := range dedupe(in.SubtitleLangIDs) {
		if _, err := tx.ExecContext(ctx, "INSERT INTO series_subtitles (ws_id, lang_id) VALUES ($1, $2)", wsID, id); err != nil {
			return err
		}
	}
	seen := map[string]bool{}
	for _, rc := range in.ReleaseCountries {
		if seen[rc.CountryID] {
			continue
		}
		seen[rc.CountryID] = true
		date, err := security.ParseDate(rc.ReleaseDate)
		if err != nil {
			return security.NewValidationError(fmt.Sprintf("release date for %s must be YYYY-MM-DD", rc.CountryID))
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO series_countries (ws_id, country_id, country_release_dt) VALUES ($1, $2, $3)",
			wsID, rc.CountryID, date,
		); err != nil {
			return err
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *AdminService) ListEpisodes(ctx context.Context, wsID string) ([]models.Episode, error) {
	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}
	return listEpisodes(ctx, q, wsID)
}

func (s *AdminService) CreateEpisode(ctx context.Context, wsID string, in EpisodeInput) (string, error) {
	if err := security.Validate(in); err != nil {
		return "", err
	}

	epID := security.GenerateID("EP")
	_, err := s.store.Exec(ctx,
		"INSERT INTO episodes (ep_id, ep_name, total_viewers, tech_interrupt, ws_id) VALUES ($1, $2, $3, $4, $5)",
		epID, in.Name, in.TotalViewers, in.TechInterrupt, wsID)
	if err != nil {
		return "", mapConstraintError(err, "episode")
	}

	s.written("episode", epID)
	return epID, nil
}

func (s *AdminService) UpdateEpisode(ctx context.Context, epID string, in EpisodeInput) error {
	if err := security.Validate(in); err != nil {
		return err
	}

	n, err := s.store.Exec(ctx,
		"UPDATE episodes SET ep_name = $1, total_viewers = $2, tech_interrupt = $3 WHERE ep_id = $4",
		in.Name, in.TotalViewers, in.TechInterrupt, epID)
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}

	s.written("episode", epID)
	return nil
}

// DeleteEpisode removes an episode and its schedules.
func (s *AdminService) DeleteEpisode(ctx context.Context, epID string) error {
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM schedules WHERE ep_id = $1", epID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM episodes WHERE ep_id = $1", epID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return database.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.written("episode", epID)
	return nil
}

func (s *AdminService) ListSchedules(ctx context.Context, epID string) ([]models.Schedule, error) {
	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx,
		"SELECT schedule_id, start_dt, end_dt, ep_id FROM schedules WHERE ep_id = $1 ORDER BY start_dt", epID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Schedule{}
	for rows.Next() {
		var sc models.Schedule
		if err := rows.Scan(&sc.ScheduleID, &sc.StartDT, &sc.EndDT, &sc.EpID); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *AdminService) CreateSchedule(ctx context.Context, epID string, in ScheduleInput) (string, error) {
	if err := security.Validate(in); err != nil {
		return "", err
	}
	if !security.ValidateDateRange(in.Start, in.End) {
		return "", security.NewValidationError("End time must be after start time")
	}

	scheduleID := security.GenerateID("SCH")
	_, err := s.store.Exec(ctx,
		"INSERT INTO schedules (schedule_id, start_dt, end_dt, ep_id) VALUES ($1, $2, $3, $4)",
		scheduleID, in.Start, in.End, epID)
	if err != nil {
		return "", mapConstraintError(err, "schedule")
	}

	s.written("schedule", scheduleID)
	return scheduleID, nil
}

func (s *AdminService) DeleteSchedule(ctx context.Context, scheduleID string) error {
	n, err := s.store.Exec(ctx, "DELETE FROM schedules WHERE schedule_id = $1", scheduleID)
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}

	s.written("schedule", scheduleID)
	return nil
}
