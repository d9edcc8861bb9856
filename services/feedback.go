package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"streamvault/database"
	"streamvault/models"
	"streamvault/security"
)

type FeedbackInput struct {
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
	Text   string `json:"feedback_txt" validate:"max=1000"`
}

type FeedbackService struct {
	store *database.Store
}

func NewFeedbackService(store *database.Store) *FeedbackService {
	return &FeedbackService{store: store}
}

// Submit records the account's rating for a series, replacing any earlier
// one.
func (s *FeedbackService) Submit(ctx context.Context, accountID, wsID string, in FeedbackInput) error {
	in.Text = security.StripTags(in.Text)
	if err := security.Validate(in); err != nil {
		return err
	}

	_, err := s.store.Exec(ctx, `
		INSERT INTO feedback (ws_id, account_id, rating, feedback_txt, date_recorded)
		VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
		ON CONFLICT (ws_id, account_id) DO UPDATE
		SET rating = EXCLUDED.rating, feedback_txt = EXCLUDED.feedback_txt, date_recorded = EXCLUDED.date_recorded`,
		wsID, accountID, in.Rating, in.Text)
	if err != nil {
		return mapConstraintError(err, "feedback")
	}

	s.store.Invalidate("")
	slog.Info("Feedback recorded", "ws_id", wsID, "account_id", accountID, "rating", in.Rating)
	return nil
}

// Delete removes the account's own feedback for a series.
func (s *FeedbackService) Delete(ctx context.Context, accountID, wsID string) error {
	n, err := s.store.Exec(ctx, "DELETE FROM feedback WHERE ws_id = $1 AND account_id = $2", wsID, accountID)
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}

	s.store.Invalidate("")
	slog.Info("Feedback deleted", "ws_id", wsID, "account_id", accountID)
	return nil
}

// History lists everything the account has reviewed, newest first.
func (s *FeedbackService) History(ctx context.Context, accountID string) ([]models.Feedback, error) {
	q, err := s.store.Querier(ctx)
	if err != nil {
		return nil, err
	}
	return scanFeedback(q.QueryContext(ctx, `
		SELECT f.ws_id, ws.ws_name, f.account_id, '' AS reviewer, f.rating, COALESCE(f.feedback_txt, ''), f.date_recorded
		FROM feedback f JOIN web_series ws ON ws.ws_id = f.ws_id
		WHERE f.account_id = $1
		ORDER BY f.date_recorded DESC`, accountID))
}

func recentFeedback(ctx context.Context, q database.Querier, wsID string, limit int) ([]models.Feedback, error) {
	return scanFeedback(q.QueryContext(ctx, `
		SELECT f.ws_id, '' AS ws_name, f.account_id, ua.first_name || ' ' || ua.last_name, f.rating,
			COALESCE(f.feedback_txt, ''), f.date_recorded
		FROM feedback f JOIN user_accounts ua ON ua.account_id = f.account_id
		WHERE f.ws_id = $1
		ORDER BY f.date_recorded DESC
		LIMIT $2`, wsID, limit))
}

func ownFeedback(ctx context.Context, q database.Querier, wsID, accountID string) (*models.Feedback, error) {
	var fb models.Feedback
	err := q.QueryRowContext(ctx, `
		SELECT ws_id, account_id, rating, COALESCE(feedback_txt, ''), date_recorded
		FROM feedback WHERE ws_id = $1 AND account_id = $2`, wsID, accountID,
	).Scan(&fb.WsID, &fb.AccountID, &fb.Rating, &fb.Text, &fb.DateRecorded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

func scanFeedback(rows *sql.Rows, err error) ([]models.Feedback, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}
	defer rows.Close()

	out := []models.Feedback{}
	for rows.Next() {
		var fb models.Feedback
		if err := rows.Scan(&fb.WsID, &fb.WsName, &fb.AccountID, &fb.ReviewerName, &fb.Rating, &fb.Text, &fb.DateRecorded); err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}
