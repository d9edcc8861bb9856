package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamvault/database"
	"streamvault/security"
)

const ratingQuery = "FROM feedback GROUP BY rating"

func TestRatingDistributionFillsEveryStar(t *testing.T) {
	store, mock := newTestStore(t)
	svc := NewAnalyticsService(store, 0)

	mock.ExpectQuery(ratingQuery).WillReturnRows(
		sqlmock.NewRows([]string{"rating", "count"}).AddRow(int64(2), int64(3)).AddRow(int64(5), int64(1)))

	chart, err := svc.RatingDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1 Star", "2 Stars", "3 Stars", "4 Stars", "5 Stars"}, chart.Labels)
	assert.Equal(t, []float64{0, 3, 0, 0, 1}, chart.Data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitFeedbackInvalidatesCachedCharts(t *testing.T) {
	ctx := context.Background()
	store, mock := newTestStore(t)
	analytics := NewAnalyticsService(store, 0)
	feedback := NewFeedbackService(store)

	mock.ExpectQuery(ratingQuery).WillReturnRows(
		sqlmock.NewRows([]string{"rating", "count"}).AddRow(int64(5), int64(1)))
	mock.ExpectExec("INSERT INTO feedback").
		WithArgs("WS0001", "ACC0001", int64(5), "Great show").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(ratingQuery).WillReturnRows(
		sqlmock.NewRows([]string{"rating", "count"}).AddRow(int64(5), int64(2)))

	before, err := analytics.RatingDistribution(ctx)
	require.NoError(t, err)
	// Served from cache, no second query.
	again, err := analytics.RatingDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, again)

	require.NoError(t, feedback.Submit(ctx, "ACC0001", "WS0001", FeedbackInput{Rating: 5, Text: "<b>Great</b> show"}))

	after, err := analytics.RatingDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(1), before.Data[4])
	assert.Equal(t, float64(2), after.Data[4])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitFeedbackRejectsOutOfRangeRating(t *testing.T) {
	store, mock := newTestStore(t)

	err := NewFeedbackService(store).Submit(context.Background(), "ACC0001", "WS0001", FeedbackInput{Rating: 6})
	var verr *security.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFeedbackNotFoundKeepsCache(t *testing.T) {
	ctx := context.Background()
	store, mock := newTestStore(t)

	mock.ExpectQuery(ratingQuery).WillReturnRows(sqlmock.NewRows([]string{"rating", "count"}))
	mock.ExpectExec("DELETE FROM feedback").WithArgs("WS0001", "ACC0001").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := NewAnalyticsService(store, 0).RatingDistribution(ctx)
	require.NoError(t, err)

	err = NewFeedbackService(store).Delete(ctx, "ACC0001", "WS0001")
	assert.ErrorIs(t, err, database.ErrNotFound)

	stats, ok := store.CacheStats()
	require.True(t, ok)
	assert.Equal(t, []string{"rating_distribution"}, stats.Keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyFeedbackIsChronological(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery("DATE_TRUNC").WillReturnRows(
		sqlmock.NewRows([]string{"month", "feedback_count", "avg_rating"}).
			AddRow("2026-09", int64(4), 4.333).
			AddRow("2026-08", int64(2), 3.0))

	chart, err := NewAnalyticsService(store, 0).MonthlyFeedback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08", "2026-09"}, chart.Labels)
	assert.Equal(t, []float64{2, 4}, chart.Datasets["feedback_count"])
	assert.Equal(t, []float64{3, 4.33}, chart.Datasets["avg_rating"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushCacheSingleKey(t *testing.T) {
	ctx := context.Background()
	store, mock := newTestStore(t)
	svc := NewAnalyticsService(store, 0)

	mock.ExpectQuery(ratingQuery).WillReturnRows(sqlmock.NewRows([]string{"rating", "count"}))
	mock.ExpectQuery("FROM series_types").WillReturnRows(
		sqlmock.NewRows([]string{"ws_type_name", "series_count"}).AddRow("Drama", int64(3)))

	_, err := svc.RatingDistribution(ctx)
	require.NoError(t, err)
	_, err = svc.SeriesByType(ctx)
	require.NoError(t, err)

	svc.FlushCache("rating_distribution")

	status := svc.CacheStatus()
	assert.True(t, status.Enabled)
	assert.Equal(t, []string{"series_by_type"}, status.Keys)

	svc.FlushCache("")
	assert.Zero(t, svc.CacheStatus().Entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
