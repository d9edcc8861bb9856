package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamvault/database"
)

func TestBrowseFilterWhere(t *testing.T) {
	tests := []struct {
		name   string
		filter BrowseFilter
		clause string
		args   []any
	}{
		{name: "no filters", filter: BrowseFilter{}, clause: "", args: nil},
		{
			name:   "language only",
			filter: BrowseFilter{Language: "English"},
			clause: " WHERE ws.language = $1",
			args:   []any{"English"},
		},
		{
			name:   "search is trimmed and wrapped",
			filter: BrowseFilter{Search: "  dark "},
			clause: " WHERE ws.ws_name ILIKE $1",
			args:   []any{"%dark%"},
		},
		{
			name:   "blank search ignored",
			filter: BrowseFilter{Search: "   "},
			clause: "",
			args:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := tt.filter.where()
			assert.Equal(t, tt.clause, clause)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestBrowseFilterWhereNumbersPlaceholders(t *testing.T) {
	clause, args := BrowseFilter{TypeID: "T001", Language: "Korean", CountryID: "C003", Search: "love"}.where()

	assert.Contains(t, clause, "stl.ws_type_id = $1")
	assert.Contains(t, clause, "ws.language = $2")
	assert.Contains(t, clause, "sc.country_id = $3")
	assert.Contains(t, clause, "ws.ws_name ILIKE $4")
	assert.Equal(t, []any{"T001", "Korean", "C003", "%love%"}, args)
}

func TestBrowsePaginates(t *testing.T) {
	store, mock := newTestStore(t)
	svc := NewCatalogService(store, 2)

	mock.ExpectQuery("SELECT COUNT").WithArgs("English").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(5)))
	mock.ExpectQuery("FROM web_series ws").WithArgs("English", 2, 2).WillReturnRows(
		sqlmock.NewRows([]string{"ws_id", "ws_name", "num_of_eps", "language", "release_date", "country_of_origin",
			"image_url", "ph_id", "ph_name", "types", "avg_rating", "review_count", "total_viewers"}).
			AddRow("WS0003", "Night Shift", int64(8), "English", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "USA",
				"", "PH0001", "Northlight", "Drama,Thriller", 4.6667, int64(3), int64(1200)))

	page, err := svc.Browse(context.Background(), BrowseFilter{Language: "English", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Series, 1)
	assert.Equal(t, []string{"Drama", "Thriller"}, page.Series[0].Types)
	assert.Equal(t, 4.67, page.Series[0].AvgRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertHelpers(t *testing.T) {
	assert.Equal(t, int64(42), interfaceToInt64(int64(42)))
	assert.Equal(t, int64(7), interfaceToInt64("7"))
	assert.Equal(t, int64(0), interfaceToInt64(nil))

	assert.Equal(t, 3.5, interfaceToFloat64("3.5"))
	assert.Equal(t, float64(9), interfaceToFloat64(int64(9)))
	assert.Equal(t, float64(0), interfaceToFloat64(true))

	assert.Equal(t, "2026-02-01", interfaceToString(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, "12", interfaceToString(int64(12)))
	assert.Equal(t, "", interfaceToString(nil))

	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b,"))
	assert.Equal(t, []string{}, splitList(""))
	assert.Equal(t, 2.35, round2(2.349))
}

func TestDetailUnknownSeries(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery("FROM web_series ws").WithArgs("WS9999").
		WillReturnRows(sqlmock.NewRows([]string{"ws_id"}))

	_, err := NewCatalogService(store, 10).Detail(context.Background(), "WS9999", "")
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupsServedFromCache(t *testing.T) {
	ctx := context.Background()
	store, mock := newTestStore(t)
	svc := NewCatalogService(store, 10)

	mock.ExpectQuery("FROM countries").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow("C002", "Canada"))
	mock.ExpectQuery("FROM languages").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow("L001", "English"))
	mock.ExpectQuery("FROM series_types").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow("T001", "Drama"))

	first, err := svc.Lookups(ctx)
	require.NoError(t, err)
	second, err := svc.Lookups(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Canada", second.Countries[0].Name)
	assert.Equal(t, "T001", second.SeriesTypes[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
