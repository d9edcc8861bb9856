package database

import (
	"context"
	"fmt"
)

var (
	defaultCountries = [][]any{
		{"C001", "United States"}, {"C002", "United Kingdom"}, {"C003", "India"},
		{"C004", "Canada"}, {"C005", "Australia"}, {"C006", "Germany"},
		{"C007", "France"}, {"C008", "Japan"}, {"C009", "South Korea"},
		{"C010", "Brazil"}, {"C011", "Spain"}, {"C012", "Mexico"},
	}
	defaultLanguages = [][]any{
		{"L001", "English"}, {"L002", "Hindi"}, {"L003", "Spanish"},
		{"L004", "French"}, {"L005", "German"}, {"L006", "Japanese"},
		{"L007", "Korean"}, {"L008", "Portuguese"},
	}
	defaultSeriesTypes = [][]any{
		{"T001", "Drama"}, {"T002", "Comedy"}, {"T003", "Thriller"},
		{"T004", "Documentary"}, {"T005", "Sci-Fi"}, {"T006", "Romance"},
		{"T007", "Crime"}, {"T008", "Animation"},
	}
)

// SeedLookups fills the country, language and series type tables. Existing
// rows are left alone.
func SeedLookups(ctx context.Context, s *Store) error {
	seeds := []struct {
		name  string
		query string
		rows  [][]any
	}{
		{"countries", "INSERT INTO countries (country_id, country_name) VALUES ($1, $2) ON CONFLICT DO NOTHING", defaultCountries},
		{"languages", "INSERT INTO languages (lang_id, lang_name) VALUES ($1, $2) ON CONFLICT DO NOTHING", defaultLanguages},
		{"series types", "INSERT INTO series_types (ws_type_id, ws_type_name) VALUES ($1, $2) ON CONFLICT DO NOTHING", defaultSeriesTypes},
	}

	for _, seed := range seeds {
		if _, err := s.ExecMany(ctx, seed.query, seed.rows); err != nil {
			return fmt.Errorf("failed to seed %s: %w", seed.name, err)
		}
	}
	return nil
}
