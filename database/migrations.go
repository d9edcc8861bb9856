package database

import (
	"context"
	"fmt"
	"log/slog"
)

type migration struct {
	name string
	sql  string
}

// Tables are ordered so that every foreign key points backwards.
var migrations = []migration{
	{"countries", `
	CREATE TABLE IF NOT EXISTS countries (
		country_id VARCHAR(12) PRIMARY KEY,
		country_name VARCHAR(60) NOT NULL UNIQUE
	);`},
	{"languages", `
	CREATE TABLE IF NOT EXISTS languages (
		lang_id VARCHAR(12) PRIMARY KEY,
		lang_name VARCHAR(30) NOT NULL UNIQUE
	);`},
	{"series_types", `
	CREATE TABLE IF NOT EXISTS series_types (
		ws_type_id VARCHAR(12) PRIMARY KEY,
		ws_type_name VARCHAR(30) NOT NULL UNIQUE
	);`},
	{"user_accounts", `
	CREATE TABLE IF NOT EXISTS user_accounts (
		account_id VARCHAR(12) PRIMARY KEY,
		first_name VARCHAR(30) NOT NULL,
		middle_name VARCHAR(30),
		last_name VARCHAR(30) NOT NULL,
		email_addr VARCHAR(100) NOT NULL UNIQUE,
		street_addr VARCHAR(100) NOT NULL,
		city VARCHAR(30) NOT NULL,
		state VARCHAR(30) NOT NULL,
		postal_code VARCHAR(10) NOT NULL,
		country VARCHAR(30) NOT NULL,
		date_created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		monthly_subscription NUMERIC(6,2) NOT NULL DEFAULT 0 CHECK (monthly_subscription >= 0),
		country_id VARCHAR(12) NOT NULL REFERENCES countries(country_id)
	);`},
	{"logins", `
	CREATE TABLE IF NOT EXISTS logins (
		login_id VARCHAR(12) PRIMARY KEY,
		account_id VARCHAR(12) NOT NULL UNIQUE REFERENCES user_accounts(account_id) ON DELETE CASCADE,
		username VARCHAR(30) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(10) NOT NULL CHECK (role IN ('CUSTOMER', 'EMPLOYEE')),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_login TIMESTAMP
	);`},
	{"password_resets", `
	CREATE TABLE IF NOT EXISTS password_resets (
		token VARCHAR(64) PRIMARY KEY,
		login_id VARCHAR(12) NOT NULL REFERENCES logins(login_id) ON DELETE CASCADE,
		expires_at TIMESTAMP NOT NULL,
		used_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_password_resets_expires ON password_resets(expires_at);`},
	{"production_houses", `
	CREATE TABLE IF NOT EXISTS production_houses (
		ph_id VARCHAR(12) PRIMARY KEY,
		ph_name VARCHAR(60) NOT NULL,
		street_addr VARCHAR(100) NOT NULL,
		city VARCHAR(30) NOT NULL,
		state VARCHAR(30) NOT NULL,
		postal_code VARCHAR(10) NOT NULL,
		country VARCHAR(30) NOT NULL,
		year_established INTEGER NOT NULL CHECK (year_established > 1800)
	);`},
	{"producers", `
	CREATE TABLE IF NOT EXISTS producers (
		producer_id VARCHAR(12) PRIMARY KEY,
		first_name VARCHAR(30) NOT NULL,
		last_name VARCHAR(30) NOT NULL,
		email_addr VARCHAR(100) NOT NULL UNIQUE,
		phone VARCHAR(20) NOT NULL,
		street_addr VARCHAR(100) NOT NULL,
		city VARCHAR(30) NOT NULL,
		state VARCHAR(30) NOT NULL,
		postal_code VARCHAR(10) NOT NULL,
		country VARCHAR(30) NOT NULL
	);`},
	{"producer_production_houses", `
	CREATE TABLE IF NOT EXISTS producer_production_houses (
		producer_id VARCHAR(12) NOT NULL REFERENCES producers(producer_id),
		ph_id VARCHAR(12) NOT NULL REFERENCES production_houses(ph_id),
		alliance_date DATE NOT NULL,
		end_date DATE,
		PRIMARY KEY (producer_id, ph_id),
		CHECK (end_date IS NULL OR end_date > alliance_date)
	);`},
	{"web_series", `
	CREATE TABLE IF NOT EXISTS web_series (
		ws_id VARCHAR(12) PRIMARY KEY,
		ws_name VARCHAR(100) NOT NULL,
		num_of_eps INTEGER NOT NULL CHECK (num_of_eps > 0),
		language VARCHAR(30) NOT NULL,
		release_date DATE NOT NULL,
		country_of_origin VARCHAR(30) NOT NULL,
		image_url VARCHAR(255),
		ph_id VARCHAR(12) NOT NULL REFERENCES production_houses(ph_id)
	);
	CREATE INDEX IF NOT EXISTS idx_web_series_name ON web_series(ws_name);`},
	{"series_type_links", `
	CREATE TABLE IF NOT EXISTS series_type_links (
		ws_id VARCHAR(12) NOT NULL REFERENCES web_series(ws_id),
		ws_type_id VARCHAR(12) NOT NULL REFERENCES series_types(ws_type_id),
		PRIMARY KEY (ws_id, ws_type_id)
	);`},
	{"series_countries", `
	CREATE TABLE IF NOT EXISTS series_countries (
		ws_id VARCHAR(12) NOT NULL REFERENCES web_series(ws_id),
		country_id VARCHAR(12) NOT NULL REFERENCES countries(country_id),
		country_release_dt DATE NOT NULL,
		PRIMARY KEY (ws_id, country_id)
	);`},
	{"series_dubbing", `
	CREATE TABLE IF NOT EXISTS series_dubbing (
		ws_id VARCHAR(12) NOT NULL REFERENCES web_series(ws_id),
		lang_id VARCHAR(12) NOT NULL REFERENCES languages(lang_id),
		PRIMARY KEY (ws_id, lang_id)
	);`},
	{"series_subtitles", `
	CREATE TABLE IF NOT EXISTS series_subtitles (
		ws_id VARCHAR(12) NOT NULL REFERENCES web_series(ws_id),
		lang_id VARCHAR(12) NOT NULL REFERENCES languages(lang_id),
		PRIMARY KEY (ws_id, lang_id)
	);`},
	{"episodes", `
	CREATE TABLE IF NOT EXISTS episodes (
		ep_id VARCHAR(12) PRIMARY KEY,
		ep_name VARCHAR(100) NOT NULL,
		total_viewers BIGINT NOT NULL DEFAULT 0 CHECK (total_viewers >= 0),
		tech_interrupt VARCHAR(3) NOT NULL DEFAULT 'No' CHECK (tech_interrupt IN ('Yes', 'No')),
		ws_id VARCHAR(12) NOT NULL REFERENCES web_series(ws_id)
	);
	CREATE INDEX IF NOT EXISTS idx_episodes_ws ON episodes(ws_id);`},
	{"schedules", `
	CREATE TABLE IF NOT EXISTS schedules (
		schedule_id VARCHAR(12) PRIMARY KEY,
		start_dt TIMESTAMP NOT NULL,
		end_dt TIMESTAMP NOT NULL,
		ep_id VARCHAR(12) NOT NULL REFERENCES episodes(ep_id),
		CHECK (end_dt > start_dt)
	);`},
	{"contracts", `
	CREATE TABLE IF NOT EXISTS contracts (
		contract_id VARCHAR(12) PRIMARY KEY,
		per_ep_charge NUMERIC(10,2) NOT NULL CHECK (per_ep_charge > 0),
		contract_st_date DATE NOT NULL,
		contract_end_date DATE NOT NULL,
		ws_id VARCHAR(12) NOT NULL REFERENCES web_series(ws_id),
		CHECK (contract_end_date > contract_st_date)
	);`},
	{"feedback", `
	CREATE TABLE IF NOT EXISTS feedback (
		ws_id VARCHAR(12) NOT NULL REFERENCES web_series(ws_id),
		account_id VARCHAR(12) NOT NULL REFERENCES user_accounts(account_id) ON DELETE CASCADE,
		rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		feedback_txt VARCHAR(1000),
		date_recorded TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (ws_id, account_id)
	);`},
}

// RunMigrations creates any missing tables. Every statement is idempotent.
func RunMigrations(ctx context.Context, s *Store) error {
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to run %s migration: %w", m.name, err)
		}
		slog.Debug("Migration applied", "table", m.name)
	}
	return nil
}
