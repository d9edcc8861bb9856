package models

import "time"

type Series struct {
	WsID            string    `json:"ws_id"`
	Name            string    `json:"ws_name"`
	NumOfEps        int       `json:"num_of_eps"`
	Language        string    `json:"language"`
	ReleaseDate     time.Time `json:"release_date"`
	CountryOfOrigin string    `json:"country_of_origin"`
	ImageURL        string    `json:"image_url,omitempty"`
	PhID            string    `json:"ph_id"`
	PhName          string    `json:"ph_name,omitempty"`
}

// SeriesSummary is one row of the catalog listing.
type SeriesSummary struct {
	Series
	Types        []string `json:"types"`
	AvgRating    float64  `json:"avg_rating"`
	ReviewCount  int64    `json:"review_count"`
	TotalViewers int64    `json:"total_viewers"`
}

type SeriesDetail struct {
	Series
	Types             []string         `json:"types"`
	DubbingLanguages  []string         `json:"dubbing_languages"`
	SubtitleLanguages []string         `json:"subtitle_languages"`
	ReleaseCountries  []CountryRelease `json:"release_countries"`
	Episodes          []Episode        `json:"episodes"`
	AvgRating         float64          `json:"avg_rating"`
	ReviewCount       int64            `json:"review_count"`
	TotalViewers      int64            `json:"total_viewers"`
	RecentFeedback    []Feedback       `json:"recent_feedback"`
	MyFeedback        *Feedback        `json:"my_feedback,omitempty"`
}

type CountryRelease struct {
	CountryID   string    `json:"country_id"`
	CountryName string    `json:"country_name"`
	ReleaseDate time.Time `json:"country_release_dt"`
}

type Episode struct {
	EpID          string `json:"ep_id"`
	Name          string `json:"ep_name"`
	TotalViewers  int64  `json:"total_viewers"`
	TechInterrupt string `json:"tech_interrupt"`
	WsID          string `json:"ws_id"`
}

type Schedule struct {
	ScheduleID string    `json:"schedule_id"`
	StartDT    time.Time `json:"start_dt"`
	EndDT      time.Time `json:"end_dt"`
	EpID       string    `json:"ep_id"`
}

type Feedback struct {
	WsID         string    `json:"ws_id"`
	WsName       string    `json:"ws_name,omitempty"`
	AccountID    string    `json:"account_id"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	Rating       int       `json:"rating"`
	Text         string    `json:"feedback_txt"`
	DateRecorded time.Time `json:"date_recorded"`
}

// Lookup is an id/name pair from one of the reference tables.
type Lookup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Lookups struct {
	Countries   []Lookup `json:"countries"`
	Languages   []Lookup `json:"languages"`
	SeriesTypes []Lookup `json:"series_types"`
}
