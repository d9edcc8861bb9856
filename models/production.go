package models

import "time"

type ProductionHouse struct {
	PhID            string `json:"ph_id"`
	Name            string `json:"ph_name"`
	StreetAddr      string `json:"street_addr"`
	City            string `json:"city"`
	State           string `json:"state"`
	PostalCode      string `json:"postal_code"`
	Country         string `json:"country"`
	YearEstablished int    `json:"year_established"`
	SeriesCount     int64  `json:"series_count"`
}

type Producer struct {
	ProducerID string `json:"producer_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email_addr"`
	Phone      string `json:"phone"`
	StreetAddr string `json:"street_addr"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Association struct {
	ProducerID   string     `json:"producer_id"`
	ProducerName string     `json:"producer_name,omitempty"`
	PhID         string     `json:"ph_id"`
	PhName       string     `json:"ph_name,omitempty"`
	AllianceDate time.Time  `json:"alliance_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

type Contract struct {
	ContractID  string    `json:"contract_id"`
	PerEpCharge float64   `json:"per_ep_charge"`
	StartDate   time.Time `json:"contract_st_date"`
	EndDate     time.Time `json:"contract_end_date"`
	WsID        string    `json:"ws_id"`
	WsName      string    `json:"ws_name,omitempty"`
}

type DashboardStats struct {
	TotalSeries   int64    `json:"total_series"`
	TotalEpisodes int64    `json:"total_episodes"`
	TotalUsers    int64    `json:"total_users"`
	TotalFeedback int64    `json:"total_feedback"`
	TotalViewers  int64    `json:"total_viewers"`
	AvgRating     float64  `json:"avg_rating"`
	RecentSeries  []Series `json:"recent_series"`
}
