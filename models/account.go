package models

import "time"

const (
	RoleCustomer = "CUSTOMER"
	RoleEmployee = "EMPLOYEE"
)

type Login struct {
	LoginID      string     `json:"login_id"`
	AccountID    string     `json:"account_id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

type UserAccount struct {
	AccountID           string    `json:"account_id"`
	FirstName           string    `json:"first_name"`
	MiddleName          string    `json:"middle_name,omitempty"`
	LastName            string    `json:"last_name"`
	Email               string    `json:"email_addr"`
	StreetAddr          string    `json:"street_addr"`
	City                string    `json:"city"`
	State               string    `json:"state"`
	PostalCode          string    `json:"postal_code"`
	Country             string    `json:"country"`
	CountryID           string    `json:"country_id"`
	DateCreated         time.Time `json:"date_created"`
	MonthlySubscription float64   `json:"monthly_subscription"`
}

// Account is the profile view: account details plus the login that owns it.
type Account struct {
	UserAccount
	Username string `json:"username"`
	Role     string `json:"role"`
}

type PasswordReset struct {
	Token     string     `json:"-"`
	LoginID   string     `json:"login_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
