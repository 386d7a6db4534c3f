package model

import "time"

// Client is an automation principal that requests credentials on behalf of
// users it holds delegations for.
type Client struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	ClientID  string    `json:"client_id"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
