package model

import "time"

// Host is a managed machine principal. Host agents authenticate with the
// host-bound authorization kind to reserve credential uses for sessions
// landing on them.
type Host struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Host      string    `json:"host"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
