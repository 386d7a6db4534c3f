package model

import "time"

// Tenant is the top-level isolation boundary. Every other record hangs
// off a tenant, and disabling one locks out all of its principals.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
