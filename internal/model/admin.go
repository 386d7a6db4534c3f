package model

import "time"

// Admin is a tenant administrator principal. The admin secret is stored only
// as a hash and never leaves the authorization layer.
type Admin struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	AdminID   string    `json:"admin_id"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
