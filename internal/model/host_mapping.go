package model

import "time"

// HostMapping grants a user access to an account on a host until it expires.
type HostMapping struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	Host        string    `json:"host"`
	HostAccount string    `json:"host_account"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
