package model

import "time"

// Reservation is a bounded-use lease on a credential. A root reservation has
// ParentResID equal to its own ResID; extensions point at the root, never at
// another extension.
type Reservation struct {
	ResID       string    `json:"resid"`
	ParentResID string    `json:"parent_resid"`
	TenantID    string    `json:"tenant_id"`
	ClientID    string    `json:"client_id"`
	UserID      string    `json:"user_id"`
	Host        string    `json:"host"`
	Fingerprint string    `json:"fingerprint"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsRoot reports whether r heads its chain.
func (r *Reservation) IsRoot() bool {
	return r.ResID == r.ParentResID
}
