package model

import "time"

// Credential is an issued keypair's stored half: public key, fingerprint and
// the use/expiry budget gating reservations against it. The private key is
// returned to the caller at issuance and never persisted.
type Credential struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	ClientID      string    `json:"client_id"`
	UserID        string    `json:"user_id"`
	Host          string    `json:"host"`
	HostAccount   string    `json:"host_account"`
	Fingerprint   string    `json:"fingerprint"`
	PublicKey     string    `json:"public_key"`
	KeyType       string    `json:"key_type"`
	KeyBits       int       `json:"key_bits"`
	MaxUses       int       `json:"max_uses"`
	RemainingUses int       `json:"remaining_uses"`
	TTLMinutes    int       `json:"ttl_minutes"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}
