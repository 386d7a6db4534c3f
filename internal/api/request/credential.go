package request

// IssueCredential holds the request body for issuing a credential. Omitted
// max_uses or ttl_minutes mean unlimited, as do negative values.
type IssueCredential struct {
	ClientID    string `json:"client_id" validate:"required,slug"`
	UserID      string `json:"user_id" validate:"required,slug"`
	Host        string `json:"host" validate:"required,hostname_rfc1123"`
	HostAccount string `json:"host_account" validate:"required,slug"`
	KeyType     string `json:"key_type" validate:"required,oneof=dsa ecdsa ecdsa-sk ed25519 ed25519-sk rsa"`
	MaxUses     *int   `json:"max_uses"`
	TTLMinutes  *int   `json:"ttl_minutes"`
}

// UpdateCredentialQuota holds the request body for rewriting a credential's
// use budget and lifetime. At least one of max_uses and ttl_minutes must be
// present.
type UpdateCredentialQuota struct {
	ClientID    string `json:"client_id" validate:"required,slug"`
	Host        string `json:"host" validate:"required,hostname_rfc1123"`
	Fingerprint string `json:"fingerprint" validate:"required,fingerprint"`
	MaxUses     *int   `json:"max_uses"`
	TTLMinutes  *int   `json:"ttl_minutes"`
}
