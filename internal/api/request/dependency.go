package request

// CreateEnrollment holds the request body for recording a user's MFA
// enrollment. Re-posting an existing enrollment refreshes its expiry. An
// omitted or negative ttl_minutes means the enrollment never expires.
type CreateEnrollment struct {
	UserID     string `json:"user_id" validate:"required,slug"`
	TTLMinutes *int   `json:"ttl_minutes"`
}

// UpdateEnrollment holds the request body for suspending or resuming an
// enrollment without touching its expiry.
type UpdateEnrollment struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// CreateDelegation holds the request body for authorizing a client to act
// for a user. Re-posting refreshes the expiry.
type CreateDelegation struct {
	ClientID   string `json:"client_id" validate:"required,slug"`
	UserID     string `json:"user_id" validate:"required,slug"`
	TTLMinutes *int   `json:"ttl_minutes"`
}

// CreateHostMapping holds the request body for granting a user an account
// on a host. Re-posting refreshes the expiry.
type CreateHostMapping struct {
	UserID      string `json:"user_id" validate:"required,slug"`
	Host        string `json:"host" validate:"required,hostname_rfc1123"`
	HostAccount string `json:"host_account" validate:"required,slug"`
	TTLMinutes  *int   `json:"ttl_minutes"`
}
