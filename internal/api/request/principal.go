package request

// CreateClient holds the request body for registering a client. The secret
// is generated server-side and returned exactly once.
type CreateClient struct {
	ClientID string `json:"client_id" validate:"required,slug"`
}

// CreateAdmin holds the request body for registering a tenant admin.
type CreateAdmin struct {
	AdminID string `json:"admin_id" validate:"required,slug"`
}

// CreateUser holds the request body for registering a user.
type CreateUser struct {
	UserID string `json:"user_id" validate:"required,slug"`
}

// CreateHost holds the request body for registering a host agent.
type CreateHost struct {
	Host string `json:"host" validate:"required,hostname_rfc1123"`
}

// UpdatePrincipal holds the request body for suspending or resuming any
// principal. Suspension keeps the stored secret; only the flag changes.
type UpdatePrincipal struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
