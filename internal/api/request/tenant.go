package request

// UpdateTenant holds the request body for suspending or resuming a tenant.
type UpdateTenant struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
