package authz

// Identity is the authenticated principal attached to a request.
type Identity struct {
	Kind     Kind
	TenantID string
	// ID is the principal identifier within the tenant: client_id, admin_id,
	// host, or user_id depending on Kind.
	ID string
}

// CheckID reports whether the identity may act as the requested principal.
// Tenant-wide kinds act for anyone in their tenant; identity-bound kinds only
// for themselves. An empty requested ID never matches an identity-bound kind.
func (i *Identity) CheckID(requested string) bool {
	switch i.Kind {
	case KindTenantAdmin, KindHostAgent:
		return true
	default:
		return requested != "" && requested == i.ID
	}
}

// CheckTenant reports whether the identity belongs to the requested tenant.
// No kind crosses tenants.
func (i *Identity) CheckTenant(tenantID string) bool {
	return tenantID != "" && tenantID == i.TenantID
}
