package authz

import (
	"context"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/keybroker/internal/core"
	"github.com/edvin/keybroker/internal/crypto"
)

// TenantHeader carries the tenant every authenticated call is scoped to.
const TenantHeader = "X-Tenant-ID"

// tenantEnabled restricts a principal lookup to enabled tenants. Suspending a
// tenant cuts off all of its principals at authentication, admins included.
const tenantEnabled = ` AND EXISTS (SELECT 1 FROM tenants t WHERE t.id = tenant_id AND t.enabled)`

// lookupQueries fetch the stored secret hash for an enabled principal of an
// enabled tenant. Only the hash column ever leaves these queries.
var lookupQueries = map[Kind]string{
	KindClientOwn:   `SELECT secret_hash FROM clients WHERE tenant_id = $1 AND client_id = $2 AND enabled` + tenantEnabled,
	KindTenantAdmin: `SELECT secret_hash FROM admins WHERE tenant_id = $1 AND admin_id = $2 AND enabled` + tenantEnabled,
	KindHostAgent:   `SELECT secret_hash FROM hosts WHERE tenant_id = $1 AND host = $2 AND enabled` + tenantEnabled,
	KindUserSelf:    `SELECT secret_hash FROM users WHERE tenant_id = $1 AND user_id = $2 AND enabled` + tenantEnabled,
}

// DB is the query surface the resolver needs. *pgxpool.Pool satisfies it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Resolver authenticates requests against the principal tables.
type Resolver struct {
	db    DB
	table Table
}

// NewResolver creates a Resolver using the given kind table.
func NewResolver(db DB, table Table) *Resolver {
	return &Resolver{db: db, table: table}
}

// Authorize tries each kind in the caller's order and returns the identity of
// the first one whose presented secret matches the stored hash. Every failure
// mode collapses into the same unauthorized error so callers cannot probe
// which principals exist. Infrastructure failures are server faults instead.
func (r *Resolver) Authorize(ctx context.Context, h http.Header, kinds ...Kind) (*Identity, error) {
	tenantID := headerValue(h, TenantHeader)
	if tenantID == "" {
		return nil, core.Unauthorized("unauthorized")
	}

	for _, kind := range kinds {
		spec, ok := r.table[kind]
		if !ok {
			continue
		}

		id := headerValue(h, spec.IDHeader)
		secret := headerValue(h, spec.SecretHeader)
		if id == "" || secret == "" {
			continue
		}

		var storedHash string
		err := r.db.QueryRow(ctx, lookupQueries[kind], tenantID, id).Scan(&storedHash)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, core.Internal("authorize request", err)
		}
		if !crypto.SecretHashEquals(storedHash, secret) {
			continue
		}

		return &Identity{Kind: kind, TenantID: tenantID, ID: id}, nil
	}

	return nil, core.Unauthorized("unauthorized")
}

// headerValue reads a header, mapping absent or non-UTF-8 values to the empty
// string so later comparisons never run on garbage bytes.
func headerValue(h http.Header, name string) string {
	v := h.Get(name)
	if !utf8.ValidString(v) {
		return ""
	}
	return v
}
