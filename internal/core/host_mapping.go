package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/keybroker/internal/model"
	"github.com/edvin/keybroker/internal/platform"
)

// HostMappingService manages user account mappings on target hosts.
type HostMappingService struct {
	db DB
}

// NewHostMappingService creates a new HostMappingService.
func NewHostMappingService(db DB) *HostMappingService {
	return &HostMappingService{db: db}
}

// Upsert records or refreshes a user's account mapping on a host.
func (s *HostMappingService) Upsert(ctx context.Context, tenantID, userID, host, hostAccount string, ttlMinutes int) (*model.HostMapping, error) {
	now := time.Now().UTC()
	expires := ExpiryFromTTL(now, ttlMinutes)

	var m model.HostMapping
	err := s.db.QueryRow(ctx,
		`INSERT INTO host_mappings (id, tenant_id, user_id, host, host_account, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT (tenant_id, user_id, host, host_account)
		 DO UPDATE SET expires_at = $6, updated_at = $7
		 RETURNING id, tenant_id, user_id, host, host_account, expires_at, created_at, updated_at`,
		platform.NewID(), tenantID, userID, host, hostAccount, expires, now,
	).Scan(&m.ID, &m.TenantID, &m.UserID, &m.Host, &m.HostAccount, &m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, Internal("upsert host mapping", err)
	}
	return &m, nil
}

// Get retrieves a mapping by its user, host and account triple.
func (s *HostMappingService) Get(ctx context.Context, tenantID, userID, host, hostAccount string) (*model.HostMapping, error) {
	var m model.HostMapping
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, user_id, host, host_account, expires_at, created_at, updated_at
		 FROM host_mappings WHERE tenant_id = $1 AND user_id = $2 AND host = $3 AND host_account = $4`,
		tenantID, userID, host, hostAccount,
	).Scan(&m.ID, &m.TenantID, &m.UserID, &m.Host, &m.HostAccount, &m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("host mapping not found")
	}
	if err != nil {
		return nil, Internal("get host mapping", err)
	}
	return &m, nil
}

// ListByTenant retrieves a tenant's host mappings with cursor-based pagination.
// Optional userID and host narrow the listing.
func (s *HostMappingService) ListByTenant(ctx context.Context, tenantID, userID, host string, limit int, cursor string) ([]model.HostMapping, bool, error) {
	query := `SELECT id, tenant_id, user_id, host, host_account, expires_at, created_at, updated_at FROM host_mappings WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

	if userID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, userID)
		argIdx++
	}
	if host != "" {
		query += fmt.Sprintf(` AND host = $%d`, argIdx)
		args = append(args, host)
		argIdx++
	}
	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, Internal("list host mappings", err)
	}
	defer rows.Close()

	var mappings []model.HostMapping
	for rows.Next() {
		var m model.HostMapping
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Host, &m.HostAccount, &m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, false, Internal("scan host mapping", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, Internal("iterate host mappings", err)
	}

	hasMore := len(mappings) > limit
	if hasMore {
		mappings = mappings[:limit]
	}
	return mappings, hasMore, nil
}

// Delete removes a host mapping.
func (s *HostMappingService) Delete(ctx context.Context, tenantID, userID, host, hostAccount string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM host_mappings WHERE tenant_id = $1 AND user_id = $2 AND host = $3 AND host_account = $4`,
		tenantID, userID, host, hostAccount)
	if err != nil {
		return Internal("delete host mapping", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("host mapping not found")
	}
	return nil
}
