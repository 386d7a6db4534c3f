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

// DelegationService manages user-to-client delegations.
type DelegationService struct {
	db DB
}

// NewDelegationService creates a new DelegationService.
func NewDelegationService(db DB) *DelegationService {
	return &DelegationService{db: db}
}

// Upsert records or refreshes a delegation from a user to a client.
func (s *DelegationService) Upsert(ctx context.Context, tenantID, clientID, userID string, ttlMinutes int) (*model.Delegation, error) {
	now := time.Now().UTC()
	expires := ExpiryFromTTL(now, ttlMinutes)

	var d model.Delegation
	err := s.db.QueryRow(ctx,
		`INSERT INTO delegations (id, tenant_id, client_id, user_id, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (tenant_id, client_id, user_id)
		 DO UPDATE SET expires_at = $5, updated_at = $6
		 RETURNING id, tenant_id, client_id, user_id, expires_at, created_at, updated_at`,
		platform.NewID(), tenantID, clientID, userID, expires, now,
	).Scan(&d.ID, &d.TenantID, &d.ClientID, &d.UserID, &d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, Internal("upsert delegation", err)
	}
	return &d, nil
}

// Get retrieves a delegation by its client and user pair.
func (s *DelegationService) Get(ctx context.Context, tenantID, clientID, userID string) (*model.Delegation, error) {
	var d model.Delegation
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, client_id, user_id, expires_at, created_at, updated_at
		 FROM delegations WHERE tenant_id = $1 AND client_id = $2 AND user_id = $3`,
		tenantID, clientID, userID,
	).Scan(&d.ID, &d.TenantID, &d.ClientID, &d.UserID, &d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("delegation not found")
	}
	if err != nil {
		return nil, Internal("get delegation", err)
	}
	return &d, nil
}

// ListByTenant retrieves a tenant's delegations with cursor-based pagination.
// An optional userID narrows the listing to one user's delegations.
func (s *DelegationService) ListByTenant(ctx context.Context, tenantID, userID string, limit int, cursor string) ([]model.Delegation, bool, error) {
	query := `SELECT id, tenant_id, client_id, user_id, expires_at, created_at, updated_at FROM delegations WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

	if userID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, userID)
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
		return nil, false, Internal("list delegations", err)
	}
	defer rows.Close()

	var delegations []model.Delegation
	for rows.Next() {
		var d model.Delegation
		if err := rows.Scan(&d.ID, &d.TenantID, &d.ClientID, &d.UserID, &d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, false, Internal("scan delegation", err)
		}
		delegations = append(delegations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, false, Internal("iterate delegations", err)
	}

	hasMore := len(delegations) > limit
	if hasMore {
		delegations = delegations[:limit]
	}
	return delegations, hasMore, nil
}

// Delete revokes a delegation.
func (s *DelegationService) Delete(ctx context.Context, tenantID, clientID, userID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM delegations WHERE tenant_id = $1 AND client_id = $2 AND user_id = $3`,
		tenantID, clientID, userID)
	if err != nil {
		return Internal("delete delegation", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("delegation not found")
	}
	return nil
}
