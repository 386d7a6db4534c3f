package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// DependencyService verifies the cross-entity requirements of issuance: an
// enabled unexpired enrollment, an unexpired delegation covering the client,
// and an unexpired mapping to the target host account.
type DependencyService struct {
	db DB
}

// NewDependencyService creates a new DependencyService.
func NewDependencyService(db DB) *DependencyService {
	return &DependencyService{db: db}
}

// VerifyIssuance checks the three issuance dependencies in order and returns
// a Forbidden error naming the first missing or expired one. Failures reading
// stored rows are server faults, never client faults.
func (s *DependencyService) VerifyIssuance(ctx context.Context, tenantID, clientID, userID, host, hostAccount string) error {
	now := time.Now().UTC()

	var enrollExpires time.Time
	var enrollEnabled bool
	err := s.db.QueryRow(ctx,
		`SELECT expires_at, enabled FROM enrollments WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID,
	).Scan(&enrollExpires, &enrollEnabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return Forbidden("not enrolled")
	}
	if err != nil {
		return Internal("verify enrollment", err)
	}
	if !enrollEnabled {
		return Forbidden("not enrolled")
	}
	if !enrollExpires.After(now) {
		return Forbidden("MFA expired")
	}

	var delegExpires time.Time
	err = s.db.QueryRow(ctx,
		`SELECT expires_at FROM delegations WHERE tenant_id = $1 AND client_id = $2 AND user_id = $3`,
		tenantID, clientID, userID,
	).Scan(&delegExpires)
	if errors.Is(err, pgx.ErrNoRows) {
		return Forbidden("not delegated")
	}
	if err != nil {
		return Internal("verify delegation", err)
	}
	if !delegExpires.After(now) {
		return Forbidden("delegation expired")
	}

	var mappingExpires time.Time
	err = s.db.QueryRow(ctx,
		`SELECT expires_at FROM host_mappings WHERE tenant_id = $1 AND user_id = $2 AND host = $3 AND host_account = $4`,
		tenantID, userID, host, hostAccount,
	).Scan(&mappingExpires)
	if errors.Is(err, pgx.ErrNoRows) {
		return Forbidden("no host mapping")
	}
	if err != nil {
		return Internal("verify host mapping", err)
	}
	if !mappingExpires.After(now) {
		return Forbidden("host mapping expired")
	}

	return nil
}
