package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/keybroker/internal/model"
	"github.com/edvin/keybroker/internal/platform"
)

// TenantService manages tenant records.
type TenantService struct {
	db DB
}

// NewTenantService creates a new TenantService.
func NewTenantService(db DB) *TenantService {
	return &TenantService{db: db}
}

// Create inserts a new enabled tenant. Names are unique.
func (s *TenantService) Create(ctx context.Context, name string) (*model.Tenant, error) {
	now := time.Now().UTC()
	t := &model.Tenant{
		ID:        platform.NewID(),
		Name:      name,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO tenants (id, name, enabled, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Name, t.Enabled, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, Invalid("tenant name already exists")
		}
		return nil, Internal("insert tenant", err)
	}

	return t, nil
}

// GetByID retrieves a tenant.
func (s *TenantService) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	err := s.db.QueryRow(ctx,
		`SELECT id, name, enabled, created_at, updated_at FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Enabled, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("tenant not found")
	}
	if err != nil {
		return nil, Internal("get tenant", err)
	}
	return &t, nil
}

// SetEnabled flips a tenant on or off. Disabled tenants keep their data but
// their principals no longer authorize.
func (s *TenantService) SetEnabled(ctx context.Context, id string, enabled bool) (*model.Tenant, error) {
	var t model.Tenant
	err := s.db.QueryRow(ctx,
		`UPDATE tenants SET enabled = $2, updated_at = now() WHERE id = $1
		 RETURNING id, name, enabled, created_at, updated_at`,
		id, enabled,
	).Scan(&t.ID, &t.Name, &t.Enabled, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("tenant not found")
	}
	if err != nil {
		return nil, Internal("update tenant", err)
	}
	return &t, nil
}

// Delete removes a tenant. Dependent rows go with it via foreign keys.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return Internal("delete tenant", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("tenant not found")
	}
	return nil
}
