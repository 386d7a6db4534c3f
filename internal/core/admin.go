package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/keybroker/internal/crypto"
	"github.com/edvin/keybroker/internal/model"
	"github.com/edvin/keybroker/internal/platform"
)

// AdminService manages tenant administrator principals.
type AdminService struct {
	db DB
}

// NewAdminService creates a new AdminService.
func NewAdminService(db DB) *AdminService {
	return &AdminService{db: db}
}

// Create registers an admin and returns it with the raw secret, shown once.
func (s *AdminService) Create(ctx context.Context, tenantID, adminID string) (*model.Admin, string, error) {
	secret, err := platform.NewSecret("kba_")
	if err != nil {
		return nil, "", Internal("generate admin secret", err)
	}

	now := time.Now().UTC()
	a := &model.Admin{
		ID:        platform.NewID(),
		TenantID:  tenantID,
		AdminID:   adminID,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO admins (id, tenant_id, admin_id, secret_hash, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.TenantID, a.AdminID, crypto.SecretHash(secret), a.Enabled, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, "", Invalid("admin already exists")
		}
		return nil, "", Internal("insert admin", err)
	}

	return a, secret, nil
}

func (s *AdminService) GetByAdminID(ctx context.Context, tenantID, adminID string) (*model.Admin, error) {
	var a model.Admin
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, admin_id, enabled, created_at, updated_at
		 FROM admins WHERE tenant_id = $1 AND admin_id = $2`,
		tenantID, adminID,
	).Scan(&a.ID, &a.TenantID, &a.AdminID, &a.Enabled, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("admin not found")
	}
	if err != nil {
		return nil, Internal("get admin", err)
	}
	return &a, nil
}

func (s *AdminService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Admin, bool, error) {
	query := `SELECT id, tenant_id, admin_id, enabled, created_at, updated_at FROM admins WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

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
		return nil, false, Internal("list admins", err)
	}
	defer rows.Close()

	var admins []model.Admin
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ID, &a.TenantID, &a.AdminID, &a.Enabled, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, false, Internal("scan admin", err)
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, Internal("iterate admins", err)
	}

	hasMore := len(admins) > limit
	if hasMore {
		admins = admins[:limit]
	}
	return admins, hasMore, nil
}

func (s *AdminService) SetEnabled(ctx context.Context, tenantID, adminID string, enabled bool) (*model.Admin, error) {
	var a model.Admin
	err := s.db.QueryRow(ctx,
		`UPDATE admins SET enabled = $3, updated_at = now() WHERE tenant_id = $1 AND admin_id = $2
		 RETURNING id, tenant_id, admin_id, enabled, created_at, updated_at`,
		tenantID, adminID, enabled,
	).Scan(&a.ID, &a.TenantID, &a.AdminID, &a.Enabled, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("admin not found")
	}
	if err != nil {
		return nil, Internal("update admin", err)
	}
	return &a, nil
}

func (s *AdminService) Delete(ctx context.Context, tenantID, adminID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM admins WHERE tenant_id = $1 AND admin_id = $2`, tenantID, adminID)
	if err != nil {
		return Internal("delete admin", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("admin not found")
	}
	return nil
}
