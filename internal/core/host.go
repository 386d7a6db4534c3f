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

// HostService manages host agent principals.
type HostService struct {
	db DB
}

// NewHostService creates a new HostService.
func NewHostService(db DB) *HostService {
	return &HostService{db: db}
}

// Create registers a host and returns it with the raw agent secret, shown once.
func (s *HostService) Create(ctx context.Context, tenantID, host string) (*model.Host, string, error) {
	secret, err := platform.NewSecret("kbh_")
	if err != nil {
		return nil, "", Internal("generate host secret", err)
	}

	now := time.Now().UTC()
	h := &model.Host{
		ID:        platform.NewID(),
		TenantID:  tenantID,
		Host:      host,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO hosts (id, tenant_id, host, secret_hash, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.ID, h.TenantID, h.Host, crypto.SecretHash(secret), h.Enabled, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, "", Invalid("host already exists")
		}
		return nil, "", Internal("insert host", err)
	}

	return h, secret, nil
}

func (s *HostService) GetByHost(ctx context.Context, tenantID, host string) (*model.Host, error) {
	var h model.Host
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, host, enabled, created_at, updated_at
		 FROM hosts WHERE tenant_id = $1 AND host = $2`,
		tenantID, host,
	).Scan(&h.ID, &h.TenantID, &h.Host, &h.Enabled, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("host not found")
	}
	if err != nil {
		return nil, Internal("get host", err)
	}
	return &h, nil
}

func (s *HostService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Host, bool, error) {
	query := `SELECT id, tenant_id, host, enabled, created_at, updated_at FROM hosts WHERE tenant_id = $1`
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
		return nil, false, Internal("list hosts", err)
	}
	defer rows.Close()

	var hosts []model.Host
	for rows.Next() {
		var h model.Host
		if err := rows.Scan(&h.ID, &h.TenantID, &h.Host, &h.Enabled, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, false, Internal("scan host", err)
		}
		hosts = append(hosts, h)
	}
	if err := rows.Err(); err != nil {
		return nil, false, Internal("iterate hosts", err)
	}

	hasMore := len(hosts) > limit
	if hasMore {
		hosts = hosts[:limit]
	}
	return hosts, hasMore, nil
}

func (s *HostService) SetEnabled(ctx context.Context, tenantID, host string, enabled bool) (*model.Host, error) {
	var h model.Host
	err := s.db.QueryRow(ctx,
		`UPDATE hosts SET enabled = $3, updated_at = now() WHERE tenant_id = $1 AND host = $2
		 RETURNING id, tenant_id, host, enabled, created_at, updated_at`,
		tenantID, host, enabled,
	).Scan(&h.ID, &h.TenantID, &h.Host, &h.Enabled, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("host not found")
	}
	if err != nil {
		return nil, Internal("update host", err)
	}
	return &h, nil
}

func (s *HostService) Delete(ctx context.Context, tenantID, host string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM hosts WHERE tenant_id = $1 AND host = $2`, tenantID, host)
	if err != nil {
		return Internal("delete host", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("host not found")
	}
	return nil
}
