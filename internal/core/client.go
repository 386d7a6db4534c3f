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

// ClientService manages automation client principals.
type ClientService struct {
	db DB
}

// NewClientService creates a new ClientService.
func NewClientService(db DB) *ClientService {
	return &ClientService{db: db}
}

// Create registers a client and returns it along with the raw secret. The
// secret is shown exactly once; only its hash is stored.
func (s *ClientService) Create(ctx context.Context, tenantID, clientID string) (*model.Client, string, error) {
	secret, err := platform.NewSecret("kbc_")
	if err != nil {
		return nil, "", Internal("generate client secret", err)
	}

	now := time.Now().UTC()
	c := &model.Client{
		ID:        platform.NewID(),
		TenantID:  tenantID,
		ClientID:  clientID,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO clients (id, tenant_id, client_id, secret_hash, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.TenantID, c.ClientID, crypto.SecretHash(secret), c.Enabled, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, "", Invalid("client already exists")
		}
		return nil, "", Internal("insert client", err)
	}

	return c, secret, nil
}

// GetByClientID retrieves a client within a tenant.
func (s *ClientService) GetByClientID(ctx context.Context, tenantID, clientID string) (*model.Client, error) {
	var c model.Client
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, client_id, enabled, created_at, updated_at
		 FROM clients WHERE tenant_id = $1 AND client_id = $2`,
		tenantID, clientID,
	).Scan(&c.ID, &c.TenantID, &c.ClientID, &c.Enabled, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("client not found")
	}
	if err != nil {
		return nil, Internal("get client", err)
	}
	return &c, nil
}

// ListByTenant retrieves a tenant's clients with cursor-based pagination.
func (s *ClientService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Client, bool, error) {
	query := `SELECT id, tenant_id, client_id, enabled, created_at, updated_at FROM clients WHERE tenant_id = $1`
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
		return nil, false, Internal("list clients", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.TenantID, &c.ClientID, &c.Enabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, false, Internal("scan client", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, Internal("iterate clients", err)
	}

	hasMore := len(clients) > limit
	if hasMore {
		clients = clients[:limit]
	}
	return clients, hasMore, nil
}

// SetEnabled flips a client on or off.
func (s *ClientService) SetEnabled(ctx context.Context, tenantID, clientID string, enabled bool) (*model.Client, error) {
	var c model.Client
	err := s.db.QueryRow(ctx,
		`UPDATE clients SET enabled = $3, updated_at = now() WHERE tenant_id = $1 AND client_id = $2
		 RETURNING id, tenant_id, client_id, enabled, created_at, updated_at`,
		tenantID, clientID, enabled,
	).Scan(&c.ID, &c.TenantID, &c.ClientID, &c.Enabled, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("client not found")
	}
	if err != nil {
		return nil, Internal("update client", err)
	}
	return &c, nil
}

// Delete removes a client.
func (s *ClientService) Delete(ctx context.Context, tenantID, clientID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM clients WHERE tenant_id = $1 AND client_id = $2`, tenantID, clientID)
	if err != nil {
		return Internal("delete client", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("client not found")
	}
	return nil
}
