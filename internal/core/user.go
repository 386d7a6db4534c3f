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

// UserService manages end-user principals.
type UserService struct {
	db DB
}

// NewUserService creates a new UserService.
func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

// Create registers a user and returns it with the raw secret, shown once.
func (s *UserService) Create(ctx context.Context, tenantID, userID string) (*model.User, string, error) {
	secret, err := platform.NewSecret("kbu_")
	if err != nil {
		return nil, "", Internal("generate user secret", err)
	}

	now := time.Now().UTC()
	u := &model.User{
		ID:        platform.NewID(),
		TenantID:  tenantID,
		UserID:    userID,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO users (id, tenant_id, user_id, secret_hash, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.TenantID, u.UserID, crypto.SecretHash(secret), u.Enabled, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, "", Invalid("user already exists")
		}
		return nil, "", Internal("insert user", err)
	}

	return u, secret, nil
}

func (s *UserService) GetByUserID(ctx context.Context, tenantID, userID string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, user_id, enabled, created_at, updated_at
		 FROM users WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID,
	).Scan(&u.ID, &u.TenantID, &u.UserID, &u.Enabled, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("user not found")
	}
	if err != nil {
		return nil, Internal("get user", err)
	}
	return &u, nil
}

func (s *UserService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.User, bool, error) {
	query := `SELECT id, tenant_id, user_id, enabled, created_at, updated_at FROM users WHERE tenant_id = $1`
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
		return nil, false, Internal("list users", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.TenantID, &u.UserID, &u.Enabled, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, false, Internal("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, false, Internal("iterate users", err)
	}

	hasMore := len(users) > limit
	if hasMore {
		users = users[:limit]
	}
	return users, hasMore, nil
}

func (s *UserService) SetEnabled(ctx context.Context, tenantID, userID string, enabled bool) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`UPDATE users SET enabled = $3, updated_at = now() WHERE tenant_id = $1 AND user_id = $2
		 RETURNING id, tenant_id, user_id, enabled, created_at, updated_at`,
		tenantID, userID, enabled,
	).Scan(&u.ID, &u.TenantID, &u.UserID, &u.Enabled, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("user not found")
	}
	if err != nil {
		return nil, Internal("update user", err)
	}
	return &u, nil
}

func (s *UserService) Delete(ctx context.Context, tenantID, userID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM users WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
	if err != nil {
		return Internal("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("user not found")
	}
	return nil
}
