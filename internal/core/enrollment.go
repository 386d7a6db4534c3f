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

// EnrollmentService manages MFA enrollments.
type EnrollmentService struct {
	db DB
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(db DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// Upsert records or refreshes a user's enrollment. Re-enrolling resets the
// expiry and re-enables a disabled enrollment in one atomic statement.
func (s *EnrollmentService) Upsert(ctx context.Context, tenantID, userID string, ttlMinutes int) (*model.Enrollment, error) {
	now := time.Now().UTC()
	expires := ExpiryFromTTL(now, ttlMinutes)

	var e model.Enrollment
	err := s.db.QueryRow(ctx,
		`INSERT INTO enrollments (id, tenant_id, user_id, enabled, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, true, $4, $5, $5)
		 ON CONFLICT (tenant_id, user_id)
		 DO UPDATE SET enabled = true, expires_at = $4, updated_at = $5
		 RETURNING id, tenant_id, user_id, enabled, expires_at, created_at, updated_at`,
		platform.NewID(), tenantID, userID, expires, now,
	).Scan(&e.ID, &e.TenantID, &e.UserID, &e.Enabled, &e.ExpiresAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, Internal("upsert enrollment", err)
	}
	return &e, nil
}

// GetByUserID retrieves a user's enrollment.
func (s *EnrollmentService) GetByUserID(ctx context.Context, tenantID, userID string) (*model.Enrollment, error) {
	var e model.Enrollment
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, user_id, enabled, expires_at, created_at, updated_at
		 FROM enrollments WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID,
	).Scan(&e.ID, &e.TenantID, &e.UserID, &e.Enabled, &e.ExpiresAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("enrollment not found")
	}
	if err != nil {
		return nil, Internal("get enrollment", err)
	}
	return &e, nil
}

// ListByTenant retrieves a tenant's enrollments with cursor-based pagination.
func (s *EnrollmentService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Enrollment, bool, error) {
	query := `SELECT id, tenant_id, user_id, enabled, expires_at, created_at, updated_at FROM enrollments WHERE tenant_id = $1`
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
		return nil, false, Internal("list enrollments", err)
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Enabled, &e.ExpiresAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, false, Internal("scan enrollment", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, Internal("iterate enrollments", err)
	}

	hasMore := len(enrollments) > limit
	if hasMore {
		enrollments = enrollments[:limit]
	}
	return enrollments, hasMore, nil
}

// SetEnabled suspends or resumes an enrollment without touching its expiry.
func (s *EnrollmentService) SetEnabled(ctx context.Context, tenantID, userID string, enabled bool) (*model.Enrollment, error) {
	var e model.Enrollment
	err := s.db.QueryRow(ctx,
		`UPDATE enrollments SET enabled = $3, updated_at = now() WHERE tenant_id = $1 AND user_id = $2
		 RETURNING id, tenant_id, user_id, enabled, expires_at, created_at, updated_at`,
		tenantID, userID, enabled,
	).Scan(&e.ID, &e.TenantID, &e.UserID, &e.Enabled, &e.ExpiresAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("enrollment not found")
	}
	if err != nil {
		return nil, Internal("update enrollment", err)
	}
	return &e, nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, tenantID, userID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM enrollments WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
	if err != nil {
		return Internal("delete enrollment", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("enrollment not found")
	}
	return nil
}
