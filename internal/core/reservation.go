package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/keybroker/internal/metrics"
	"github.com/edvin/keybroker/internal/model"
	"github.com/edvin/keybroker/internal/platform"
)

// ReservationService manages bounded-use leases on credentials. Roots consume
// one use from the credential budget; extensions ride on the root for free.
type ReservationService struct {
	db   TxDB
	deps *DependencyService
}

// NewReservationService creates a new ReservationService.
func NewReservationService(db TxDB, deps *DependencyService) *ReservationService {
	return &ReservationService{db: db, deps: deps}
}

// CreateParams identify the credential to reserve against and the user the
// lease is for. A negative TTLMinutes means the full reservation window.
type CreateParams struct {
	TenantID    string
	ClientID    string
	UserID      string
	Host        string
	Fingerprint string
	TTLMinutes  int
}

// Create opens a root reservation. The credential must exist, be unexpired,
// and have budget left; issuance dependencies are re-verified for the caller's
// user with the credential's host account. The budget decrement and the
// reservation insert commit together, with the decrement conditioned on
// remaining budget so a concurrent reservation can never overdraw it.
func (s *ReservationService) Create(ctx context.Context, p CreateParams) (*model.Reservation, error) {
	var credID, hostAccount string
	var remainingUses int
	var credExpires time.Time
	err := s.db.QueryRow(ctx,
		`SELECT id, host_account, remaining_uses, expires_at FROM credentials
		 WHERE client_id = $1 AND tenant_id = $2 AND host = $3 AND fingerprint = $4`,
		p.ClientID, p.TenantID, p.Host, p.Fingerprint,
	).Scan(&credID, &hostAccount, &remainingUses, &credExpires)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("credential not found")
	}
	if err != nil {
		return nil, Internal("get credential", err)
	}

	now := time.Now().UTC()
	if remainingUses < 1 {
		return nil, Forbidden("quota exhausted")
	}
	if !credExpires.After(now) {
		return nil, Forbidden("credential expired")
	}

	if err := s.deps.VerifyIssuance(ctx, p.TenantID, p.ClientID, p.UserID, p.Host, hostAccount); err != nil {
		return nil, err
	}

	res := &model.Reservation{
		ResID:       platform.NewID(),
		TenantID:    p.TenantID,
		ClientID:    p.ClientID,
		UserID:      p.UserID,
		Host:        p.Host,
		Fingerprint: p.Fingerprint,
		ExpiresAt:   ReservationExpiry(now, p.TTLMinutes),
		CreatedAt:   now,
	}
	res.ParentResID = res.ResID

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, Internal("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE credentials SET remaining_uses = remaining_uses - 1
		 WHERE id = $1 AND remaining_uses >= 1 AND expires_at > $2`,
		credID, now,
	)
	if err != nil {
		return nil, Internal("consume credential use", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, Forbidden("quota exhausted")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO reservations (resid, parent_resid, tenant_id, client_id, user_id, host, fingerprint, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.ResID, res.ParentResID, res.TenantID, res.ClientID, res.UserID,
		res.Host, res.Fingerprint, res.ExpiresAt, res.CreatedAt,
	)
	if err != nil {
		return nil, Internal("insert reservation", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, Internal("commit reservation", err)
	}

	metrics.ReservationsCreated.WithLabelValues("root").Inc()

	return res, nil
}

// ExtendParams identify the reservation being extended. UserID, Host and
// Fingerprint must match the parent exactly. A negative TTLMinutes means the
// full reservation window.
type ExtendParams struct {
	TenantID    string
	ClientID    string
	ResID       string
	UserID      string
	Host        string
	Fingerprint string
	TTLMinutes  int
}

// Extend creates an extension of an unexpired reservation. Extensions do not
// consume budget and do not re-verify issuance dependencies; their expiry is
// computed fresh from now, bounded by the reservation window. The extension
// attaches to the parent's root, so chains never nest.
func (s *ReservationService) Extend(ctx context.Context, p ExtendParams) (*model.Reservation, error) {
	var parent model.Reservation
	err := s.db.QueryRow(ctx,
		`SELECT resid, parent_resid, tenant_id, client_id, user_id, host, fingerprint, expires_at, created_at
		 FROM reservations WHERE resid = $1 AND tenant_id = $2 AND client_id = $3`,
		p.ResID, p.TenantID, p.ClientID,
	).Scan(&parent.ResID, &parent.ParentResID, &parent.TenantID, &parent.ClientID,
		&parent.UserID, &parent.Host, &parent.Fingerprint, &parent.ExpiresAt, &parent.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("reservation not found")
	}
	if err != nil {
		return nil, Internal("get reservation", err)
	}

	now := time.Now().UTC()
	if !parent.ExpiresAt.After(now) {
		return nil, Forbidden("reservation expired")
	}
	if p.UserID != parent.UserID || p.Host != parent.Host || p.Fingerprint != parent.Fingerprint {
		return nil, Forbidden("reservation does not match")
	}

	res := &model.Reservation{
		ResID:       platform.NewID(),
		ParentResID: parent.ParentResID,
		TenantID:    parent.TenantID,
		ClientID:    parent.ClientID,
		UserID:      parent.UserID,
		Host:        parent.Host,
		Fingerprint: parent.Fingerprint,
		ExpiresAt:   ReservationExpiry(now, p.TTLMinutes),
		CreatedAt:   now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO reservations (resid, parent_resid, tenant_id, client_id, user_id, host, fingerprint, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.ResID, res.ParentResID, res.TenantID, res.ClientID, res.UserID,
		res.Host, res.Fingerprint, res.ExpiresAt, res.CreatedAt,
	)
	if err != nil {
		return nil, Internal("insert reservation extension", err)
	}

	metrics.ReservationsCreated.WithLabelValues("extension").Inc()

	return res, nil
}

// Delete removes exactly one reservation owned by the client.
func (s *ReservationService) Delete(ctx context.Context, tenantID, clientID, resID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM reservations WHERE resid = $1 AND tenant_id = $2 AND client_id = $3`,
		resID, tenantID, clientID,
	)
	if err != nil {
		return Internal("delete reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("reservation not found")
	}
	return nil
}

// DeleteRelated removes a reservation together with every reservation whose
// parent it is. Chains are flat, so one level covers the whole family.
func (s *ReservationService) DeleteRelated(ctx context.Context, tenantID, clientID, resID string) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM reservations WHERE tenant_id = $1 AND client_id = $2 AND (resid = $3 OR parent_resid = $3)`,
		tenantID, clientID, resID,
	)
	if err != nil {
		return 0, Internal("delete related reservations", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, NotFound("reservation not found")
	}
	return tag.RowsAffected(), nil
}

// GetByResID retrieves one reservation within a tenant.
func (s *ReservationService) GetByResID(ctx context.Context, tenantID, resID string) (*model.Reservation, error) {
	var r model.Reservation
	err := s.db.QueryRow(ctx,
		`SELECT resid, parent_resid, tenant_id, client_id, user_id, host, fingerprint, expires_at, created_at
		 FROM reservations WHERE resid = $1 AND tenant_id = $2`,
		resID, tenantID,
	).Scan(&r.ResID, &r.ParentResID, &r.TenantID, &r.ClientID,
		&r.UserID, &r.Host, &r.Fingerprint, &r.ExpiresAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("reservation not found")
	}
	if err != nil {
		return nil, Internal("get reservation", err)
	}
	return &r, nil
}

// ListByTenant retrieves a tenant's reservations with cursor-based pagination.
func (s *ReservationService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.Reservation, bool, error) {
	query := `SELECT resid, parent_resid, tenant_id, client_id, user_id, host, fingerprint, expires_at, created_at
	 FROM reservations WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND resid > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY resid`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, Internal("list reservations", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ResID, &r.ParentResID, &r.TenantID, &r.ClientID,
			&r.UserID, &r.Host, &r.Fingerprint, &r.ExpiresAt, &r.CreatedAt); err != nil {
			return nil, false, Internal("scan reservation", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, Internal("iterate reservations", err)
	}

	hasMore := len(reservations) > limit
	if hasMore {
		reservations = reservations[:limit]
	}
	return reservations, hasMore, nil
}

// PurgeExpired deletes reservations whose expiry has passed and returns the
// number removed. Driven by the background sweeper.
func (s *ReservationService) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM reservations WHERE expires_at <= now()`)
	if err != nil {
		return 0, Internal("purge expired reservations", err)
	}
	purged := tag.RowsAffected()
	if purged > 0 {
		metrics.ReservationsPurged.Add(float64(purged))
	}
	return purged, nil
}
