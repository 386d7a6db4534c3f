package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edvin/keybroker/internal/keygen"
	"github.com/edvin/keybroker/internal/metrics"
	"github.com/edvin/keybroker/internal/model"
	"github.com/edvin/keybroker/internal/platform"
)

// KeyGenerator mints keypairs. *keygen.Generator satisfies this interface.
type KeyGenerator interface {
	Generate(ctx context.Context, keyType string) (*keygen.KeyPair, error)
}

// CredentialService issues credentials and manages their use budgets.
type CredentialService struct {
	db   DB
	deps *DependencyService
	keys KeyGenerator
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(db DB, deps *DependencyService, keys KeyGenerator) *CredentialService {
	return &CredentialService{db: db, deps: deps, keys: keys}
}

// IssueParams are the caller-supplied fields of a new credential. Negative
// MaxUses or TTLMinutes mean unlimited.
type IssueParams struct {
	TenantID    string
	ClientID    string
	UserID      string
	Host        string
	HostAccount string
	KeyType     string
	MaxUses     int
	TTLMinutes  int
}

// Issue verifies the issuance dependencies, generates a keypair, and stores
// the credential. The private key is returned alongside the model exactly
// once and is never persisted or logged.
func (s *CredentialService) Issue(ctx context.Context, p IssueParams) (*model.Credential, string, error) {
	maxUses := NormalizeMaxUses(p.MaxUses)

	if err := s.deps.VerifyIssuance(ctx, p.TenantID, p.ClientID, p.UserID, p.Host, p.HostAccount); err != nil {
		return nil, "", err
	}

	// Key generation runs outside any transaction: it shells out to the
	// keygen tool and must not hold a connection while it does.
	pair, err := s.keys.Generate(ctx, p.KeyType)
	if err != nil {
		return nil, "", Internal("generate key material", err)
	}

	now := time.Now().UTC()
	cred := &model.Credential{
		ID:            platform.NewID(),
		TenantID:      p.TenantID,
		ClientID:      p.ClientID,
		UserID:        p.UserID,
		Host:          p.Host,
		HostAccount:   p.HostAccount,
		Fingerprint:   pair.Fingerprint,
		PublicKey:     pair.PublicKey,
		KeyType:       pair.KeyType,
		KeyBits:       pair.Bits,
		MaxUses:       maxUses,
		RemainingUses: maxUses,
		TTLMinutes:    p.TTLMinutes,
		ExpiresAt:     ExpiryFromTTL(now, p.TTLMinutes),
		CreatedAt:     now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO credentials (id, tenant_id, client_id, user_id, host, host_account, fingerprint, public_key, key_type, key_bits, max_uses, remaining_uses, ttl_minutes, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		cred.ID, cred.TenantID, cred.ClientID, cred.UserID, cred.Host, cred.HostAccount,
		cred.Fingerprint, cred.PublicKey, cred.KeyType, cred.KeyBits,
		cred.MaxUses, cred.RemainingUses, cred.TTLMinutes, cred.ExpiresAt, cred.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, "", Invalid("credential already exists for this key")
		}
		return nil, "", Internal("insert credential", err)
	}

	metrics.CredentialsIssued.WithLabelValues(cred.KeyType).Inc()

	return cred, pair.PrivateKey, nil
}

// UpdateQuotaParams carry the optional new budget and lifetime for a
// credential identified by its key tuple. At least one field must be set.
type UpdateQuotaParams struct {
	TenantID    string
	ClientID    string
	Host        string
	Fingerprint string
	MaxUses     *int
	TTLMinutes  *int
}

// UpdateQuota atomically rewrites a credential's budget. The already-consumed
// use count is preserved: remaining becomes new_max - consumed, floored at
// zero, computed inside the UPDATE so concurrent reservations cannot interleave.
func (s *CredentialService) UpdateQuota(ctx context.Context, p UpdateQuotaParams) (*model.Credential, error) {
	if p.MaxUses == nil && p.TTLMinutes == nil {
		return nil, Invalid("max_uses or ttl_minutes required")
	}

	var newMax *int
	if p.MaxUses != nil {
		m := NormalizeMaxUses(*p.MaxUses)
		newMax = &m
	}

	var newExpiry *time.Time
	if p.TTLMinutes != nil {
		e := ExpiryFromTTL(time.Now().UTC(), *p.TTLMinutes)
		newExpiry = &e
	}

	var c model.Credential
	err := s.db.QueryRow(ctx,
		`UPDATE credentials SET
			max_uses = CASE WHEN $5::int IS NULL THEN max_uses ELSE $5 END,
			remaining_uses = CASE WHEN $5::int IS NULL THEN remaining_uses ELSE GREATEST($5 - (max_uses - remaining_uses), 0) END,
			ttl_minutes = COALESCE($6, ttl_minutes),
			expires_at = COALESCE($7, expires_at)
		 WHERE client_id = $1 AND tenant_id = $2 AND host = $3 AND fingerprint = $4
		 RETURNING id, tenant_id, client_id, user_id, host, host_account, fingerprint, public_key, key_type, key_bits, max_uses, remaining_uses, ttl_minutes, expires_at, created_at`,
		p.ClientID, p.TenantID, p.Host, p.Fingerprint, newMax, p.TTLMinutes, newExpiry,
	).Scan(&c.ID, &c.TenantID, &c.ClientID, &c.UserID, &c.Host, &c.HostAccount,
		&c.Fingerprint, &c.PublicKey, &c.KeyType, &c.KeyBits,
		&c.MaxUses, &c.RemainingUses, &c.TTLMinutes, &c.ExpiresAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("credential not found")
	}
	if err != nil {
		return nil, Internal("update credential quota", err)
	}

	return &c, nil
}

// GetByKey retrieves a credential by its unique key tuple.
func (s *CredentialService) GetByKey(ctx context.Context, tenantID, clientID, host, fingerprint string) (*model.Credential, error) {
	var c model.Credential
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, client_id, user_id, host, host_account, fingerprint, public_key, key_type, key_bits, max_uses, remaining_uses, ttl_minutes, expires_at, created_at
		 FROM credentials WHERE client_id = $1 AND tenant_id = $2 AND host = $3 AND fingerprint = $4`,
		clientID, tenantID, host, fingerprint,
	).Scan(&c.ID, &c.TenantID, &c.ClientID, &c.UserID, &c.Host, &c.HostAccount,
		&c.Fingerprint, &c.PublicKey, &c.KeyType, &c.KeyBits,
		&c.MaxUses, &c.RemainingUses, &c.TTLMinutes, &c.ExpiresAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("credential not found")
	}
	if err != nil {
		return nil, Internal("get credential", err)
	}
	return &c, nil
}

// ListByTenant retrieves a tenant's credentials with cursor-based pagination,
// optionally filtered to one client.
func (s *CredentialService) ListByTenant(ctx context.Context, tenantID, clientID string, limit int, cursor string) ([]model.Credential, bool, error) {
	query := `SELECT id, tenant_id, client_id, user_id, host, host_account, fingerprint, public_key, key_type, key_bits, max_uses, remaining_uses, ttl_minutes, expires_at, created_at
	 FROM credentials WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

	if clientID != "" {
		query += fmt.Sprintf(` AND client_id = $%d`, argIdx)
		args = append(args, clientID)
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
		return nil, false, Internal("list credentials", err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		var c model.Credential
		if err := rows.Scan(&c.ID, &c.TenantID, &c.ClientID, &c.UserID, &c.Host, &c.HostAccount,
			&c.Fingerprint, &c.PublicKey, &c.KeyType, &c.KeyBits,
			&c.MaxUses, &c.RemainingUses, &c.TTLMinutes, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, false, Internal("scan credential", err)
		}
		creds = append(creds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, Internal("iterate credentials", err)
	}

	hasMore := len(creds) > limit
	if hasMore {
		creds = creds[:limit]
	}
	return creds, hasMore, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
