package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewTenantService(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)

	require.NotNil(t, svc)
	assert.Equal(t, db, svc.db)
}

// ---------- Create ----------

func TestTenantService_Create_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	tenant, err := svc.Create(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, tenant)
	assert.NotEmpty(t, tenant.ID)
	assert.Equal(t, "acme", tenant.Name)
	assert.True(t, tenant.Enabled)
	db.AssertExpectations(t)
}

func TestTenantService_Create_DuplicateName(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"})

	tenant, err := svc.Create(ctx, "acme")
	require.Error(t, err)
	assert.Nil(t, tenant)
	assert.Equal(t, ClassInvalid, ClassOf(err))
	assert.Equal(t, "tenant name already exists", PublicMessage(err))
	db.AssertExpectations(t)
}

func TestTenantService_Create_InsertError(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, errors.New("db error"))

	tenant, err := svc.Create(ctx, "acme")
	require.Error(t, err)
	assert.Nil(t, tenant)
	assert.Contains(t, err.Error(), "insert tenant")
	db.AssertExpectations(t)
}

// ---------- GetByID ----------

func TestTenantService_GetByID_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "test-tenant-1"
		*(dest[1].(*string)) = "acme"
		*(dest[2].(*bool)) = true
		*(dest[3].(*time.Time)) = now
		*(dest[4].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	tenant, err := svc.GetByID(ctx, "test-tenant-1")
	require.NoError(t, err)
	require.NotNil(t, tenant)
	assert.Equal(t, "test-tenant-1", tenant.ID)
	assert.Equal(t, "acme", tenant.Name)
	assert.True(t, tenant.Enabled)
	db.AssertExpectations(t)
}

func TestTenantService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(noRowsRow())

	tenant, err := svc.GetByID(ctx, "missing")
	require.Error(t, err)
	assert.Nil(t, tenant)
	assert.Equal(t, ClassNotFound, ClassOf(err))
	db.AssertExpectations(t)
}

// ---------- SetEnabled ----------

func TestTenantService_SetEnabled_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "test-tenant-1"
		*(dest[1].(*string)) = "acme"
		*(dest[2].(*bool)) = false
		*(dest[3].(*time.Time)) = now
		*(dest[4].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	tenant, err := svc.SetEnabled(ctx, "test-tenant-1", false)
	require.NoError(t, err)
	require.NotNil(t, tenant)
	assert.False(t, tenant.Enabled)
	db.AssertExpectations(t)
}

func TestTenantService_SetEnabled_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(noRowsRow())

	tenant, err := svc.SetEnabled(ctx, "missing", false)
	require.Error(t, err)
	assert.Nil(t, tenant)
	assert.Equal(t, ClassNotFound, ClassOf(err))
	db.AssertExpectations(t)
}

// ---------- Delete ----------

func TestTenantService_Delete_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("DELETE 1"), nil)

	err := svc.Delete(ctx, "test-tenant-1")
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestTenantService_Delete_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewTenantService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("DELETE 0"), nil)

	err := svc.Delete(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, ClassNotFound, ClassOf(err))
	db.AssertExpectations(t)
}
