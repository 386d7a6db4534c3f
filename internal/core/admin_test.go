package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdminService_Create_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAdminService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	admin, secret, err := svc.Create(ctx, "test-tenant-1", "alice")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, "alice", admin.AdminID)
	assert.True(t, admin.Enabled)
	assert.True(t, strings.HasPrefix(secret, "kba_"))
	db.AssertExpectations(t)
}

func TestAdminService_Create_Duplicate(t *testing.T) {
	db := &mockDB{}
	svc := NewAdminService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"})

	admin, secret, err := svc.Create(ctx, "test-tenant-1", "alice")
	require.Error(t, err)
	assert.Nil(t, admin)
	assert.Empty(t, secret)
	assert.Equal(t, ClassInvalid, ClassOf(err))
	db.AssertExpectations(t)
}

func TestAdminService_GetByAdminID_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAdminService(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "test-admin-row-1"
		*(dest[1].(*string)) = "test-tenant-1"
		*(dest[2].(*string)) = "alice"
		*(dest[3].(*bool)) = true
		*(dest[4].(*time.Time)) = now
		*(dest[5].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	admin, err := svc.GetByAdminID(ctx, "test-tenant-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", admin.AdminID)
	db.AssertExpectations(t)
}

func TestAdminService_SetEnabled_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewAdminService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(noRowsRow())

	admin, err := svc.SetEnabled(ctx, "test-tenant-1", "missing", false)
	require.Error(t, err)
	assert.Nil(t, admin)
	assert.Equal(t, ClassNotFound, ClassOf(err))
	db.AssertExpectations(t)
}
