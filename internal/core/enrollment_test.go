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

	"github.com/edvin/keybroker/internal/model"
)

func enrollmentFullScan(e model.Enrollment) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = e.ID
		*(dest[1].(*string)) = e.TenantID
		*(dest[2].(*string)) = e.UserID
		*(dest[3].(*bool)) = e.Enabled
		*(dest[4].(*time.Time)) = e.ExpiresAt
		*(dest[5].(*time.Time)) = e.CreatedAt
		*(dest[6].(*time.Time)) = e.UpdatedAt
		return nil
	}
}

func testEnrollment() model.Enrollment {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return model.Enrollment{
		ID:        "test-enroll-1",
		TenantID:  "test-tenant-1",
		UserID:    "test-user-1",
		Enabled:   true,
		ExpiresAt: now.Add(12 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestEnrollmentService_Upsert_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	want := testEnrollment()
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{scanFunc: enrollmentFullScan(want)})

	enrollment, err := svc.Upsert(ctx, "test-tenant-1", "test-user-1", 720)
	require.NoError(t, err)
	require.NotNil(t, enrollment)
	assert.Equal(t, want.UserID, enrollment.UserID)
	assert.True(t, enrollment.Enabled)
	db.AssertExpectations(t)
}

// Re-enrolling must refresh in place instead of failing on the unique key.
func TestEnrollmentService_Upsert_StatementRefreshes(t *testing.T) {
	db := &mockDB{}
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	var gotSQL string
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Run(func(args mock.Arguments) {
		gotSQL = args.String(1)
	}).Return(&mockRow{scanFunc: enrollmentFullScan(testEnrollment())})

	_, err := svc.Upsert(ctx, "test-tenant-1", "test-user-1", 720)
	require.NoError(t, err)
	assert.Contains(t, gotSQL, "ON CONFLICT (tenant_id, user_id)")
	assert.Contains(t, gotSQL, "enabled = true")
	db.AssertExpectations(t)
}

func TestEnrollmentService_Upsert_Error(t *testing.T) {
	db := &mockDB{}
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	errorRow := &mockRow{scanFunc: func(dest ...any) error {
		return errors.New("db error")
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(errorRow)

	enrollment, err := svc.Upsert(ctx, "test-tenant-1", "test-user-1", 720)
	require.Error(t, err)
	assert.Nil(t, enrollment)
	assert.Contains(t, err.Error(), "upsert enrollment")
	db.AssertExpectations(t)
}

func TestEnrollmentService_GetByUserID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(noRowsRow())

	enrollment, err := svc.GetByUserID(ctx, "test-tenant-1", "missing")
	require.Error(t, err)
	assert.Nil(t, enrollment)
	assert.Equal(t, ClassNotFound, ClassOf(err))
	db.AssertExpectations(t)
}

func TestEnrollmentService_SetEnabled_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	want := testEnrollment()
	want.Enabled = false
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{scanFunc: enrollmentFullScan(want)})

	enrollment, err := svc.SetEnabled(ctx, "test-tenant-1", "test-user-1", false)
	require.NoError(t, err)
	assert.False(t, enrollment.Enabled)
	db.AssertExpectations(t)
}

func TestEnrollmentService_ListByTenant_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	want := testEnrollment()
	rows := newMockRows(enrollmentFullScan(want))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	result, hasMore, err := svc.ListByTenant(ctx, "test-tenant-1", 50, "")
	require.NoError(t, err)
	assert.False(t, hasMore)
	require.Len(t, result, 1)
	assert.Equal(t, want.UserID, result[0].UserID)
	db.AssertExpectations(t)
}

func TestEnrollmentService_Delete_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("DELETE 0"), nil)

	err := svc.Delete(ctx, "test-tenant-1", "missing")
	require.Error(t, err)
	assert.Equal(t, ClassNotFound, ClassOf(err))
	db.AssertExpectations(t)
}
