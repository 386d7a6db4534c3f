package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/keybroker/internal/core"
)

func newCredentialHandler() *Credential {
	return NewCredential(nil)
}

func issueBody() map[string]any {
	return map[string]any{
		"client_id":    "ci-runner",
		"user_id":      "alice",
		"host":         "db-01.prod.example.com",
		"host_account": "deploy",
		"key_type":     "ed25519",
	}
}

// --- Issue ---

func TestCredentialIssue_EmptyTenantID(t *testing.T) {
	h := newCredentialHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/tenants//credentials", issueBody())
	r = withChiURLParam(r, "tenantID", "")

	h.Issue(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

func TestCredentialIssue_NoIdentity(t *testing.T) {
	h := newCredentialHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/tenants/"+testTenant+"/credentials", issueBody())
	r = withChiURLParam(r, "tenantID", testTenant)

	h.Issue(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Equal(t, "tenant access denied", body["error"])
}

func TestCredentialIssue_WrongTenant(t *testing.T) {
	h := newCredentialHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/tenants/"+testTenant+"/credentials", issueBody())
	r = withChiURLParam(r, "tenantID", testTenant)
	r = asAdmin(r, "test-tenant-2")

	h.Issue(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Equal(t, "tenant access denied", body["error"])
}

func TestCredentialIssue_InvalidJSON(t *testing.T) {
	h := newCredentialHandler()
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/tenants/"+testTenant+"/credentials", "{bad json")
	r = withChiURLParam(r, "tenantID", testTenant)
	r = asAdmin(r, testTenant)

	h.Issue(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestCredentialIssue_MissingRequiredFields(t *testing.T) {
	h := newCredentialHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/tenants/"+testTenant+"/credentials", map[string]any{})
	r = withChiURLParam(r, "tenantID", testTenant)
	r = asAdmin(r, testTenant)

	h.Issue(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestCredentialIssue_UnknownKeyType(t *testing.T) {
	h := newCredentialHandler()
	rec := httptest.NewRecorder()
	body := issueBody()
	body["key_type"] = "rot13"
	r := newRequest(http.MethodPost, "/tenants/"+testTenant+"/credentials", body)
	r = withChiURLParam(r, "tenantID", testTenant)
	r = asAdmin(r, testTenant)

	h.Issue(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCredentialIssue_ClientMismatch(t *testing.T) {
	h := newCredentialHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/tenants/"+testTenant+"/credentials", issueBody())
	r = withChiURLParam(r, "tenantID", testTenant)
	r = asClient(r, testTenant, "some-other-client")

	h.Issue(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Equal(t, "principal access denied", body["error"])
}

func TestCredentialIssue_Success(t *testing.T) {
	db := &handlerMockDB{}
	future := time.Now().Add(time.Hour)

	// Enrollment, delegation, and host mapping all present and unexpired.
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*time.Time)) = future
			*(dest[1].(*bool)) = true
			return nil
		}}).Once()
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*time.Time)) = future
			return nil
		}}).Twice()
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	svc := core.NewCredentialService(db, core.NewDependencyService(db), stubKeygen{})
	h := NewCredential(svc)

	rec := httptest.NewRecorder()
	body := issueBody()
	body["max_uses"] = 3
	body["ttl_minutes"] = 30
	r := newRequest(http.MethodPost, "/tenants/"+testTenant+"/credentials", body)
	r = withChiURLParam(r, "tenantID", testTenant)
	r = asClient(r, testTenant, "ci-runner")

	h.Issue(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ci-runner", resp["client_id"])
	assert.Equal(t, "SHA256:handlerfp", resp["fingerprint"])
	assert.Equal(t, float64(3), resp["max_uses"])
	assert.Equal(t, float64(3), resp["remaining_uses"])
	assert.Contains(t, resp["private_key"], "PRIVATE KEY")
	db.AssertExpectations(t)
}

// --- UpdateQuota ---

func TestCredentialUpdateQuota_MissingFingerprint(t *testing.T) {
	h := newCredentialHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/tenants/"+testTenant+"/credentials", map[string]any{
		"client_id": "ci-runner",
		"host":      "db-01.prod.example.com",
		"max_uses":  10,
	})
	r = withChiURLParam(r, "tenantID", testTenant)
	r = asAdmin(r, testTenant)

	h.UpdateQuota(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestCredentialUpdateQuota_ClientMismatch(t *testing.T) {
	h := newCredentialHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/tenants/"+testTenant+"/credentials", map[string]any{
		"client_id":   "ci-runner",
		"host":        "db-01.prod.example.com",
		"fingerprint": "SHA256:abc123",
		"max_uses":    10,
	})
	r = withChiURLParam(r, "tenantID", testTenant)
	r = asClient(r, testTenant, "some-other-client")

	h.UpdateQuota(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// --- List ---

func TestCredentialList_NoIdentity(t *testing.T) {
	h := newCredentialHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/tenants/"+testTenant+"/credentials", nil)
	r = withChiURLParam(r, "tenantID", testTenant)

	h.List(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
