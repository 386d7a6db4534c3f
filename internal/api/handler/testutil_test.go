package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/keybroker/internal/api/middleware"
	"github.com/edvin/keybroker/internal/authz"
)

// newRequest creates a new HTTP request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// newRequestRaw creates a new HTTP request with a raw string body.
func newRequestRaw(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParams adds multiple chi URL parameters to the request context.
func withChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorResponse parses the JSON error response body into a map.
func decodeErrorResponse(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

// withIdentity attaches an authenticated identity to the request context, as
// the Auth middleware would.
func withIdentity(r *http.Request, kind authz.Kind, tenantID, id string) *http.Request {
	identity := &authz.Identity{Kind: kind, TenantID: tenantID, ID: id}
	return r.WithContext(mw.WithIdentity(r.Context(), identity))
}

// asAdmin authenticates the request as an admin of the given tenant.
func asAdmin(r *http.Request, tenantID string) *http.Request {
	return withIdentity(r, authz.KindTenantAdmin, tenantID, "test-admin-1")
}

// asClient authenticates the request as the given client.
func asClient(r *http.Request, tenantID, clientID string) *http.Request {
	return withIdentity(r, authz.KindClientOwn, tenantID, clientID)
}

const testTenant = "test-tenant-1"
