package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/keybroker/internal/api/middleware"
	"github.com/edvin/keybroker/internal/api/request"
	"github.com/edvin/keybroker/internal/api/response"
)

// requireTenant extracts the tenantID path parameter and verifies the
// authenticated identity belongs to that tenant. Writes the error response
// and returns false otherwise.
func requireTenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return "", false
	}

	identity := mw.GetIdentity(r.Context())
	if identity == nil || !identity.CheckTenant(tenantID) {
		response.WriteError(w, http.StatusForbidden, "tenant access denied")
		return "", false
	}
	return tenantID, true
}

// checkPrincipal verifies the identity may act for the requested principal.
// Identity-bound callers may only act as themselves.
func checkPrincipal(w http.ResponseWriter, r *http.Request, requested string) bool {
	identity := mw.GetIdentity(r.Context())
	if identity == nil || !identity.CheckID(requested) {
		response.WriteError(w, http.StatusForbidden, "principal access denied")
		return false
	}
	return true
}

// intOr unwraps an optional integer field, falling back when absent. The
// fallback is usually the negative unlimited sentinel.
func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}
