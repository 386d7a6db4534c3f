package handler

import (
	"net/http"

	"github.com/edvin/keybroker/internal/api/request"
	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/core"
)

// Tenant handles tenant endpoints. Tenants are created out of band by the
// create-tenant bootstrap, so the API only reads, toggles, and deletes them.
type Tenant struct {
	svc *core.TenantService
}

// NewTenant creates a new Tenant handler.
func NewTenant(svc *core.TenantService) *Tenant {
	return &Tenant{svc: svc}
}

// Get godoc
//
//	@Summary		Get a tenant
//	@Tags			Tenants
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Success		200 {object} model.Tenant
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID} [get]
func (h *Tenant) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	tenant, err := h.svc.GetByID(r.Context(), tenantID)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, tenant)
}

// Update godoc
//
//	@Summary		Suspend or resume a tenant
//	@Description	Disabling a tenant blocks authentication for every principal in it.
//	@Tags			Tenants
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.UpdateTenant true "New state"
//	@Success		200 {object} model.Tenant
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID} [put]
func (h *Tenant) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req request.UpdateTenant
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := h.svc.SetEnabled(r.Context(), tenantID, *req.Enabled)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, tenant)
}

// Delete godoc
//
//	@Summary		Delete a tenant
//	@Description	Removes the tenant and, through cascading keys, every principal, dependency, credential, and reservation under it.
//	@Tags			Tenants
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Success		204
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID} [delete]
func (h *Tenant) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), tenantID); err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
