package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/keybroker/internal/api/request"
	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/core"
)

// HostMapping handles user-to-host-account mapping endpoints.
type HostMapping struct {
	svc *core.HostMappingService
}

// NewHostMapping creates a new HostMapping handler.
func NewHostMapping(svc *core.HostMappingService) *HostMapping {
	return &HostMapping{svc: svc}
}

// Create godoc
//
//	@Summary		Map a user to a host account
//	@Description	Grants a user an account on a host, valid for ttl_minutes. Re-posting an existing mapping refreshes the expiry in place.
//	@Tags			Host Mappings
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.CreateHostMapping true "Mapping details"
//	@Success		201 {object} model.HostMapping
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/host-mappings [post]
func (h *HostMapping) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req request.CreateHostMapping
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	mapping, err := h.svc.Upsert(r.Context(), tenantID, req.UserID, req.Host, req.HostAccount, intOr(req.TTLMinutes, -1))
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, mapping)
}

// Get returns the mapping for a (user, host, host account) triple.
func (h *HostMapping) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	userID, err := request.RequireID(chi.URLParam(r, "userID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	host, err := request.RequireID(chi.URLParam(r, "host"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	hostAccount, err := request.RequireID(chi.URLParam(r, "hostAccount"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	mapping, err := h.svc.Get(r.Context(), tenantID, userID, host, hostAccount)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, mapping)
}

// List returns a paginated list of the tenant's host mappings, optionally
// filtered by user and host.
func (h *HostMapping) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	p := request.ParseList(r)

	mappings, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, p.UserID, p.Host, p.Limit, p.Cursor)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	var nextCursor string
	if hasMore && len(mappings) > 0 {
		nextCursor = mappings[len(mappings)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, mappings, nextCursor, hasMore)
}

// Delete revokes a host mapping.
func (h *HostMapping) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	userID, err := request.RequireID(chi.URLParam(r, "userID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	host, err := request.RequireID(chi.URLParam(r, "host"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	hostAccount, err := request.RequireID(chi.URLParam(r, "hostAccount"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), tenantID, userID, host, hostAccount); err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
