package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/keybroker/internal/api/request"
	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/core"
)

// Delegation handles client-for-user delegation endpoints.
type Delegation struct {
	svc *core.DelegationService
}

// NewDelegation creates a new Delegation handler.
func NewDelegation(svc *core.DelegationService) *Delegation {
	return &Delegation{svc: svc}
}

// Create godoc
//
//	@Summary		Delegate a user to a client
//	@Description	Authorizes a client to request credentials for a user, valid for ttl_minutes. Re-posting an existing delegation refreshes the expiry in place.
//	@Tags			Delegations
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.CreateDelegation true "Delegation details"
//	@Success		201 {object} model.Delegation
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/delegations [post]
func (h *Delegation) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req request.CreateDelegation
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	delegation, err := h.svc.Upsert(r.Context(), tenantID, req.ClientID, req.UserID, intOr(req.TTLMinutes, -1))
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, delegation)
}

// Get returns the delegation for a (client, user) pair.
func (h *Delegation) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	clientID, err := request.RequireID(chi.URLParam(r, "clientID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := request.RequireID(chi.URLParam(r, "userID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	delegation, err := h.svc.Get(r.Context(), tenantID, clientID, userID)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, delegation)
}

// List returns a paginated list of the tenant's delegations, optionally
// filtered by user.
func (h *Delegation) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	p := request.ParseList(r)

	delegations, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, p.UserID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	var nextCursor string
	if hasMore && len(delegations) > 0 {
		nextCursor = delegations[len(delegations)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, delegations, nextCursor, hasMore)
}

// Delete revokes a delegation.
func (h *Delegation) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	clientID, err := request.RequireID(chi.URLParam(r, "clientID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := request.RequireID(chi.URLParam(r, "userID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), tenantID, clientID, userID); err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
