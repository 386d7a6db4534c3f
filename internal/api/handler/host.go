package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/keybroker/internal/api/request"
	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/core"
	"github.com/edvin/keybroker/internal/model"
)

// Host handles host agent endpoints.
type Host struct {
	svc *core.HostService
}

// NewHost creates a new Host handler.
func NewHost(svc *core.HostService) *Host {
	return &Host{svc: svc}
}

// Create godoc
//
//	@Summary		Register a host
//	@Description	Registers a host whose agent will authenticate reservation traffic. The agent secret is generated server-side, stored as a hash, and returned only in this response.
//	@Tags			Hosts
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.CreateHost true "Host details"
//	@Success		201 {object} model.Host
//	@Failure		400 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/hosts [post]
func (h *Host) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req request.CreateHost
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	host, secret, err := h.svc.Create(r.Context(), tenantID, req.Host)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	type hostWithSecret struct {
		*model.Host
		Secret string `json:"secret"`
	}
	response.WriteJSON(w, http.StatusCreated, hostWithSecret{
		Host:   host,
		Secret: secret,
	})
}

// Get returns a single host by name.
func (h *Host) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	hostName, err := request.RequireID(chi.URLParam(r, "host"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	host, err := h.svc.GetByHost(r.Context(), tenantID, hostName)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, host)
}

// List returns a paginated list of the tenant's hosts.
func (h *Host) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	p := request.ParseList(r)

	hosts, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	var nextCursor string
	if hasMore && len(hosts) > 0 {
		nextCursor = hosts[len(hosts)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, hosts, nextCursor, hasMore)
}

// Update suspends or resumes a host agent.
func (h *Host) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	hostName, err := request.RequireID(chi.URLParam(r, "host"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdatePrincipal
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	host, err := h.svc.SetEnabled(r.Context(), tenantID, hostName, *req.Enabled)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, host)
}

// Delete removes a host.
func (h *Host) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	hostName, err := request.RequireID(chi.URLParam(r, "host"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), tenantID, hostName); err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
