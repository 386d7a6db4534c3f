package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/keybroker/internal/api/request"
	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/core"
	"github.com/edvin/keybroker/internal/model"
)

// Client handles client principal endpoints.
type Client struct {
	svc *core.ClientService
}

// NewClient creates a new Client handler.
func NewClient(svc *core.ClientService) *Client {
	return &Client{svc: svc}
}

// Create godoc
//
//	@Summary		Register a client
//	@Description	Registers an automation client. The client secret is generated server-side, stored as a hash, and returned only in this response.
//	@Tags			Clients
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.CreateClient true "Client details"
//	@Success		201 {object} model.Client
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/clients [post]
func (h *Client) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req request.CreateClient
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, secret, err := h.svc.Create(r.Context(), tenantID, req.ClientID)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	// Return with secret visible (only shown on creation).
	type clientWithSecret struct {
		*model.Client
		Secret string `json:"secret"`
	}
	response.WriteJSON(w, http.StatusCreated, clientWithSecret{
		Client: client,
		Secret: secret,
	})
}

// Get godoc
//
//	@Summary		Get a client
//	@Tags			Clients
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			clientID path string true "Client ID"
//	@Success		200 {object} model.Client
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/clients/{clientID} [get]
func (h *Client) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	clientID, err := request.RequireID(chi.URLParam(r, "clientID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.svc.GetByClientID(r.Context(), tenantID, clientID)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, client)
}

// List godoc
//
//	@Summary		List clients for a tenant
//	@Tags			Clients
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Client}
//	@Failure		400 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/clients [get]
func (h *Client) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	p := request.ParseList(r)

	clients, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	var nextCursor string
	if hasMore && len(clients) > 0 {
		nextCursor = clients[len(clients)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, clients, nextCursor, hasMore)
}

// Update godoc
//
//	@Summary		Suspend or resume a client
//	@Description	A suspended client cannot authenticate; its stored secret is kept.
//	@Tags			Clients
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			clientID path string true "Client ID"
//	@Param			body body request.UpdatePrincipal true "New state"
//	@Success		200 {object} model.Client
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/clients/{clientID} [put]
func (h *Client) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	clientID, err := request.RequireID(chi.URLParam(r, "clientID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdatePrincipal
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.svc.SetEnabled(r.Context(), tenantID, clientID, *req.Enabled)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, client)
}

// Delete godoc
//
//	@Summary		Delete a client
//	@Tags			Clients
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			clientID path string true "Client ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/clients/{clientID} [delete]
func (h *Client) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	clientID, err := request.RequireID(chi.URLParam(r, "clientID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), tenantID, clientID); err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
