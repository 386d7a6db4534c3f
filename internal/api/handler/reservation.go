package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/keybroker/internal/api/middleware"
	"github.com/edvin/keybroker/internal/api/request"
	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/authz"
	"github.com/edvin/keybroker/internal/core"
)

// Reservation handles reservation lifecycle endpoints.
type Reservation struct {
	svc *core.ReservationService
}

// NewReservation creates a new Reservation handler.
func NewReservation(svc *core.ReservationService) *Reservation {
	return &Reservation{svc: svc}
}

// actingClientID resolves the client a body-less reservation call acts for:
// the client_id query parameter when present, else the caller itself when
// the caller is a client.
func actingClientID(r *http.Request) string {
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		return clientID
	}
	identity := mw.GetIdentity(r.Context())
	if identity != nil && identity.Kind == authz.KindClientOwn {
		return identity.ID
	}
	return ""
}

// Create godoc
//
//	@Summary		Create a reservation
//	@Description	Opens a root reservation against an issued credential, consuming one use from its budget. The requested TTL is clamped to the reservation window; omitting it requests the full window.
//	@Tags			Reservations
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.CreateReservation true "Reservation details"
//	@Success		201 {object} model.Reservation
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/reservations [post]
func (h *Reservation) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req request.CreateReservation
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !checkPrincipal(w, r, req.ClientID) {
		return
	}

	res, err := h.svc.Create(r.Context(), core.CreateParams{
		TenantID:    tenantID,
		ClientID:    req.ClientID,
		UserID:      req.UserID,
		Host:        req.Host,
		Fingerprint: req.Fingerprint,
		TTLMinutes:  intOr(req.TTLMinutes, -1),
	})
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, res)
}

// Extend godoc
//
//	@Summary		Extend a reservation
//	@Description	Creates an extension of an unexpired reservation. Extensions consume no budget; their expiry is computed fresh from now and clamped to the reservation window. All extensions point at the chain's root.
//	@Tags			Reservations
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			resID path string true "Reservation ID"
//	@Param			body body request.ExtendReservation true "Extension details"
//	@Success		201 {object} model.Reservation
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/reservations/{resID}/extensions [post]
func (h *Reservation) Extend(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	resID, err := request.RequireID(chi.URLParam(r, "resID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.ExtendReservation
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !checkPrincipal(w, r, req.ClientID) {
		return
	}

	res, err := h.svc.Extend(r.Context(), core.ExtendParams{
		TenantID:    tenantID,
		ClientID:    req.ClientID,
		ResID:       resID,
		UserID:      req.UserID,
		Host:        req.Host,
		Fingerprint: req.Fingerprint,
		TTLMinutes:  intOr(req.TTLMinutes, -1),
	})
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, res)
}

// List godoc
//
//	@Summary		List reservations for a tenant
//	@Description	Returns a paginated list of open reservations.
//	@Tags			Reservations
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Reservation}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/reservations [get]
func (h *Reservation) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	p := request.ParseList(r)

	reservations, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	var nextCursor string
	if hasMore && len(reservations) > 0 {
		nextCursor = reservations[len(reservations)-1].ResID
	}
	response.WritePaginated(w, http.StatusOK, reservations, nextCursor, hasMore)
}

// Delete godoc
//
//	@Summary		Delete a reservation
//	@Description	Deletes a single reservation owned by the acting client. Admins name the client in the client_id query parameter.
//	@Tags			Reservations
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			resID path string true "Reservation ID"
//	@Param			client_id query string false "Acting client (admins only)"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/reservations/{resID} [delete]
func (h *Reservation) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	resID, err := request.RequireID(chi.URLParam(r, "resID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	clientID := actingClientID(r)
	if clientID == "" {
		response.WriteError(w, http.StatusBadRequest, "missing client_id")
		return
	}
	if !checkPrincipal(w, r, clientID) {
		return
	}

	if err := h.svc.Delete(r.Context(), tenantID, clientID, resID); err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteRelated godoc
//
//	@Summary		Delete a reservation chain
//	@Description	Deletes a reservation together with every extension pointing at it and returns the number of rows removed.
//	@Tags			Reservations
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			resID path string true "Reservation ID"
//	@Param			client_id query string false "Acting client (admins only)"
//	@Success		200 {object} map[string]int64
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/reservations/{resID}/related [delete]
func (h *Reservation) DeleteRelated(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	resID, err := request.RequireID(chi.URLParam(r, "resID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	clientID := actingClientID(r)
	if clientID == "" {
		response.WriteError(w, http.StatusBadRequest, "missing client_id")
		return
	}
	if !checkPrincipal(w, r, clientID) {
		return
	}

	deleted, err := h.svc.DeleteRelated(r.Context(), tenantID, clientID, resID)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
