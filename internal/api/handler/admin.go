package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/keybroker/internal/api/request"
	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/core"
	"github.com/edvin/keybroker/internal/model"
)

// Admin handles tenant admin endpoints.
type Admin struct {
	svc *core.AdminService
}

// NewAdmin creates a new Admin handler.
func NewAdmin(svc *core.AdminService) *Admin {
	return &Admin{svc: svc}
}

// Create godoc
//
//	@Summary		Register a tenant admin
//	@Description	The admin secret is generated server-side, stored as a hash, and returned only in this response.
//	@Tags			Admins
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.CreateAdmin true "Admin details"
//	@Success		201 {object} model.Admin
//	@Failure		400 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/admins [post]
func (h *Admin) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req request.CreateAdmin
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, secret, err := h.svc.Create(r.Context(), tenantID, req.AdminID)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	type adminWithSecret struct {
		*model.Admin
		Secret string `json:"secret"`
	}
	response.WriteJSON(w, http.StatusCreated, adminWithSecret{
		Admin:  admin,
		Secret: secret,
	})
}

// Get returns a single admin by ID.
func (h *Admin) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	adminID, err := request.RequireID(chi.URLParam(r, "adminID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, err := h.svc.GetByAdminID(r.Context(), tenantID, adminID)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, admin)
}

// List returns a paginated list of the tenant's admins.
func (h *Admin) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	p := request.ParseList(r)

	admins, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	var nextCursor string
	if hasMore && len(admins) > 0 {
		nextCursor = admins[len(admins)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, admins, nextCursor, hasMore)
}

// Update suspends or resumes an admin.
func (h *Admin) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	adminID, err := request.RequireID(chi.URLParam(r, "adminID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdatePrincipal
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, err := h.svc.SetEnabled(r.Context(), tenantID, adminID, *req.Enabled)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, admin)
}

// Delete removes an admin.
func (h *Admin) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	adminID, err := request.RequireID(chi.URLParam(r, "adminID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), tenantID, adminID); err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
