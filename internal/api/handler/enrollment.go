package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/keybroker/internal/api/request"
	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/core"
)

// Enrollment handles MFA enrollment endpoints.
type Enrollment struct {
	svc *core.EnrollmentService
}

// NewEnrollment creates a new Enrollment handler.
func NewEnrollment(svc *core.EnrollmentService) *Enrollment {
	return &Enrollment{svc: svc}
}

// Create godoc
//
//	@Summary		Record an MFA enrollment
//	@Description	Records that a user completed MFA, valid for ttl_minutes. Re-posting an existing enrollment re-enables it and refreshes the expiry in place.
//	@Tags			Enrollments
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.CreateEnrollment true "Enrollment details"
//	@Success		201 {object} model.Enrollment
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/enrollments [post]
func (h *Enrollment) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req request.CreateEnrollment
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	enrollment, err := h.svc.Upsert(r.Context(), tenantID, req.UserID, intOr(req.TTLMinutes, -1))
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, enrollment)
}

// Get returns a user's enrollment.
func (h *Enrollment) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	userID, err := request.RequireID(chi.URLParam(r, "userID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	enrollment, err := h.svc.GetByUserID(r.Context(), tenantID, userID)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, enrollment)
}

// List returns a paginated list of the tenant's enrollments.
func (h *Enrollment) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	p := request.ParseList(r)

	enrollments, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	var nextCursor string
	if hasMore && len(enrollments) > 0 {
		nextCursor = enrollments[len(enrollments)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, enrollments, nextCursor, hasMore)
}

// Update suspends or resumes an enrollment without touching its expiry.
func (h *Enrollment) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	userID, err := request.RequireID(chi.URLParam(r, "userID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateEnrollment
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	enrollment, err := h.svc.SetEnabled(r.Context(), tenantID, userID, *req.Enabled)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, enrollment)
}

// Delete removes a user's enrollment, blocking further issuance for them.
func (h *Enrollment) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	userID, err := request.RequireID(chi.URLParam(r, "userID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), tenantID, userID); err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
