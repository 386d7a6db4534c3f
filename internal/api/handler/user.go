package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/keybroker/internal/api/request"
	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/core"
	"github.com/edvin/keybroker/internal/model"
)

// User handles user principal endpoints.
type User struct {
	svc *core.UserService
}

// NewUser creates a new User handler.
func NewUser(svc *core.UserService) *User {
	return &User{svc: svc}
}

// Create godoc
//
//	@Summary		Register a user
//	@Description	The user secret is generated server-side, stored as a hash, and returned only in this response.
//	@Tags			Users
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.CreateUser true "User details"
//	@Success		201 {object} model.User
//	@Failure		400 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/users [post]
func (h *User) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req request.CreateUser
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, secret, err := h.svc.Create(r.Context(), tenantID, req.UserID)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	type userWithSecret struct {
		*model.User
		Secret string `json:"secret"`
	}
	response.WriteJSON(w, http.StatusCreated, userWithSecret{
		User:   user,
		Secret: secret,
	})
}

// Get returns a single user. Users may fetch their own record; admins any.
func (h *User) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	userID, err := request.RequireID(chi.URLParam(r, "userID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !checkPrincipal(w, r, userID) {
		return
	}

	user, err := h.svc.GetByUserID(r.Context(), tenantID, userID)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, user)
}

// List returns a paginated list of the tenant's users.
func (h *User) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	p := request.ParseList(r)

	users, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	var nextCursor string
	if hasMore && len(users) > 0 {
		nextCursor = users[len(users)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, users, nextCursor, hasMore)
}

// Update suspends or resumes a user.
func (h *User) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	userID, err := request.RequireID(chi.URLParam(r, "userID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdatePrincipal
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.SetEnabled(r.Context(), tenantID, userID, *req.Enabled)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, user)
}

// Delete removes a user.
func (h *User) Delete(w http.ResponseWriter, r *http.Request) {
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
