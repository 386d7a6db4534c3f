package handler

import (
	"net/http"

	"github.com/edvin/keybroker/internal/api/request"
	"github.com/edvin/keybroker/internal/api/response"
	"github.com/edvin/keybroker/internal/core"
	"github.com/edvin/keybroker/internal/model"
)

// Credential handles credential issuance and budget endpoints.
type Credential struct {
	svc *core.CredentialService
}

// NewCredential creates a new Credential handler.
func NewCredential(svc *core.CredentialService) *Credential {
	return &Credential{svc: svc}
}

// Issue godoc
//
//	@Summary		Issue a credential
//	@Description	Verifies enrollment, delegation, and host mapping, generates a keypair, and stores the public half with its use budget. The private key appears in this response only and is never stored. Omitted or negative max_uses and ttl_minutes mean unlimited.
//	@Tags			Credentials
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.IssueCredential true "Credential details"
//	@Success		201 {object} model.Credential
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/credentials [post]
func (h *Credential) Issue(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req request.IssueCredential
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !checkPrincipal(w, r, req.ClientID) {
		return
	}

	cred, privateKey, err := h.svc.Issue(r.Context(), core.IssueParams{
		TenantID:    tenantID,
		ClientID:    req.ClientID,
		UserID:      req.UserID,
		Host:        req.Host,
		HostAccount: req.HostAccount,
		KeyType:     req.KeyType,
		MaxUses:     intOr(req.MaxUses, -1),
		TTLMinutes:  intOr(req.TTLMinutes, -1),
	})
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	// Return with the private key visible (only shown at issuance).
	type credentialWithKey struct {
		*model.Credential
		PrivateKey string `json:"private_key"`
	}
	response.WriteJSON(w, http.StatusCreated, credentialWithKey{
		Credential: cred,
		PrivateKey: privateKey,
	})
}

// UpdateQuota godoc
//
//	@Summary		Update a credential's budget
//	@Description	Atomically rewrites max_uses and/or ttl_minutes for a credential identified by host and fingerprint. Already-consumed uses stay consumed.
//	@Tags			Credentials
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			body body request.UpdateCredentialQuota true "New budget"
//	@Success		200 {object} model.Credential
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/credentials [put]
func (h *Credential) UpdateQuota(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req request.UpdateCredentialQuota
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !checkPrincipal(w, r, req.ClientID) {
		return
	}

	cred, err := h.svc.UpdateQuota(r.Context(), core.UpdateQuotaParams{
		TenantID:    tenantID,
		ClientID:    req.ClientID,
		Host:        req.Host,
		Fingerprint: req.Fingerprint,
		MaxUses:     req.MaxUses,
		TTLMinutes:  req.TTLMinutes,
	})
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, cred)
}

// List godoc
//
//	@Summary		List credentials for a tenant
//	@Description	Returns a paginated list of issued credentials, optionally filtered by client. Responses carry public keys and budgets only.
//	@Tags			Credentials
//	@Security		PrincipalAuth
//	@Param			tenantID path string true "Tenant ID"
//	@Param			client_id query string false "Filter by client"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Credential}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		403 {object} response.ErrorResponse
//	@Router			/tenants/{tenantID}/credentials [get]
func (h *Credential) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenant(w, r)
	if !ok {
		return
	}

	p := request.ParseList(r)

	creds, hasMore, err := h.svc.ListByTenant(r.Context(), tenantID, p.ClientID, p.Limit, p.Cursor)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	var nextCursor string
	if hasMore && len(creds) > 0 {
		nextCursor = creds[len(creds)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, creds, nextCursor, hasMore)
}
