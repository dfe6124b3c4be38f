package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mgmtapi/application/services"
	"mgmtapi/domain/management"
	"mgmtapi/pkg/common"
	"mgmtapi/pkg/utils"
)

// MembershipHandler handles membership HTTP requests
type MembershipHandler struct {
	service *services.MembershipService
	logger  *zap.Logger
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(service *services.MembershipService, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{
		service: service,
		logger:  logger,
	}
}

// MembershipRequest represents the request body for creating or updating
// a membership
type MembershipRequest struct {
	UserID        string         `json:"userId" validate:"required"`
	ReferenceID   string         `json:"referenceId" validate:"required"`
	ReferenceType string         `json:"referenceType" validate:"required"`
	Roles         map[int]string `json:"roles,omitempty"`
}

// MembershipSearchRequest represents the body for searching memberships
// across several references
type MembershipSearchRequest struct {
	ReferenceIDs []string `json:"referenceIds" validate:"required,min=1"`
	RoleScope    int      `json:"roleScope,omitempty"`
	RoleName     string   `json:"roleName,omitempty"`
}

// MembershipResponse represents a membership in responses
type MembershipResponse struct {
	UserID        string         `json:"userId"`
	ReferenceID   string         `json:"referenceId"`
	ReferenceType string         `json:"referenceType"`
	Roles         map[int]string `json:"roles,omitempty"`
	CreatedAt     *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time     `json:"updatedAt,omitempty"`
}

// Create handles POST /memberships
func (h *MembershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	membership, ok := h.decodeMembership(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), membership)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, membershipResponse(created))
}

// Update handles PUT /memberships
func (h *MembershipHandler) Update(w http.ResponseWriter, r *http.Request) {
	membership, ok := h.decodeMembership(w, r)
	if !ok {
		return
	}

	existing, err := h.service.FindByID(r.Context(), membership.UserID, membership.ReferenceType, membership.ReferenceID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if existing == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Membership not found")
		return
	}
	// The creation timestamp is server-owned and survives the rewrite.
	membership.CreatedAt = existing.CreatedAt

	updated, err := h.service.Update(r.Context(), membership)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, membershipResponse(updated))
}

// Get handles GET /memberships/{referenceType}/{referenceID}/{userID}
func (h *MembershipHandler) Get(w http.ResponseWriter, r *http.Request) {
	referenceType, ok := h.pathReferenceType(w, r)
	if !ok {
		return
	}

	membership, err := h.service.FindByID(r.Context(), chi.URLParam(r, "userID"), referenceType, chi.URLParam(r, "referenceID"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if membership == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Membership not found")
		return
	}

	common.RespondJSON(w, http.StatusOK, membershipResponse(membership))
}

// Delete handles DELETE /memberships/{referenceType}/{referenceID}/{userID}
func (h *MembershipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	referenceType, ok := h.pathReferenceType(w, r)
	if !ok {
		return
	}

	err := h.service.Delete(r.Context(), &management.Membership{
		UserID:        chi.URLParam(r, "userID"),
		ReferenceID:   chi.URLParam(r, "referenceID"),
		ReferenceType: referenceType,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByReference handles GET /memberships/{referenceType}/{referenceID},
// optionally restricted to holders of ?roleScope=&roleName=
func (h *MembershipHandler) ListByReference(w http.ResponseWriter, r *http.Request) {
	referenceType, ok := h.pathReferenceType(w, r)
	if !ok {
		return
	}
	roleScope, roleName, ok := h.queryRole(w, r)
	if !ok {
		return
	}

	memberships, err := h.service.FindByReferenceAndRole(r.Context(), referenceType, chi.URLParam(r, "referenceID"), roleScope, roleName)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, membershipResponses(memberships))
}

// SearchByReferences handles POST /memberships/{referenceType}/_search
func (h *MembershipHandler) SearchByReferences(w http.ResponseWriter, r *http.Request) {
	referenceType, ok := h.pathReferenceType(w, r)
	if !ok {
		return
	}

	var req MembershipSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	memberships, err := h.service.FindByReferencesAndRole(r.Context(), referenceType, req.ReferenceIDs, management.RoleScope(req.RoleScope), req.RoleName)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, membershipResponses(memberships))
}

// ListByUser handles GET /users/{userID}/memberships?referenceType=...
// An ids parameter narrows to specific references, a roleScope/roleName
// pair narrows to holders of that role.
func (h *MembershipHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	referenceType, err := management.ParseMembershipReferenceType(r.URL.Query().Get("referenceType"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if ids := r.URL.Query().Get("ids"); ids != "" {
		memberships, err := h.service.FindByIDs(r.Context(), userID, referenceType, strings.Split(ids, ","))
		if err != nil {
			respondServiceError(w, h.logger, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, membershipResponses(memberships))
		return
	}

	roleScope, roleName, ok := h.queryRole(w, r)
	if !ok {
		return
	}

	var memberships []*management.Membership
	if roleScope != 0 || roleName != "" {
		memberships, err = h.service.FindByUserAndReferenceTypeAndRole(r.Context(), userID, referenceType, roleScope, roleName)
	} else {
		memberships, err = h.service.FindByUserAndReferenceType(r.Context(), userID, referenceType)
	}
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, membershipResponses(memberships))
}

func (h *MembershipHandler) decodeMembership(w http.ResponseWriter, r *http.Request) (*management.Membership, bool) {
	var req MembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return nil, false
	}

	referenceType, err := management.ParseMembershipReferenceType(req.ReferenceType)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return nil, false
	}

	return &management.Membership{
		UserID:        req.UserID,
		ReferenceID:   req.ReferenceID,
		ReferenceType: referenceType,
		Roles:         req.Roles,
	}, true
}

func (h *MembershipHandler) pathReferenceType(w http.ResponseWriter, r *http.Request) (management.MembershipReferenceType, bool) {
	referenceType, err := management.ParseMembershipReferenceType(chi.URLParam(r, "referenceType"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return "", false
	}
	return referenceType, true
}

func (h *MembershipHandler) queryRole(w http.ResponseWriter, r *http.Request) (management.RoleScope, string, bool) {
	raw := r.URL.Query().Get("roleScope")
	if raw == "" {
		return 0, r.URL.Query().Get("roleName"), true
	}
	scope, err := strconv.Atoi(raw)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "roleScope must be an integer")
		return 0, "", false
	}
	return management.RoleScope(scope), r.URL.Query().Get("roleName"), true
}

func membershipResponse(membership *management.Membership) MembershipResponse {
	return MembershipResponse{
		UserID:        membership.UserID,
		ReferenceID:   membership.ReferenceID,
		ReferenceType: string(membership.ReferenceType),
		Roles:         membership.Roles,
		CreatedAt:     membership.CreatedAt,
		UpdatedAt:     membership.UpdatedAt,
	}
}

func membershipResponses(memberships []*management.Membership) []MembershipResponse {
	out := make([]MembershipResponse, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, membershipResponse(m))
	}
	return out
}
