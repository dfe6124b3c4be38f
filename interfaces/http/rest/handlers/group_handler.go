package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mgmtapi/application/services"
	"mgmtapi/domain/management"
	"mgmtapi/pkg/common"
	"mgmtapi/pkg/utils"
)

// GroupHandler handles group HTTP requests
type GroupHandler struct {
	service *services.GroupService
	logger  *zap.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(service *services.GroupService, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{
		service: service,
		logger:  logger,
	}
}

// GroupRequest represents the request body for creating or updating a group
type GroupRequest struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name" validate:"required,max=128"`
	EventRules     []string `json:"eventRules,omitempty" validate:"omitempty,dive,oneof=API_CREATE APPLICATION_CREATE"`
	Administrators []string `json:"administrators,omitempty"`
}

// GroupResponse represents a group in responses
type GroupResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
	EventRules     []string   `json:"eventRules,omitempty"`
	Administrators []string   `json:"administrators"`
}

// List handles GET /groups, optionally filtered by ?ids=a,b and paginated
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		groups []*management.Group
		err    error
	)

	if ids := r.URL.Query().Get("ids"); ids != "" {
		groups, err = h.service.FindByIDs(r.Context(), strings.Split(ids, ","))
	} else {
		groups, err = h.service.FindAll(r.Context())
	}
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	params := common.ExtractPaginationParams(r)
	total := len(groups)
	offset := params.CalculateOffset()
	if offset > total {
		offset = total
	}
	end := offset + params.PageSize
	if end > total {
		end = total
	}

	common.RespondWithMeta(w, http.StatusOK, groupResponses(groups[offset:end]), &common.MetaInfo{
		Timestamp:  utils.NowRFC3339(),
		Pagination: common.BuildPaginationMeta(params.Page, params.PageSize, total),
	})
}

// Get handles GET /groups/{groupID}
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "groupID")

	group, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if group == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Group not found")
		return
	}

	common.RespondJSON(w, http.StatusOK, groupResponse(group))
}

// Create handles POST /groups
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	group, err := req.toDomain()
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	created, err := h.service.Create(r.Context(), group)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, groupResponse(created))
}

// Update handles PUT /groups/{groupID}
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "groupID")

	var req GroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	existing, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if existing == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Group not found")
		return
	}

	req.ID = id
	group, err := req.toDomain()
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	// The creation timestamp is server-owned and survives the rewrite.
	group.CreatedAt = existing.CreatedAt

	updated, err := h.service.Update(r.Context(), group)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, groupResponse(updated))
}

// Delete handles DELETE /groups/{groupID}
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "groupID")

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (req GroupRequest) toDomain() (*management.Group, error) {
	rules := make([]management.GroupEventRule, 0, len(req.EventRules))
	for _, raw := range req.EventRules {
		event, err := management.ParseGroupEvent(raw)
		if err != nil {
			return nil, err
		}
		rules = append(rules, management.GroupEventRule{Event: event})
	}

	return &management.Group{
		ID:             req.ID,
		Name:           req.Name,
		EventRules:     rules,
		Administrators: req.Administrators,
	}, nil
}

func groupResponse(group *management.Group) GroupResponse {
	rules := make([]string, 0, len(group.EventRules))
	for _, rule := range group.EventRules {
		rules = append(rules, string(rule.Event))
	}

	resp := GroupResponse{
		ID:             group.ID,
		Name:           group.Name,
		EventRules:     rules,
		Administrators: group.Administrators,
	}
	if !group.CreatedAt.IsZero() {
		createdAt := group.CreatedAt
		resp.CreatedAt = &createdAt
	}
	if !group.UpdatedAt.IsZero() {
		updatedAt := group.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

func groupResponses(groups []*management.Group) []GroupResponse {
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupResponse(g))
	}
	return out
}
