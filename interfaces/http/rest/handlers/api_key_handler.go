package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mgmtapi/application/services"
	"mgmtapi/domain/management"
	"mgmtapi/pkg/common"
	"mgmtapi/pkg/utils"
)

// ApiKeyHandler handles api key HTTP requests
type ApiKeyHandler struct {
	service *services.ApiKeyService
	logger  *zap.Logger
}

// NewApiKeyHandler creates a new api key handler
func NewApiKeyHandler(service *services.ApiKeyService, logger *zap.Logger) *ApiKeyHandler {
	return &ApiKeyHandler{
		service: service,
		logger:  logger,
	}
}

// ApiKeyRequest represents the request body for creating or updating a key
type ApiKeyRequest struct {
	Key          string     `json:"key,omitempty"`
	Application  string     `json:"application" validate:"required"`
	Subscription string     `json:"subscription" validate:"required"`
	Plan         string     `json:"plan,omitempty"`
	ExpireAt     *time.Time `json:"expireAt,omitempty"`
	Revoked      bool       `json:"revoked,omitempty"`
}

// ApiKeySearchRequest represents the body for the criteria search endpoint.
// The update-time window can be given as epoch millis (from/to) or as
// RFC3339 timestamps (fromTime/toTime).
type ApiKeySearchRequest struct {
	Plans          []string `json:"plans,omitempty"`
	From           int64    `json:"from,omitempty" validate:"min=0"`
	To             int64    `json:"to,omitempty" validate:"min=0"`
	FromTime       string   `json:"fromTime,omitempty"`
	ToTime         string   `json:"toTime,omitempty"`
	IncludeRevoked bool     `json:"includeRevoked,omitempty"`
}

func (req ApiKeySearchRequest) window() (from, to int64, err error) {
	from, to = req.From, req.To
	if req.FromTime != "" {
		t, err := utils.ParseRFC3339(req.FromTime)
		if err != nil {
			return 0, 0, err
		}
		from = t.UnixMilli()
	}
	if req.ToTime != "" {
		t, err := utils.ParseRFC3339(req.ToTime)
		if err != nil {
			return 0, 0, err
		}
		to = t.UnixMilli()
	}
	return from, to, nil
}

// ApiKeyResponse represents an api key in responses
type ApiKeyResponse struct {
	Key          string     `json:"key"`
	Application  string     `json:"application,omitempty"`
	Subscription string     `json:"subscription,omitempty"`
	Plan         string     `json:"plan,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	ExpireAt     *time.Time `json:"expireAt,omitempty"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty"`
	Revoked      bool       `json:"revoked"`
}

// Create handles POST /apikeys
func (h *ApiKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ApiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	if req.Key == "" {
		req.Key = uuid.New().String()
	}

	created, err := h.service.Create(r.Context(), req.toDomain())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, apiKeyResponse(created))
}

// Get handles GET /apikeys/{key}
func (h *ApiKeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	apiKey, err := h.service.FindByID(r.Context(), key)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if apiKey == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Api key not found")
		return
	}

	common.RespondJSON(w, http.StatusOK, apiKeyResponse(apiKey))
}

// Update handles PUT /apikeys/{key}
func (h *ApiKeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req ApiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	existing, err := h.service.FindByID(r.Context(), key)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if existing == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Api key not found")
		return
	}

	req.Key = key
	apiKey := req.toDomain()
	// Server-owned fields survive the rewrite; the request cannot reset them.
	apiKey.CreatedAt = existing.CreatedAt
	apiKey.RevokedAt = existing.RevokedAt
	switch {
	case apiKey.Revoked && !existing.Revoked:
		now := time.Now()
		apiKey.RevokedAt = &now
	case !apiKey.Revoked:
		apiKey.RevokedAt = nil
	}

	updated, err := h.service.Update(r.Context(), apiKey)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, apiKeyResponse(updated))
}

// Revoke handles POST /apikeys/{key}/_revoke
func (h *ApiKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	revoked, err := h.service.Revoke(r.Context(), key)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if revoked == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "Api key not found")
		return
	}

	common.RespondJSON(w, http.StatusOK, apiKeyResponse(revoked))
}

// List handles GET /apikeys?subscription=... or ?plan=...
func (h *ApiKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		apiKeys []*management.ApiKey
		err     error
	)

	switch {
	case r.URL.Query().Get("subscription") != "":
		apiKeys, err = h.service.FindBySubscription(r.Context(), r.URL.Query().Get("subscription"))
	case r.URL.Query().Get("plan") != "":
		apiKeys, err = h.service.FindByPlan(r.Context(), r.URL.Query().Get("plan"))
	default:
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Either subscription or plan query parameter is required")
		return
	}
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, apiKeyResponses(apiKeys))
}

// Search handles POST /apikeys/_search
func (h *ApiKeyHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req ApiKeySearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	from, to, err := req.window()
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, "time window must be RFC3339: "+err.Error())
		return
	}

	apiKeys, err := h.service.FindByCriteria(r.Context(), management.ApiKeyCriteria{
		Plans:          req.Plans,
		From:           from,
		To:             to,
		IncludeRevoked: req.IncludeRevoked,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, apiKeyResponses(apiKeys))
}

func (req ApiKeyRequest) toDomain() *management.ApiKey {
	return &management.ApiKey{
		Key:          req.Key,
		Application:  req.Application,
		Subscription: req.Subscription,
		Plan:         req.Plan,
		ExpireAt:     req.ExpireAt,
		Revoked:      req.Revoked,
	}
}

func apiKeyResponse(apiKey *management.ApiKey) ApiKeyResponse {
	return ApiKeyResponse{
		Key:          apiKey.Key,
		Application:  apiKey.Application,
		Subscription: apiKey.Subscription,
		Plan:         apiKey.Plan,
		CreatedAt:    apiKey.CreatedAt,
		UpdatedAt:    apiKey.UpdatedAt,
		ExpireAt:     apiKey.ExpireAt,
		RevokedAt:    apiKey.RevokedAt,
		Revoked:      apiKey.Revoked,
	}
}

func apiKeyResponses(apiKeys []*management.ApiKey) []ApiKeyResponse {
	out := make([]ApiKeyResponse, 0, len(apiKeys))
	for _, k := range apiKeys {
		out = append(out, apiKeyResponse(k))
	}
	return out
}
