package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/bgpvpn/internal/api/request"
	"github.com/edvin/bgpvpn/internal/api/response"
	"github.com/edvin/bgpvpn/internal/core"
	"github.com/edvin/bgpvpn/internal/model"
)

// APIKey handles API key management endpoints. All of them are admin only.
type APIKey struct {
	svc *core.APIKeyService
}

// NewAPIKey creates a new APIKey handler.
func NewAPIKey(svc *core.APIKeyService) *APIKey {
	return &APIKey{svc: svc}
}

// Create generates a new API key. The raw key is returned once in the response.
func (h *APIKey) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, rawKey, err := h.svc.Create(r.Context(), req.Name, req.TenantID, req.IsAdmin)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// The raw key is only ever shown here.
	resp := map[string]any{
		"id":         key.ID,
		"name":       key.Name,
		"key":        rawKey,
		"key_prefix": key.KeyPrefix,
		"tenant_id":  key.TenantID,
		"is_admin":   key.IsAdmin,
		"created_at": key.CreatedAt,
	}
	response.WriteEnvelope(w, http.StatusCreated, "api_key", resp)
}

// List lists all API keys, revoked ones included.
func (h *APIKey) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if keys == nil {
		keys = []model.APIKey{}
	}
	response.WriteEnvelope(w, http.StatusOK, "api_keys", keys)
}

// Revoke revokes an API key. Requests made with it fail from then on.
func (h *APIKey) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Revoke(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
