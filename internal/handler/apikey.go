package handler

import (
	"errors"
	"net/http"

	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/server/middleware"
	"github.com/askdb/askdb/internal/store"
)

// APIKeyHandler manages a user's stored model-provider API keys.
type APIKeyHandler struct {
	store *store.Store
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(st *store.Store) *APIKeyHandler {
	return &APIKeyHandler{store: st}
}

// List returns the caller's keys with the key material withheld.
// GET /api/apikeys
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	keys, err := h.store.ListAPIKeys(r.Context(), p.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

// createAPIKeyRequest is the expected payload for the Create endpoint.
type createAPIKeyRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
}

// Create stores a key for a provider. At most one key per provider.
// POST /api/apikeys
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	var req createAPIKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Provider == "" || req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "Missing provider or API key")
		return
	}

	key := &model.APIKey{
		UserID:     p.UserID,
		Provider:   req.Provider,
		Key:        req.APIKey,
		CreatedBy:  p.Email,
		ModifiedBy: p.Email,
	}
	if err := h.store.CreateAPIKey(r.Context(), key); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "API key already exists for this provider")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to store API key")
		return
	}

	writeJSON(w, http.StatusCreated, key)
}

// deleteRequest is the shared body shape for ID-addressed deletes. The
// frontend sends IDs as decimal strings.
type deleteRequest struct {
	ID string `json:"id"`
}

// Delete removes one of the caller's keys. Deleting another user's key, or
// one that does not exist, is reported as a 403 rather than leaking which.
// DELETE /api/apikeys
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	var req deleteRequest
	if err := readJSON(r, &req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "Missing API key ID")
		return
	}
	id, err := parseID(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid API key ID")
		return
	}

	key, err := h.store.GetAPIKey(r.Context(), id)
	if err != nil || key.UserID != p.UserID {
		writeError(w, http.StatusForbidden, "Not authorized to delete this API key")
		return
	}
	if err := h.store.DeleteAPIKey(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted successfully"})
}
