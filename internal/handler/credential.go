package handler

import (
	"log/slog"
	"net/http"

	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/server/middleware"
	"github.com/askdb/askdb/internal/service"
	"github.com/askdb/askdb/internal/store"
	"github.com/askdb/askdb/internal/telegram"
)

// CredentialHandler manages a user's notification credentials.
type CredentialHandler struct {
	store  *store.Store
	agents *service.AgentManager
	logger *slog.Logger

	// botBaseURL overrides the Bot API host in tests.
	botBaseURL string
}

// NewCredentialHandler creates a new CredentialHandler.
func NewCredentialHandler(st *store.Store, agents *service.AgentManager, logger *slog.Logger) *CredentialHandler {
	return &CredentialHandler{store: st, agents: agents, logger: logger}
}

// SetBotBaseURL redirects Telegram token checks to a stand-in server.
func (h *CredentialHandler) SetBotBaseURL(baseURL string) {
	h.botBaseURL = baseURL
}

// List returns the caller's credentials.
// GET /api/credentials
func (h *CredentialHandler) List(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	creds, err := h.store.ListCredentials(r.Context(), p.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list credentials")
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

// createCredentialRequest is the expected payload for the Create endpoint.
type createCredentialRequest struct {
	Credentials *model.CredentialData `json:"credentials"`
}

// Create stores a new credential. Telegram bot tokens get a getMe probe
// whose failure is logged but does not block the write, since Telegram may
// be unreachable from the server while still valid for the user.
// POST /api/credentials
func (h *CredentialHandler) Create(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	var req createCredentialRequest
	if err := readJSON(r, &req); err != nil || req.Credentials == nil {
		writeError(w, http.StatusBadRequest, "Missing credentials data")
		return
	}
	if err := req.Credentials.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Credentials.Kind() == model.CredentialTelegram {
		var opts []telegram.ClientOption
		if h.botBaseURL != "" {
			opts = append(opts, telegram.WithBaseURL(h.botBaseURL))
		}
		bot := telegram.NewClient(req.Credentials.BotToken, opts...)
		if me, err := bot.GetMe(r.Context()); err != nil {
			h.logger.Warn("telegram token check failed", "error", err)
		} else {
			h.logger.Info("telegram token verified", "bot", me.Username)
		}
	}

	cred := &model.Credential{
		UserID:     p.UserID,
		Data:       *req.Credentials,
		CreatedBy:  p.Email,
		ModifiedBy: p.Email,
	}
	if err := h.store.CreateCredential(r.Context(), cred); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store credential")
		return
	}

	writeJSON(w, http.StatusCreated, cred)
}

// Delete removes one of the caller's credentials. Agents bound to the
// credential cascade away with it, so their relays are stopped first.
// DELETE /api/credentials
func (h *CredentialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	var req deleteRequest
	if err := readJSON(r, &req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "Missing credential ID")
		return
	}
	id, err := parseID(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credential ID")
		return
	}

	cred, err := h.store.GetCredential(r.Context(), id)
	if err != nil || cred.UserID != p.UserID {
		writeError(w, http.StatusForbidden, "Not authorized to delete this credential")
		return
	}

	agentIDs, err := h.store.ListAgentIDsByCredential(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete credential")
		return
	}
	for _, agentID := range agentIDs {
		h.agents.StopAgent(agentID)
	}

	if err := h.store.DeleteCredential(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete credential")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted successfully"})
}
