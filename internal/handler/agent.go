package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/server/middleware"
	"github.com/askdb/askdb/internal/service"
	"github.com/askdb/askdb/internal/store"
)

// AgentHandler manages agents and the relays behind them. Toggling an agent
// active starts its Telegram relay in-process; toggling it off or deleting
// it tears the relay down.
type AgentHandler struct {
	store  *store.Store
	agents *service.AgentManager
	logger *slog.Logger
}

// NewAgentHandler creates a new AgentHandler.
func NewAgentHandler(st *store.Store, agents *service.AgentManager, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{store: st, agents: agents, logger: logger}
}

// List returns the caller's agents with their project and credential
// hydrated.
// GET /api/agent
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	agents, err := h.store.ListAgents(r.Context(), p.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list agents")
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

// createAgentRequest is the expected payload for the Create endpoint.
type createAgentRequest struct {
	Name         string `json:"agent_name"`
	ProjectID    string `json:"project_id"`
	CredentialID string `json:"credential_id"`
}

// Create registers an agent binding a project to a credential. Agents start
// inactive; the toggle endpoint brings them up.
// POST /api/agent
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	var req createAgentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || req.ProjectID == "" || req.CredentialID == "" {
		writeError(w, http.StatusBadRequest, "Invalid input data")
		return
	}
	projectID, err := parseID(req.ProjectID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input data")
		return
	}
	credentialID, err := parseID(req.CredentialID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input data")
		return
	}

	// Both referenced resources must belong to the caller.
	project, err := h.store.GetProject(r.Context(), projectID)
	if err != nil || project.UserID != p.UserID {
		writeError(w, http.StatusBadRequest, "Invalid project")
		return
	}
	cred, err := h.store.GetCredential(r.Context(), credentialID)
	if err != nil || cred.UserID != p.UserID {
		writeError(w, http.StatusBadRequest, "Invalid credential")
		return
	}

	agent := &model.Agent{
		UserID:       p.UserID,
		Name:         req.Name,
		ProjectID:    projectID,
		CredentialID: credentialID,
		IsActive:     false,
		CreatedBy:    p.Email,
		ModifiedBy:   p.Email,
	}
	if err := h.store.CreateAgent(r.Context(), agent); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create agent")
		return
	}
	agent.Project = project
	agent.Credential = cred

	writeJSON(w, http.StatusCreated, agent)
}

// toggleAgentRequest is the expected payload for the Toggle endpoint.
type toggleAgentRequest struct {
	ID       string `json:"id"`
	IsActive *bool  `json:"is_active"`
}

// Toggle flips an agent's active flag and starts or stops its relay to
// match. Toggling to the current state is a no-op.
// PUT /api/agent
func (h *AgentHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	var req toggleAgentRequest
	if err := readJSON(r, &req); err != nil || req.ID == "" || req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "Agent ID and is_active are required")
		return
	}
	id, err := parseID(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid agent ID")
		return
	}

	agent, err := h.store.GetAgent(r.Context(), id)
	if err != nil || agent.UserID != p.UserID {
		writeError(w, http.StatusNotFound, "Agent not found")
		return
	}

	if err := h.store.SetAgentActive(r.Context(), id, *req.IsActive); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update agent")
		return
	}
	agent.IsActive = *req.IsActive

	if *req.IsActive {
		if err := h.agents.StartAgent(agent); err != nil {
			h.logger.Error("agent start failed", "agent_id", agent.ID, "error", err)
		}
	} else {
		h.agents.StopAgent(agent.ID)
	}

	writeJSON(w, http.StatusOK, agent)
}

// Delete stops an agent's relay and removes it.
// DELETE /api/agent
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	var req deleteRequest
	if err := readJSON(r, &req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "Missing agent ID")
		return
	}
	id, err := parseID(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid agent ID")
		return
	}

	agent, err := h.store.GetAgent(r.Context(), id)
	if err != nil || agent.UserID != p.UserID {
		writeError(w, http.StatusNotFound, "Agent not found")
		return
	}

	h.agents.StopAgent(id)
	if err := h.store.DeleteAgent(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Agent not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete agent")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Agent deleted",
	})
}
