package handler

import (
	"errors"
	"net/http"

	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/server/middleware"
	"github.com/askdb/askdb/internal/store"
)

// ProjectHandler manages registered database connections and their schema
// projections.
type ProjectHandler struct {
	store *store.Store
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(st *store.Store) *ProjectHandler {
	return &ProjectHandler{store: st}
}

// listProjectsResponse is the response payload for the List endpoint.
type listProjectsResponse struct {
	Count    int             `json:"count"`
	Projects []model.Project `json:"projects"`
}

// List returns the caller's projects, newest first.
// GET /api/project
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	projects, err := h.store.ListProjects(r.Context(), p.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	writeJSON(w, http.StatusOK, listProjectsResponse{
		Count:    len(projects),
		Projects: projects,
	})
}

// createProjectRequest is the expected payload for the Create endpoint. The
// client runs the connection test before saving and reports its outcome.
type createProjectRequest struct {
	Name                     string               `json:"project_name"`
	DBCredential             *model.DBConfig      `json:"db_credential"`
	SelectedTables           model.SelectedTables `json:"selected_tables"`
	TableRelationships       model.Relationships  `json:"table_relationships"`
	ConnectionTestSuccessful bool                 `json:"connectionTestSuccessful"`
}

// Create registers a project. The schema projection is stored as provided
// and never re-checked against the live database.
// POST /api/project
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	var req createProjectRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || req.DBCredential == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := req.DBCredential.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := model.StatusError
	if req.ConnectionTestSuccessful {
		status = model.StatusConnected
	}

	project := &model.Project{
		UserID:             p.UserID,
		Name:               req.Name,
		DBCredential:       *req.DBCredential,
		SelectedTables:     req.SelectedTables,
		TableRelationships: req.TableRelationships,
		ConnectionStatus:   status,
		CreatedBy:          p.Email,
		ModifiedBy:         p.Email,
	}
	if err := h.store.CreateProject(r.Context(), project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// Get returns a single project by ID. Other users' projects read as absent.
// GET /api/project/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	project, err := h.store.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch project")
		return
	}
	if project.UserID != p.UserID {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}

	writeJSON(w, http.StatusOK, project)
}
