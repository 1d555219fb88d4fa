package handler

import (
	"net/http"

	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/service"
)

// DBConnHandler probes and introspects external databases ahead of project
// creation.
type DBConnHandler struct {
	queries *service.QueryService
}

// NewDBConnHandler creates a new DBConnHandler.
func NewDBConnHandler(queries *service.QueryService) *DBConnHandler {
	return &DBConnHandler{queries: queries}
}

// dbConnRequest is the shared payload of the test-connection and get-schema
// endpoints: a type tag plus the per-type connection fields.
type dbConnRequest struct {
	DBType   string          `json:"db_type"`
	DBConfig *model.DBConfig `json:"db_config"`
}

func (r dbConnRequest) config() model.DBConfig {
	cfg := *r.DBConfig
	cfg.Type = r.DBType
	return cfg
}

// connTestResponse is the response payload of the TestConnection endpoint.
type connTestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestConnection opens a short-lived connection to the described database.
// An unreachable database is a 400 with the probe failure, not a 500: the
// server itself is healthy.
// POST /api/db-connection/test-connection
func (h *DBConnHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	var req dbConnRequest
	if err := readJSON(r, &req); err != nil || req.DBType == "" || req.DBConfig == nil {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}

	cfg := req.config()
	if err := cfg.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, connTestResponse{Success: false, Message: err.Error()})
		return
	}
	if err := h.queries.TestConnection(r.Context(), cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, connTestResponse{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, connTestResponse{Success: true, Message: "Connection successful"})
}

// GetSchema introspects the described database and returns its base tables
// and foreign keys.
// POST /api/db-connection/get-schema
func (h *DBConnHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	var req dbConnRequest
	if err := readJSON(r, &req); err != nil || req.DBType == "" || req.DBConfig == nil {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}

	schema, err := h.queries.FetchSchema(r.Context(), req.config())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, schema)
}
