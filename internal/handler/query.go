package handler

import (
	"errors"
	"net/http"

	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/server/middleware"
	"github.com/askdb/askdb/internal/service"
)

// QueryHandler exposes the generation and execution halves of the pipeline.
type QueryHandler struct {
	queries *service.QueryService
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(queries *service.QueryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

// dbSchemaPayload is the schema projection the client sends alongside a
// generation request, mirroring what a project stores.
type dbSchemaPayload struct {
	Tables        model.SelectedTables `json:"tables"`
	Relationships model.Relationships  `json:"relationships"`
}

// generateQueryRequest is the expected payload for the Generate endpoint.
type generateQueryRequest struct {
	UserInput string          `json:"userInput"`
	DBSchema  dbSchemaPayload `json:"dbSchema"`
}

// generateQueryResponse is the response payload for the Generate endpoint.
type generateQueryResponse struct {
	Query string `json:"query"`
}

// Generate turns a natural-language request into SQL using the caller's
// stored provider key.
// POST /api/generate-query
func (h *QueryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	var req generateQueryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserInput == "" {
		writeError(w, http.StatusBadRequest, "User input is required")
		return
	}

	query, err := h.queries.Generate(r.Context(), p.UserID, req.UserInput, req.DBSchema.Tables, req.DBSchema.Relationships)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoAPIKey):
			writeError(w, http.StatusBadRequest, "No OpenAI API key found. Please add your API key first.")
		case errors.Is(err, llm.ErrNoQuery):
			writeError(w, http.StatusInternalServerError, "No query generated")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, generateQueryResponse{Query: query})
}

// executeQueryRequest is the expected payload for the Execute endpoint.
type executeQueryRequest struct {
	Query    string          `json:"query"`
	DBConfig *model.DBConfig `json:"dbConfig"`
}

// Execute runs a SQL statement against the described database and returns
// the rows plus the result column names.
// POST /api/execute-query
func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeQueryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if req.DBConfig == nil {
		writeError(w, http.StatusBadRequest, "Database config is required")
		return
	}

	result, err := h.queries.Execute(r.Context(), *req.DBConfig, req.Query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
