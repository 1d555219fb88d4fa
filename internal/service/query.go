package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/connector"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/store"
)

// ErrNoAPIKey is returned when a user asks for query generation without
// having stored a provider key first.
var ErrNoAPIKey = errors.New("no OpenAI API key found. Please add your API key first")

// llmProvider is the provider tag whose stored key funds query generation.
const llmProvider = "openai"

// QueryService runs the natural-language-to-SQL pipeline: prompt assembly,
// generation against the user's own provider key, and execution against the
// project's database.
type QueryService struct {
	store    *store.Store
	registry *connector.Registry
	llm      *llm.Client
}

// NewQueryService wires the pipeline together.
func NewQueryService(st *store.Store, registry *connector.Registry, client *llm.Client) *QueryService {
	return &QueryService{store: st, registry: registry, llm: client}
}

// Generate turns a natural-language request into SQL using the schema
// projection supplied by the caller. The generated text is returned verbatim.
func (s *QueryService) Generate(ctx context.Context, userID int64, userInput string, tables model.SelectedTables, relationships model.Relationships) (string, error) {
	key, err := s.store.GetAPIKeyByProvider(ctx, userID, llmProvider)
	if err != nil {
		if err == store.ErrNotFound {
			return "", ErrNoAPIKey
		}
		return "", err
	}

	prompt := llm.BuildPrompt(userInput, tables, relationships)
	return s.llm.Complete(ctx, key.Key, prompt)
}

// Execute runs a SQL query against the database described by cfg and returns
// the serialized result set.
func (s *QueryService) Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error) {
	conn, err := s.registry.Get(cfg.Type)
	if err != nil {
		return nil, err
	}
	result, err := conn.Execute(ctx, cfg, query)
	if err != nil {
		return nil, err
	}
	result.Rows = model.SerializeRows(result.Rows)
	return result, nil
}

// TestConnection probes the database described by cfg.
func (s *QueryService) TestConnection(ctx context.Context, cfg model.DBConfig) error {
	conn, err := s.registry.Get(cfg.Type)
	if err != nil {
		return err
	}
	return conn.Test(ctx, cfg)
}

// FetchSchema introspects the database described by cfg.
func (s *QueryService) FetchSchema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error) {
	conn, err := s.registry.Get(cfg.Type)
	if err != nil {
		return nil, err
	}
	return conn.Schema(ctx, cfg)
}

// Ask runs the full cycle for one project: generate SQL from the project's
// stored projection, execute it, and render the result as chat-sized text.
// This is the pipeline behind the Telegram relay and the MCP ask tool.
func (s *QueryService) Ask(ctx context.Context, userID int64, project *model.Project, question string) (string, error) {
	query, err := s.Generate(ctx, userID, question, project.SelectedTables, project.TableRelationships)
	if err != nil {
		return "", fmt.Errorf("generate query: %w", err)
	}

	result, err := s.Execute(ctx, project.DBCredential, query)
	if err != nil {
		return "", fmt.Errorf("execute query: %w", err)
	}

	return FormatResult(result), nil
}

// FormatResult renders a result set as readable chat text: the row count
// followed by pretty-printed rows. Large result sets are truncated.
const maxChatRows = 20

func FormatResult(result *model.QueryResult) string {
	if len(result.Rows) == 0 {
		return "No results."
	}

	rows := result.Rows
	truncated := false
	if len(rows) > maxChatRows {
		rows = rows[:maxChatRows]
		truncated = true
	}

	body, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Sprintf("%d row(s).", len(result.Rows))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d row(s):\n", len(result.Rows))
	b.Write(body)
	if truncated {
		fmt.Fprintf(&b, "\n… showing first %d rows", maxChatRows)
	}
	return b.String()
}
