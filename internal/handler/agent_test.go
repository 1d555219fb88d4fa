package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/model"
)

// seedAgentDeps creates a project and a credential owned by the current
// principal and returns their IDs as request-shaped strings.
func seedAgentDeps(t *testing.T, env *testEnv, data model.CredentialData) (string, string) {
	t.Helper()

	project := &model.Project{
		UserID: env.principal.UserID,
		Name:   "shop",
		DBCredential: model.DBConfig{
			Type: model.DBPostgres, Host: "db", DBName: "shop", User: "reader",
		},
		ConnectionStatus: model.StatusConnected,
		CreatedBy:        env.principal.Email,
		ModifiedBy:       env.principal.Email,
	}
	if err := env.store.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	cred := &model.Credential{
		UserID:     env.principal.UserID,
		Data:       data,
		CreatedBy:  env.principal.Email,
		ModifiedBy: env.principal.Email,
	}
	if err := env.store.CreateCredential(context.Background(), cred); err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}

	return strconv.FormatInt(project.ID, 10), strconv.FormatInt(cred.ID, 10)
}

func TestAgentCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice@example.com")

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"project_id": "1", "credential_id": "1"}},
		{"missing project", map[string]string{"agent_name": "a", "credential_id": "1"}},
		{"missing credential", map[string]string{"agent_name": "a", "project_id": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/agent", toJSON(t, tt.body))
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}

	// References to resources the caller does not own are rejected too.
	rr := env.do(t, "POST", "/api/agent", toJSON(t, map[string]string{
		"agent_name": "a", "project_id": "424242", "credential_id": "424242",
	}))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestAgentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice@example.com")
	projectID, credID := seedAgentDeps(t, env, model.CredentialData{
		Email: "bot@example.com", Password: "pw",
	})

	rr := env.do(t, "POST", "/api/agent", toJSON(t, map[string]string{
		"agent_name": "shop-bot", "project_id": projectID, "credential_id": credID,
	}))
	assertStatus(t, rr, http.StatusCreated)

	var created model.Agent
	decodeJSON(t, rr, &created)
	if created.IsActive {
		t.Error("new agents should start inactive")
	}
	if created.Project == nil || created.Credential == nil {
		t.Error("expected hydrated project and credential on creation")
	}
	id := strconv.FormatInt(created.ID, 10)

	rr = env.do(t, "GET", "/api/agent", nil)
	assertStatus(t, rr, http.StatusOK)
	var agents []model.Agent
	decodeJSON(t, rr, &agents)
	if len(agents) != 1 || agents[0].Project == nil {
		t.Fatalf("agents = %+v", agents)
	}

	rr = env.do(t, "PUT", "/api/agent", toJSON(t, map[string]interface{}{
		"id": id, "is_active": true,
	}))
	assertStatus(t, rr, http.StatusOK)

	got, err := env.store.GetAgent(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetAgent: %v", err)
	}
	if !got.IsActive {
		t.Error("toggle did not persist")
	}

	rr = env.do(t, "PUT", "/api/agent", toJSON(t, map[string]interface{}{
		"id": id, "is_active": false,
	}))
	assertStatus(t, rr, http.StatusOK)
	got, err = env.store.GetAgent(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetAgent: %v", err)
	}
	if got.IsActive {
		t.Error("second toggle should restore the inactive state")
	}

	rr = env.do(t, "PUT", "/api/agent", toJSON(t, map[string]interface{}{
		"id": "424242", "is_active": true,
	}))
	assertStatus(t, rr, http.StatusNotFound)

	rr = env.do(t, "PUT", "/api/agent", toJSON(t, map[string]interface{}{"id": id}))
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, "DELETE", "/api/agent", toJSON(t, map[string]string{"id": "424242"}))
	assertStatus(t, rr, http.StatusNotFound)

	rr = env.do(t, "DELETE", "/api/agent", toJSON(t, map[string]string{"id": id}))
	assertStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"success":true`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestAgentToggleRunsTelegramRelay(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice@example.com")

	// A quiet Bot API: getUpdates long-polls until the relay shuts down.
	bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getUpdates") {
			<-r.Context().Done()
			w.Write([]byte(`{"ok":true,"result":[]}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	t.Cleanup(bot.Close)
	env.agents.SetBotBaseURL(bot.URL)

	projectID, credID := seedAgentDeps(t, env, model.CredentialData{
		BotToken: "12345:abc", ChatID: "777",
	})

	rr := env.do(t, "POST", "/api/agent", toJSON(t, map[string]string{
		"agent_name": "relay-bot", "project_id": projectID, "credential_id": credID,
	}))
	assertStatus(t, rr, http.StatusCreated)
	var created model.Agent
	decodeJSON(t, rr, &created)
	id := strconv.FormatInt(created.ID, 10)

	rr = env.do(t, "PUT", "/api/agent", toJSON(t, map[string]interface{}{
		"id": id, "is_active": true,
	}))
	assertStatus(t, rr, http.StatusOK)
	if !env.agents.Running(created.ID) {
		t.Fatal("expected a running relay after activation")
	}

	rr = env.do(t, "PUT", "/api/agent", toJSON(t, map[string]interface{}{
		"id": id, "is_active": false,
	}))
	assertStatus(t, rr, http.StatusOK)
	if env.agents.Running(created.ID) {
		t.Fatal("expected the relay to stop after deactivation")
	}
}
