package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/model"
	"github.com/askdb/askdb/internal/store"
)

// newBotStub serves a minimal Bot API that answers getMe.
func newBotStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"username":"askdb_bot"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCredentialCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice@example.com")
	env.credH.SetBotBaseURL(newBotStub(t).URL)

	rr := env.do(t, "POST", "/api/credentials", toJSON(t, map[string]interface{}{
		"credentials": map[string]string{"botToken": "12345:abc", "chatId": "777"},
	}))
	assertStatus(t, rr, http.StatusCreated)

	rr = env.do(t, "POST", "/api/credentials", toJSON(t, map[string]interface{}{
		"credentials": map[string]string{"email": "bot@example.com", "password": "app-pass"},
	}))
	assertStatus(t, rr, http.StatusCreated)

	rr = env.do(t, "GET", "/api/credentials", nil)
	assertStatus(t, rr, http.StatusOK)

	var creds []model.Credential
	decodeJSON(t, rr, &creds)
	if len(creds) != 2 {
		t.Fatalf("got %d credentials, want 2", len(creds))
	}
}

func TestCredentialValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice@example.com")

	rr := env.do(t, "POST", "/api/credentials", toJSON(t, map[string]interface{}{}))
	assertStatus(t, rr, http.StatusBadRequest)

	// Half a telegram pair is rejected.
	rr = env.do(t, "POST", "/api/credentials", toJSON(t, map[string]interface{}{
		"credentials": map[string]string{"botToken": "12345:abc"},
	}))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestCredentialDeleteOwnership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice@example.com")

	cred := &model.Credential{
		UserID:     alice.ID,
		Data:       model.CredentialData{Email: "bot@example.com", Password: "pw"},
		CreatedBy:  alice.Email,
		ModifiedBy: alice.Email,
	}
	if err := env.store.CreateCredential(context.Background(), cred); err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}

	env.seedUser(t, "bob@example.com")
	rr := env.do(t, "DELETE", "/api/credentials", toJSON(t, map[string]string{
		"id": strconv.FormatInt(cred.ID, 10),
	}))
	assertStatus(t, rr, http.StatusForbidden)

	env.principal.UserID = alice.ID
	rr = env.do(t, "DELETE", "/api/credentials", toJSON(t, map[string]string{
		"id": strconv.FormatInt(cred.ID, 10),
	}))
	assertStatus(t, rr, http.StatusOK)
}

func TestCredentialDeleteStopsBoundRelays(t *testing.T) {
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
	var agent model.Agent
	decodeJSON(t, rr, &agent)

	rr = env.do(t, "PUT", "/api/agent", toJSON(t, map[string]interface{}{
		"id": strconv.FormatInt(agent.ID, 10), "is_active": true,
	}))
	assertStatus(t, rr, http.StatusOK)
	if !env.agents.Running(agent.ID) {
		t.Fatal("expected a running relay after activation")
	}

	// Deleting the credential cascades the agent away and must take the
	// relay down with it.
	rr = env.do(t, "DELETE", "/api/credentials", toJSON(t, map[string]string{"id": credID}))
	assertStatus(t, rr, http.StatusOK)

	if env.agents.Running(agent.ID) {
		t.Error("relay still running after its credential was deleted")
	}
	if _, err := env.store.GetAgent(context.Background(), agent.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetAgent after cascade = %v, want ErrNotFound", err)
	}
}
