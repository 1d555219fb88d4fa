package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/askdb/askdb/internal/model"
)

func testProjectBody(name string, tested bool) map[string]interface{} {
	return map[string]interface{}{
		"project_name": name,
		"db_credential": map[string]string{
			"db_type": "postgresql",
			"host":    "db.internal",
			"port":    "5432",
			"dbname":  "shop",
			"user":    "reader",
		},
		"selected_tables": map[string][]string{
			"users": {"id", "email"},
		},
		"table_relationships": map[string]map[string]map[string]string{
			"orders": {"user_id": {"references": "users.id"}},
		},
		"connectionTestSuccessful": tested,
	}
}

func TestProjectCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice@example.com")

	rr := env.do(t, "POST", "/api/project", toJSON(t, testProjectBody("shop-analytics", true)))
	assertStatus(t, rr, http.StatusCreated)

	var created model.Project
	decodeJSON(t, rr, &created)
	if created.ConnectionStatus != model.StatusConnected {
		t.Errorf("status = %q, want connected", created.ConnectionStatus)
	}

	// A failed client-side probe is recorded as an error state.
	rr = env.do(t, "POST", "/api/project", toJSON(t, testProjectBody("untested", false)))
	assertStatus(t, rr, http.StatusCreated)
	decodeJSON(t, rr, &created)
	if created.ConnectionStatus != model.StatusError {
		t.Errorf("status = %q, want error", created.ConnectionStatus)
	}

	rr = env.do(t, "GET", "/api/project", nil)
	assertStatus(t, rr, http.StatusOK)

	var list listProjectsResponse
	decodeJSON(t, rr, &list)
	if list.Count != 2 || len(list.Projects) != 2 {
		t.Fatalf("count = %d, projects = %d", list.Count, len(list.Projects))
	}
}

func TestProjectCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice@example.com")

	rr := env.do(t, "POST", "/api/project", toJSON(t, map[string]interface{}{
		"project_name": "no-credential",
	}))
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.do(t, "POST", "/api/project", toJSON(t, map[string]interface{}{
		"project_name":  "bad-type",
		"db_credential": map[string]string{"db_type": "cassandra", "host": "h"},
	}))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestProjectGet(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice@example.com")

	project := &model.Project{
		UserID: alice.ID,
		Name:   "mine",
		DBCredential: model.DBConfig{
			Type: model.DBPostgres, Host: "db", DBName: "shop", User: "reader",
		},
		ConnectionStatus: model.StatusConnected,
		CreatedBy:        alice.Email,
		ModifiedBy:       alice.Email,
	}
	if err := env.store.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	rr := env.do(t, "GET", fmt.Sprintf("/api/project/%d", project.ID), nil)
	assertStatus(t, rr, http.StatusOK)

	var got model.Project
	decodeJSON(t, rr, &got)
	if got.Name != "mine" || got.DBCredential.Host != "db" {
		t.Errorf("got = %+v", got)
	}

	rr = env.do(t, "GET", "/api/project/424242", nil)
	assertStatus(t, rr, http.StatusNotFound)

	// Another user's project reads as absent.
	env.seedUser(t, "bob@example.com")
	rr = env.do(t, "GET", fmt.Sprintf("/api/project/%d", project.ID), nil)
	assertStatus(t, rr, http.StatusNotFound)
}
