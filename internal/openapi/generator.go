// Package openapi generates the OpenAPI 3.1 document describing the HTTP API.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the OpenAPI document for the full REST surface. baseURL is
// the externally visible server URL.
func Generate(baseURL string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "AskDB API",
			Description: "Natural-language querying over user-registered databases, with provider key management, notification credentials, and Telegram agents.",
			Version:     "1.0.0",
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["cookieAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "cookie",
			Name: "askdb_session",
		},
	}
	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	doc.Security = openapi3.SecurityRequirements{
		{"cookieAuth": {}},
		{"bearerAuth": {}},
	}

	registerSchemas(doc)

	doc.Paths = openapi3.NewPaths()
	addAuthPaths(doc)
	addAPIKeyPaths(doc)
	addCredentialPaths(doc)
	addProjectPaths(doc)
	addAgentPaths(doc)
	addQueryPaths(doc)
	addProbePaths(doc)

	return doc
}

func registerSchemas(doc *openapi3.T) {
	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
							"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
						},
					},
				},
			},
		},
	}

	doc.Components.Schemas["DBConfig"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:        &openapi3.Types{"object"},
			Description: "Connection parameters for an external database, keyed by db_type.",
			Properties: openapi3.Schemas{
				"db_type":  stringProp("Database type tag, e.g. postgresql, mysql, mongodb."),
				"host":     stringProp(""),
				"port":     stringProp(""),
				"dbname":   stringProp(""),
				"user":     stringProp(""),
				"password": stringProp(""),
				"sslmode":  stringProp("postgres family only"),
			},
			Required: []string{"db_type"},
		},
	}

	doc.Components.Schemas["Project"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":                  stringProp("Decimal string ID."),
				"project_name":        stringProp(""),
				"db_credential":       openapi3.NewSchemaRef("#/components/schemas/DBConfig", nil),
				"selected_tables":     objectProp("Table name to selected column names."),
				"table_relationships": objectProp("Table to column to referenced table.column."),
				"connectionStatus":    stringProp("connected, disconnected, error, or checking."),
			},
		},
	}

	doc.Components.Schemas["Agent"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":            stringProp("Decimal string ID."),
				"agent_name":    stringProp(""),
				"project_id":    stringProp(""),
				"credential_id": stringProp(""),
				"is_active":     &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
				"project":       openapi3.NewSchemaRef("#/components/schemas/Project", nil),
				"credential":    objectProp("Hydrated notification credential."),
			},
		},
	}

	doc.Components.Schemas["QueryResult"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"fields": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:  &openapi3.Types{"array"},
						Items: &openapi3.SchemaRef{Value: openapi3.NewStringSchema()},
					},
				},
				"rows": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:  &openapi3.Types{"array"},
						Items: objectProp(""),
					},
				},
			},
		},
	}
}

func addAuthPaths(doc *openapi3.T) {
	signupReq := objectSchema(map[string]*openapi3.SchemaRef{
		"email":    stringProp(""),
		"password": stringProp("At least 8 characters."),
		"fname":    stringProp(""),
		"lname":    stringProp(""),
	})
	doc.Paths.Set("/api/auth/signup", &openapi3.PathItem{
		Post: operation("auth", "Sign up", "signup", jsonBody(signupReq, true),
			newResponses("201", "Account created, verification mail sent", objectProp(""))),
	})

	tokenParam := openapi3.NewQueryParameter("token").
		WithDescription("Verification token from the signup mail.").
		WithSchema(openapi3.NewStringSchema())
	verifyOp := operation("auth", "Verify email address", "verify_email", nil,
		newResponses("200", "Account activated", objectProp("")))
	verifyOp.Parameters = openapi3.Parameters{&openapi3.ParameterRef{Value: tokenParam}}
	doc.Paths.Set("/api/auth/verify-email", &openapi3.PathItem{Get: verifyOp})

	loginReq := objectSchema(map[string]*openapi3.SchemaRef{
		"email":    stringProp(""),
		"password": stringProp(""),
	})
	doc.Paths.Set("/api/auth/login", &openapi3.PathItem{
		Post: operation("auth", "Sign in", "login", jsonBody(loginReq, true),
			newResponses("200", "Session established, cookie set", objectProp(""))),
	})

	doc.Paths.Set("/api/auth/logout", &openapi3.PathItem{
		Post: operation("auth", "Sign out", "logout", nil,
			newResponses("200", "Session revoked, cookie cleared", objectProp(""))),
	})

	doc.Paths.Set("/api/auth/google", &openapi3.PathItem{
		Get: operation("auth", "Start Google OAuth sign-in", "google_redirect", nil,
			newResponses("307", "Redirect to Google", objectProp(""))),
	})
	doc.Paths.Set("/api/auth/google/callback", &openapi3.PathItem{
		Get: operation("auth", "Finish Google OAuth sign-in", "google_callback", nil,
			newResponses("307", "Redirect to the application", objectProp(""))),
	})
}

func addAPIKeyPaths(doc *openapi3.T) {
	createReq := objectSchema(map[string]*openapi3.SchemaRef{
		"provider": stringProp("Provider tag, e.g. openai."),
		"apiKey":   stringProp("Key material, stored encrypted."),
	})
	doc.Paths.Set("/api/apikeys", &openapi3.PathItem{
		Get: operation("apikeys", "List stored provider keys", "list_api_keys", nil,
			newResponses("200", "Keys without their material", arrayProp(objectProp("")))),
		Post: operation("apikeys", "Store a provider key", "create_api_key", jsonBody(createReq, true),
			newResponses("201", "Key stored", objectProp(""))),
		Delete: operation("apikeys", "Delete a provider key", "delete_api_key", jsonBody(idBody(), true),
			newResponses("200", "Key deleted", objectProp(""))),
	})
}

func addCredentialPaths(doc *openapi3.T) {
	createReq := objectSchema(map[string]*openapi3.SchemaRef{
		"credentials": objectProp("Either botToken/chatId or email/password."),
	})
	doc.Paths.Set("/api/credentials", &openapi3.PathItem{
		Get: operation("credentials", "List notification credentials", "list_credentials", nil,
			newResponses("200", "Stored credentials", arrayProp(objectProp("")))),
		Post: operation("credentials", "Store a notification credential", "create_credential", jsonBody(createReq, true),
			newResponses("201", "Credential stored", objectProp(""))),
		Delete: operation("credentials", "Delete a notification credential", "delete_credential", jsonBody(idBody(), true),
			newResponses("200", "Credential deleted", objectProp(""))),
	})
}

func addProjectPaths(doc *openapi3.T) {
	projectRef := openapi3.NewSchemaRef("#/components/schemas/Project", nil)

	createReq := objectSchema(map[string]*openapi3.SchemaRef{
		"project_name":             stringProp(""),
		"db_credential":            openapi3.NewSchemaRef("#/components/schemas/DBConfig", nil),
		"selected_tables":          objectProp(""),
		"table_relationships":      objectProp(""),
		"connectionTestSuccessful": {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
	})
	listResp := objectSchema(map[string]*openapi3.SchemaRef{
		"count":    {Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}},
		"projects": arrayProp(projectRef),
	})

	doc.Paths.Set("/api/project", &openapi3.PathItem{
		Get: operation("project", "List projects", "list_projects", nil,
			newResponses("200", "Projects, newest first", listResp)),
		Post: operation("project", "Register a project", "create_project", jsonBody(createReq, true),
			newResponses("201", "Project created", projectRef)),
	})

	idParam := openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())
	getOp := operation("project", "Fetch one project", "get_project", nil,
		newResponses("200", "The project", projectRef))
	getOp.Parameters = openapi3.Parameters{&openapi3.ParameterRef{Value: idParam}}
	doc.Paths.Set("/api/project/{id}", &openapi3.PathItem{Get: getOp})
}

func addAgentPaths(doc *openapi3.T) {
	agentRef := openapi3.NewSchemaRef("#/components/schemas/Agent", nil)

	createReq := objectSchema(map[string]*openapi3.SchemaRef{
		"agent_name":    stringProp(""),
		"project_id":    stringProp(""),
		"credential_id": stringProp(""),
	})
	toggleReq := objectSchema(map[string]*openapi3.SchemaRef{
		"id":        stringProp(""),
		"is_active": {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
	})

	doc.Paths.Set("/api/agent", &openapi3.PathItem{
		Get: operation("agent", "List agents", "list_agents", nil,
			newResponses("200", "Agents with project and credential hydrated", arrayProp(agentRef))),
		Post: operation("agent", "Create an agent", "create_agent", jsonBody(createReq, true),
			newResponses("201", "Agent created, inactive", agentRef)),
		Put: operation("agent", "Toggle an agent", "toggle_agent", jsonBody(toggleReq, true),
			newResponses("200", "Agent state updated; relay started or stopped", agentRef)),
		Delete: operation("agent", "Delete an agent", "delete_agent", jsonBody(idBody(), true),
			newResponses("200", "Agent deleted, relay stopped", objectProp(""))),
	})
}

func addQueryPaths(doc *openapi3.T) {
	dbConnReq := objectSchema(map[string]*openapi3.SchemaRef{
		"db_type":   stringProp(""),
		"db_config": openapi3.NewSchemaRef("#/components/schemas/DBConfig", nil),
	})
	doc.Paths.Set("/api/db-connection/test-connection", &openapi3.PathItem{
		Post: operation("db-connection", "Probe an external database", "test_connection", jsonBody(dbConnReq, true),
			newResponses("200", "Probe outcome", objectSchema(map[string]*openapi3.SchemaRef{
				"success": {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
				"message": stringProp(""),
			}))),
	})
	doc.Paths.Set("/api/db-connection/get-schema", &openapi3.PathItem{
		Post: operation("db-connection", "Introspect an external database", "get_schema", jsonBody(dbConnReq, true),
			newResponses("200", "Base tables, columns, and foreign keys", objectProp(""))),
	})

	generateReq := objectSchema(map[string]*openapi3.SchemaRef{
		"userInput": stringProp("Natural-language request."),
		"dbSchema":  objectProp("tables and relationships projection."),
	})
	doc.Paths.Set("/api/generate-query", &openapi3.PathItem{
		Post: operation("query", "Generate SQL from natural language", "generate_query", jsonBody(generateReq, true),
			newResponses("200", "The generated SQL", objectSchema(map[string]*openapi3.SchemaRef{
				"query": stringProp(""),
			}))),
	})

	executeReq := objectSchema(map[string]*openapi3.SchemaRef{
		"query":    stringProp("SQL to run."),
		"dbConfig": openapi3.NewSchemaRef("#/components/schemas/DBConfig", nil),
	})
	doc.Paths.Set("/api/execute-query", &openapi3.PathItem{
		Post: operation("query", "Execute SQL against a database", "execute_query", jsonBody(executeReq, true),
			newResponses("200", "The result set", openapi3.NewSchemaRef("#/components/schemas/QueryResult", nil))),
	})
}

func addProbePaths(doc *openapi3.T) {
	statusResp := objectSchema(map[string]*openapi3.SchemaRef{
		"status": stringProp(""),
	})
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: operation("system", "Liveness probe", "healthz", nil,
			newResponses("200", "Process is running", statusResp)),
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: operation("system", "Readiness probe", "readyz", nil,
			newResponses("200", "Store is reachable", statusResp)),
	})
}

// ─── Builders ───────────────────────────────────────────────────────────────

func operation(tag, summary, operationID string, body *openapi3.RequestBodyRef, responses *openapi3.Responses) *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     summary,
		OperationID: operationID,
		RequestBody: body,
		Responses:   responses,
	}
}

func jsonBody(schema *openapi3.SchemaRef, required bool) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: required,
			Content:  openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)

	badReqDesc := "Bad request"
	responses.Set("400", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &badReqDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
		},
	})

	unauthDesc := "Unauthorized"
	responses.Set("401", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &unauthDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
		},
	})

	return responses
}

func stringProp(description string) *openapi3.SchemaRef {
	s := openapi3.NewStringSchema()
	s.Description = description
	return &openapi3.SchemaRef{Value: s}
}

func objectProp(description string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:        &openapi3.Types{"object"},
			Description: description,
		},
	}
}

func objectSchema(props map[string]*openapi3.SchemaRef) *openapi3.SchemaRef {
	schemas := openapi3.Schemas{}
	for k, v := range props {
		schemas[k] = v
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: schemas,
		},
	}
}

func arrayProp(items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: items,
		},
	}
}

func idBody() *openapi3.SchemaRef {
	return objectSchema(map[string]*openapi3.SchemaRef{
		"id": stringProp("Decimal string ID."),
	})
}
