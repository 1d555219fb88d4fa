package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/askdb/askdb/internal/model"
)

// firestoreConnector probes Firestore databases using a service account key.
// Liveness only.
type firestoreConnector struct{}

func (c *firestoreConnector) Test(ctx context.Context, cfg model.DBConfig) error {
	projectID := cfg.ProjectID
	if projectID == "" {
		// The service account key JSON carries the project id.
		var key struct {
			ProjectID string `json:"project_id"`
		}
		if err := json.Unmarshal([]byte(cfg.ServiceAccountKey), &key); err != nil {
			return fmt.Errorf("parse service account key: %w", err)
		}
		projectID = key.ProjectID
	}
	if projectID == "" {
		return fmt.Errorf("firestore project id missing from config and service account key")
	}

	client, err := firestore.NewClient(ctx, projectID,
		option.WithCredentialsJSON([]byte(cfg.ServiceAccountKey)))
	if err != nil {
		return fmt.Errorf("firestore connect: %w", err)
	}
	defer client.Close()

	// Listing the first collection proves both auth and reachability. An
	// empty database is still a live one.
	if _, err := client.Collections(ctx).Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("firestore list collections: %w", err)
	}
	return nil
}

func (c *firestoreConnector) Schema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error) {
	return nil, ErrSchemaUnsupported
}

func (c *firestoreConnector) Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error) {
	return nil, ErrExecUnsupported
}
