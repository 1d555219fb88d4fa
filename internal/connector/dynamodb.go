package connector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/askdb/askdb/internal/model"
)

// dynamoConnector probes DynamoDB with a one-table ListTables call.
// Liveness only.
type dynamoConnector struct{}

func (c *dynamoConnector) Test(ctx context.Context, cfg model.DBConfig) error {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("dynamodb config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	if _, err := client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)}); err != nil {
		return fmt.Errorf("dynamodb list tables: %w", err)
	}
	return nil
}

func (c *dynamoConnector) Schema(ctx context.Context, cfg model.DBConfig) (*model.Schema, error) {
	return nil, ErrSchemaUnsupported
}

func (c *dynamoConnector) Execute(ctx context.Context, cfg model.DBConfig, query string) (*model.QueryResult, error) {
	return nil, ErrExecUnsupported
}
