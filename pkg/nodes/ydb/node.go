// Package ydb provides the YDB serverless node. It speaks the
// DynamoDB-compatible Document API with a static access key, so the
// operations mirror the document model: get, put, delete, scan.
package ydb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
)

const defaultRegion = "ru-central1"

// YDBConfig defines the configuration for the YDB node. Endpoint is the
// Document API endpoint of the database.
type YDBConfig struct {
	Operation string         `json:"operation"`
	Endpoint  string         `json:"endpoint"`
	TableName string         `json:"tableName"`
	Key       map[string]any `json:"key"`
}

// YDBNode reads and writes documents in a serverless YDB table.
type YDBNode struct {
	id     string
	config YDBConfig

	client dynamodbiface.DynamoDBAPI
}

func NewYDBNode(id string, config map[string]any) (*YDBNode, error) {
	cfg := YDBConfig{Operation: "getItem"}

	if operation, ok := config["operation"].(string); ok && operation != "" {
		cfg.Operation = operation
	}

	if endpoint, ok := config["endpoint"].(string); ok {
		cfg.Endpoint = endpoint
	}

	if tableName, ok := config["tableName"].(string); ok {
		cfg.TableName = tableName
	}

	if key, ok := config["key"].(map[string]any); ok {
		cfg.Key = key
	}

	if cfg.Endpoint == "" {
		return nil, errors.New("missing required field 'endpoint'")
	}

	if cfg.TableName == "" {
		return nil, errors.New("missing required field 'tableName'")
	}

	switch cfg.Operation {
	case "getItem", "deleteItem":
		if len(cfg.Key) == 0 {
			return nil, errors.New("missing required field 'key'")
		}
	case "putItem", "scan":
	default:
		return nil, fmt.Errorf("unknown operation: %s", cfg.Operation)
	}

	return &YDBNode{id: id, config: cfg}, nil
}

func (n *YDBNode) ID() string {
	return n.id
}

func (n *YDBNode) Type() string {
	return "yandexYDB"
}

type itemHandler func(ctx context.Context, client dynamodbiface.DynamoDBAPI, item models.Item) (models.Item, error)

func (n *YDBNode) Execute(ctx context.Context, ectx models.ExecutionContext, logger *slog.Logger) ([]models.Item, error) {
	key, err := auth.StaticKeyFromCredentials(ectx.Credentials)
	if err != nil {
		return nil, err
	}

	client := n.client
	if client == nil {
		client, err = newDocumentClient(n.config.Endpoint, key)
		if err != nil {
			return nil, err
		}
	}

	handlers := map[string]itemHandler{
		"getItem":    n.getItem,
		"putItem":    n.putItem,
		"deleteItem": n.deleteItem,
		"scan":       n.scan,
	}

	handler := handlers[n.config.Operation]

	return runner.ProcessItems(ctx, ectx.Items, runner.Options{
		ExecutionID:    ectx.ID,
		NodeID:         n.id,
		NodeType:       n.Type(),
		ContinueOnFail: ectx.ContinueOnFail,
		Logger:         logger,
	}, func(ctx context.Context, item models.Item, _ int) (models.Item, error) {
		return handler(ctx, client, item)
	})
}

func newDocumentClient(endpoint string, key *auth.StaticKey) (dynamodbiface.DynamoDBAPI, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(defaultRegion),
		Endpoint:    aws.String(endpoint),
		Credentials: credentials.NewStaticCredentials(key.AccessKeyID, key.SecretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Document API session: %w", err)
	}

	return dynamodb.New(sess), nil
}

func (n *YDBNode) documentKey() (map[string]*dynamodb.AttributeValue, error) {
	marshaled, err := dynamodbattribute.MarshalMap(n.config.Key)
	if err != nil {
		return nil, fmt.Errorf("ydb: failed to encode document key: %w", err)
	}

	return marshaled, nil
}

func (n *YDBNode) getItem(ctx context.Context, client dynamodbiface.DynamoDBAPI, _ models.Item) (models.Item, error) {
	documentKey, err := n.documentKey()
	if err != nil {
		return models.Item{}, err
	}

	output, err := client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(n.config.TableName),
		Key:       documentKey,
	})
	if err != nil {
		return models.Item{}, fmt.Errorf("ydb.getItem: %w", err)
	}

	if len(output.Item) == 0 {
		return models.Item{JSON: map[string]any{"found": false}}, nil
	}

	document := map[string]any{}
	if err := dynamodbattribute.UnmarshalMap(output.Item, &document); err != nil {
		return models.Item{}, fmt.Errorf("ydb.getItem: failed to decode document: %w", err)
	}

	return models.Item{JSON: map[string]any{"found": true, "item": document}}, nil
}

// putItem writes the item's JSON payload as the document.
func (n *YDBNode) putItem(ctx context.Context, client dynamodbiface.DynamoDBAPI, item models.Item) (models.Item, error) {
	if len(item.JSON) == 0 {
		return models.Item{}, runner.NewValidationError("item has no fields to write")
	}

	document, err := dynamodbattribute.MarshalMap(item.JSON)
	if err != nil {
		return models.Item{}, fmt.Errorf("ydb.putItem: failed to encode document: %w", err)
	}

	_, err = client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(n.config.TableName),
		Item:      document,
	})
	if err != nil {
		return models.Item{}, fmt.Errorf("ydb.putItem: %w", err)
	}

	return models.Item{JSON: map[string]any{"written": true, "tableName": n.config.TableName}}, nil
}

func (n *YDBNode) deleteItem(ctx context.Context, client dynamodbiface.DynamoDBAPI, _ models.Item) (models.Item, error) {
	documentKey, err := n.documentKey()
	if err != nil {
		return models.Item{}, err
	}

	_, err = client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(n.config.TableName),
		Key:       documentKey,
	})
	if err != nil {
		return models.Item{}, fmt.Errorf("ydb.deleteItem: %w", err)
	}

	return models.Item{JSON: map[string]any{"deleted": true, "tableName": n.config.TableName}}, nil
}

func (n *YDBNode) scan(ctx context.Context, client dynamodbiface.DynamoDBAPI, _ models.Item) (models.Item, error) {
	output, err := client.ScanWithContext(ctx, &dynamodb.ScanInput{
		TableName: aws.String(n.config.TableName),
	})
	if err != nil {
		return models.Item{}, fmt.Errorf("ydb.scan: %w", err)
	}

	documents := make([]map[string]any, 0, len(output.Items))

	for _, raw := range output.Items {
		document := map[string]any{}
		if err := dynamodbattribute.UnmarshalMap(raw, &document); err != nil {
			return models.Item{}, fmt.Errorf("ydb.scan: failed to decode document: %w", err)
		}

		documents = append(documents, document)
	}

	return models.Item{JSON: map[string]any{"items": documents, "count": len(documents)}}, nil
}
