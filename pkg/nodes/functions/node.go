// Package functions provides the Yandex Cloud Functions node: invoke a
// function over its HTTPS endpoint or list the functions in a folder.
package functions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/api"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
)

const (
	defaultInvokeBaseURL = "https://functions.yandexcloud.net"
	defaultAPIBaseURL    = "https://serverless-functions.api.cloud.yandex.net/functions/v1"
)

// FunctionsConfig defines the configuration for the Functions node.
type FunctionsConfig struct {
	Operation  string `json:"operation"`
	FunctionID string `json:"functionId"`
	FolderID   string `json:"folderId"`
}

// FunctionsNode invokes Cloud Functions and lists them.
type FunctionsNode struct {
	id     string
	config FunctionsConfig

	tokens        auth.TokenSource
	client        *api.Client
	invokeBaseURL string
	apiBaseURL    string
}

// NewFunctionsNode creates a new Functions node from a raw configuration map.
func NewFunctionsNode(id string, config map[string]any) (*FunctionsNode, error) {
	cfg := FunctionsConfig{Operation: "invoke"}

	if operation, ok := config["operation"].(string); ok && operation != "" {
		cfg.Operation = operation
	}

	if functionID, ok := config["functionId"].(string); ok {
		cfg.FunctionID = functionID
	}

	if folderID, ok := config["folderId"].(string); ok {
		cfg.FolderID = folderID
	}

	switch cfg.Operation {
	case "invoke":
		if cfg.FunctionID == "" {
			return nil, errors.New("missing required field 'functionId'")
		}
	case "list":
		if cfg.FolderID == "" {
			return nil, errors.New("missing required field 'folderId'")
		}
	default:
		return nil, fmt.Errorf("unknown operation: %s", cfg.Operation)
	}

	return &FunctionsNode{
		id:            id,
		config:        cfg,
		invokeBaseURL: defaultInvokeBaseURL,
		apiBaseURL:    defaultAPIBaseURL,
	}, nil
}

func (n *FunctionsNode) ID() string {
	return n.id
}

func (n *FunctionsNode) Type() string {
	return "yandexFunctions"
}

type itemHandler func(ctx context.Context, client *api.Client, token string, item models.Item) (models.Item, error)

// Execute processes the context items through the configured operation.
func (n *FunctionsNode) Execute(ctx context.Context, ectx models.ExecutionContext, logger *slog.Logger) ([]models.Item, error) {
	key, err := auth.ServiceAccountKeyFromCredentials(ectx.Credentials)
	if err != nil {
		return nil, err
	}

	tokens := n.tokens
	if tokens == nil {
		tokens = auth.DefaultTokenSource(logger)
	}

	client := n.client
	if client == nil {
		client = api.NewClient(logger)
	}

	handlers := map[string]itemHandler{
		"invoke": n.invoke,
		"list":   n.list,
	}

	handler := handlers[n.config.Operation]

	token, err := tokens.Token(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain IAM token: %w", err)
	}

	return runner.ProcessItems(ctx, ectx.Items, runner.Options{
		ExecutionID:    ectx.ID,
		NodeID:         n.id,
		NodeType:       n.Type(),
		ContinueOnFail: ectx.ContinueOnFail,
		Logger:         logger,
	}, func(ctx context.Context, item models.Item, _ int) (models.Item, error) {
		return handler(ctx, client, token, item)
	})
}

// invoke posts the item payload to the function's HTTPS endpoint and returns
// the function's response.
func (n *FunctionsNode) invoke(ctx context.Context, client *api.Client, token string, item models.Item) (models.Item, error) {
	endpoint := n.invokeBaseURL + "/" + n.config.FunctionID

	var response any
	if err := client.DoJSON(ctx, "functions.invoke", "POST", endpoint, token, item.JSON, &response); err != nil {
		return models.Item{}, err
	}

	if payload, ok := response.(map[string]any); ok {
		return models.Item{JSON: payload}, nil
	}

	return models.Item{JSON: map[string]any{"result": response}}, nil
}

func (n *FunctionsNode) list(ctx context.Context, client *api.Client, token string, _ models.Item) (models.Item, error) {
	endpoint := n.apiBaseURL + "/functions?folderId=" + url.QueryEscape(n.config.FolderID)

	var response struct {
		Functions []map[string]any `json:"functions"`
	}

	if err := client.DoJSON(ctx, "functions.list", "GET", endpoint, token, nil, &response); err != nil {
		return models.Item{}, err
	}

	return models.Item{JSON: map[string]any{"functions": response.Functions}}, nil
}
