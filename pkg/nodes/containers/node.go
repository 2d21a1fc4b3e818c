// Package containers provides the Yandex Serverless Containers node: invoke
// a container over its HTTPS endpoint or list the containers in a folder.
package containers

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

const defaultAPIBaseURL = "https://serverless-containers.api.cloud.yandex.net/containers/v1"

// ContainersConfig defines the configuration for the Containers node.
type ContainersConfig struct {
	Operation    string `json:"operation"`
	ContainerURL string `json:"containerUrl"`
	FolderID     string `json:"folderId"`
}

// ContainersNode invokes serverless containers and lists them.
type ContainersNode struct {
	id     string
	config ContainersConfig

	tokens     auth.TokenSource
	client     *api.Client
	apiBaseURL string
}

func NewContainersNode(id string, config map[string]any) (*ContainersNode, error) {
	cfg := ContainersConfig{Operation: "invoke"}

	if operation, ok := config["operation"].(string); ok && operation != "" {
		cfg.Operation = operation
	}

	if containerURL, ok := config["containerUrl"].(string); ok {
		cfg.ContainerURL = containerURL
	}

	if folderID, ok := config["folderId"].(string); ok {
		cfg.FolderID = folderID
	}

	switch cfg.Operation {
	case "invoke":
		if cfg.ContainerURL == "" {
			return nil, errors.New("missing required field 'containerUrl'")
		}
	case "list":
		if cfg.FolderID == "" {
			return nil, errors.New("missing required field 'folderId'")
		}
	default:
		return nil, fmt.Errorf("unknown operation: %s", cfg.Operation)
	}

	return &ContainersNode{
		id:         id,
		config:     cfg,
		apiBaseURL: defaultAPIBaseURL,
	}, nil
}

func (n *ContainersNode) ID() string {
	return n.id
}

func (n *ContainersNode) Type() string {
	return "yandexContainers"
}

type itemHandler func(ctx context.Context, client *api.Client, token string, item models.Item) (models.Item, error)

func (n *ContainersNode) Execute(ctx context.Context, ectx models.ExecutionContext, logger *slog.Logger) ([]models.Item, error) {
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

func (n *ContainersNode) invoke(ctx context.Context, client *api.Client, token string, item models.Item) (models.Item, error) {
	var response any
	if err := client.DoJSON(ctx, "containers.invoke", "POST", n.config.ContainerURL, token, item.JSON, &response); err != nil {
		return models.Item{}, err
	}

	if payload, ok := response.(map[string]any); ok {
		return models.Item{JSON: payload}, nil
	}

	return models.Item{JSON: map[string]any{"result": response}}, nil
}

func (n *ContainersNode) list(ctx context.Context, client *api.Client, token string, _ models.Item) (models.Item, error) {
	endpoint := n.apiBaseURL + "/containers?folderId=" + url.QueryEscape(n.config.FolderID)

	var response struct {
		Containers []map[string]any `json:"containers"`
	}

	if err := client.DoJSON(ctx, "containers.list", "GET", endpoint, token, nil, &response); err != nil {
		return models.Item{}, err
	}

	return models.Item{JSON: map[string]any{"containers": response.Containers}}, nil
}
