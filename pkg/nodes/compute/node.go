// Package compute provides the Yandex Compute Cloud node: list, inspect,
// start, and stop instances.
package compute

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

const defaultAPIBaseURL = "https://compute.api.cloud.yandex.net/compute/v1"

// ComputeConfig defines the configuration for the Compute node.
type ComputeConfig struct {
	Operation  string `json:"operation"`
	FolderID   string `json:"folderId"`
	InstanceID string `json:"instanceId"`
}

// ComputeNode manages compute instances.
type ComputeNode struct {
	id     string
	config ComputeConfig

	tokens     auth.TokenSource
	client     *api.Client
	apiBaseURL string
}

func NewComputeNode(id string, config map[string]any) (*ComputeNode, error) {
	cfg := ComputeConfig{Operation: "list"}

	if operation, ok := config["operation"].(string); ok && operation != "" {
		cfg.Operation = operation
	}

	if folderID, ok := config["folderId"].(string); ok {
		cfg.FolderID = folderID
	}

	if instanceID, ok := config["instanceId"].(string); ok {
		cfg.InstanceID = instanceID
	}

	switch cfg.Operation {
	case "list":
		if cfg.FolderID == "" {
			return nil, errors.New("missing required field 'folderId'")
		}
	case "get", "start", "stop":
		if cfg.InstanceID == "" {
			return nil, errors.New("missing required field 'instanceId'")
		}
	default:
		return nil, fmt.Errorf("unknown operation: %s", cfg.Operation)
	}

	return &ComputeNode{
		id:         id,
		config:     cfg,
		apiBaseURL: defaultAPIBaseURL,
	}, nil
}

func (n *ComputeNode) ID() string {
	return n.id
}

func (n *ComputeNode) Type() string {
	return "yandexCompute"
}

type itemHandler func(ctx context.Context, client *api.Client, token string) (models.Item, error)

func (n *ComputeNode) Execute(ctx context.Context, ectx models.ExecutionContext, logger *slog.Logger) ([]models.Item, error) {
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
		"list":  n.list,
		"get":   n.get,
		"start": n.start,
		"stop":  n.stop,
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
	}, func(ctx context.Context, _ models.Item, _ int) (models.Item, error) {
		return handler(ctx, client, token)
	})
}

func (n *ComputeNode) list(ctx context.Context, client *api.Client, token string) (models.Item, error) {
	endpoint := n.apiBaseURL + "/instances?folderId=" + url.QueryEscape(n.config.FolderID)

	var response struct {
		Instances []map[string]any `json:"instances"`
	}

	if err := client.DoJSON(ctx, "compute.list", "GET", endpoint, token, nil, &response); err != nil {
		return models.Item{}, err
	}

	return models.Item{JSON: map[string]any{"instances": response.Instances}}, nil
}

func (n *ComputeNode) get(ctx context.Context, client *api.Client, token string) (models.Item, error) {
	endpoint := n.apiBaseURL + "/instances/" + url.PathEscape(n.config.InstanceID)

	var instance map[string]any
	if err := client.DoJSON(ctx, "compute.get", "GET", endpoint, token, nil, &instance); err != nil {
		return models.Item{}, err
	}

	return models.Item{JSON: instance}, nil
}

// start and stop return the long-running operation descriptor the API hands
// back; the caller decides whether to wait on it.
func (n *ComputeNode) start(ctx context.Context, client *api.Client, token string) (models.Item, error) {
	return n.instanceAction(ctx, client, token, "compute.start", "start")
}

func (n *ComputeNode) stop(ctx context.Context, client *api.Client, token string) (models.Item, error) {
	return n.instanceAction(ctx, client, token, "compute.stop", "stop")
}

func (n *ComputeNode) instanceAction(ctx context.Context, client *api.Client, token, op, action string) (models.Item, error) {
	endpoint := n.apiBaseURL + "/instances/" + url.PathEscape(n.config.InstanceID) + ":" + action

	var operation map[string]any
	if err := client.DoJSON(ctx, op, "POST", endpoint, token, nil, &operation); err != nil {
		return models.Item{}, err
	}

	return models.Item{JSON: operation}, nil
}
