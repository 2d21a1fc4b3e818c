// Package gpt provides the YandexGPT node: text completion through the
// foundation-models endpoint.
package gpt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/api"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
)

const defaultCompletionURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

// GPTConfig defines the configuration for the GPT node. When Prompt is empty
// the prompt is read from the item's "prompt" field.
type GPTConfig struct {
	FolderID     string  `json:"folderId"`
	Model        string  `json:"model"`
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"systemPrompt"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"maxTokens"`
}

// GPTNode requests completions from a YandexGPT model.
type GPTNode struct {
	id     string
	config GPTConfig

	tokens        auth.TokenSource
	client        *api.Client
	completionURL string
}

func NewGPTNode(id string, config map[string]any) (*GPTNode, error) {
	cfg := GPTConfig{
		Model:       "yandexgpt-lite",
		Temperature: 0.6,
		MaxTokens:   2000,
	}

	if folderID, ok := config["folderId"].(string); ok {
		cfg.FolderID = folderID
	}

	if model, ok := config["model"].(string); ok && model != "" {
		cfg.Model = model
	}

	if prompt, ok := config["prompt"].(string); ok {
		cfg.Prompt = prompt
	}

	if system, ok := config["systemPrompt"].(string); ok {
		cfg.SystemPrompt = system
	}

	if temperature, ok := config["temperature"].(float64); ok {
		cfg.Temperature = temperature
	}

	if maxTokens, ok := config["maxTokens"].(float64); ok {
		cfg.MaxTokens = int(maxTokens)
	}

	if cfg.FolderID == "" {
		return nil, errors.New("missing required field 'folderId'")
	}

	if cfg.Temperature < 0 || cfg.Temperature > 1 {
		return nil, errors.New("temperature must be between 0 and 1")
	}

	return &GPTNode{
		id:            id,
		config:        cfg,
		completionURL: defaultCompletionURL,
	}, nil
}

func (n *GPTNode) ID() string {
	return n.id
}

func (n *GPTNode) Type() string {
	return "yandexGPT"
}

func (n *GPTNode) Execute(ctx context.Context, ectx models.ExecutionContext, logger *slog.Logger) ([]models.Item, error) {
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
		return n.complete(ctx, client, token, item)
	})
}

func (n *GPTNode) complete(ctx context.Context, client *api.Client, token string, item models.Item) (models.Item, error) {
	prompt := n.config.Prompt
	if prompt == "" {
		prompt, _ = item.JSON["prompt"].(string)
	}

	if prompt == "" {
		return models.Item{}, runner.NewValidationError("no prompt to complete: set 'prompt' in the node configuration or in the item")
	}

	messages := make([]map[string]string, 0, 2)
	if n.config.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "text": n.config.SystemPrompt})
	}

	messages = append(messages, map[string]string{"role": "user", "text": prompt})

	request := map[string]any{
		"modelUri": fmt.Sprintf("gpt://%s/%s", n.config.FolderID, n.config.Model),
		"completionOptions": map[string]any{
			"stream":      false,
			"temperature": n.config.Temperature,
			"maxTokens":   n.config.MaxTokens,
		},
		"messages": messages,
	}

	var response struct {
		Result struct {
			Alternatives []struct {
				Message struct {
					Role string `json:"role"`
					Text string `json:"text"`
				} `json:"message"`
				Status string `json:"status"`
			} `json:"alternatives"`
			Usage        map[string]any `json:"usage"`
			ModelVersion string         `json:"modelVersion"`
		} `json:"result"`
	}

	if err := client.DoJSON(ctx, "gpt.completion", "POST", n.completionURL, token, request, &response); err != nil {
		return models.Item{}, err
	}

	if len(response.Result.Alternatives) == 0 {
		return models.Item{}, fmt.Errorf("gpt.completion: response contained no alternatives")
	}

	return models.Item{JSON: map[string]any{
		"text":         response.Result.Alternatives[0].Message.Text,
		"usage":        response.Result.Usage,
		"modelVersion": response.Result.ModelVersion,
	}}, nil
}
