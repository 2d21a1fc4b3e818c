package gpt

import (
	"context"

	"github.com/flowhost/yandexcloud-nodes/pkg/protocol"
)

// GPTNodeFactory creates GPTNode instances.
type GPTNodeFactory struct{}

func NewGPTNodeFactory() protocol.NodeFactory {
	return &GPTNodeFactory{}
}

func (f *GPTNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewGPTNode(id, config)
}

func (f *GPTNodeFactory) ID() string {
	return "yandexGPT"
}

func (f *GPTNodeFactory) Name() string {
	return "YandexGPT"
}

func (f *GPTNodeFactory) Description() string {
	return "Requests a text completion from a YandexGPT foundation model"
}

func (f *GPTNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"folderId": map[string]any{
				"type":        "string",
				"description": "Folder ID the model URI is scoped to",
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Model name",
				"default":     "yandexgpt-lite",
				"examples":    []string{"yandexgpt", "yandexgpt-lite"},
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "User prompt. When empty the item's 'prompt' field is used",
			},
			"systemPrompt": map[string]any{
				"type":        "string",
				"description": "Optional system message prepended to the conversation",
			},
			"temperature": map[string]any{
				"type":        "number",
				"description": "Sampling temperature",
				"default":     0.6,
				"minimum":     0,
				"maximum":     1,
			},
			"maxTokens": map[string]any{
				"type":        "number",
				"description": "Completion token budget",
				"default":     2000,
				"minimum":     1,
			},
		},
		"required": []string{"folderId"},
	}
}
