package functions

import (
	"context"

	"github.com/flowhost/yandexcloud-nodes/pkg/protocol"
)

// FunctionsNodeFactory creates FunctionsNode instances.
type FunctionsNodeFactory struct{}

func NewFunctionsNodeFactory() protocol.NodeFactory {
	return &FunctionsNodeFactory{}
}

func (f *FunctionsNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewFunctionsNode(id, config)
}

func (f *FunctionsNodeFactory) ID() string {
	return "yandexFunctions"
}

func (f *FunctionsNodeFactory) Name() string {
	return "Yandex Cloud Functions"
}

func (f *FunctionsNodeFactory) Description() string {
	return "Invokes a Cloud Function over its HTTPS endpoint or lists the functions in a folder"
}

func (f *FunctionsNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Operation to perform",
				"default":     "invoke",
				"enum":        []string{"invoke", "list"},
			},
			"functionId": map[string]any{
				"type":        "string",
				"description": "Function ID to invoke. Required for the invoke operation",
				"examples":    []string{"d4e155orh3nuqd76nnel"},
			},
			"folderId": map[string]any{
				"type":        "string",
				"description": "Folder ID to list functions from. Required for the list operation",
			},
		},
		"required": []string{"operation"},
	}
}
