package compute

import (
	"context"

	"github.com/flowhost/yandexcloud-nodes/pkg/protocol"
)

// ComputeNodeFactory creates ComputeNode instances.
type ComputeNodeFactory struct{}

func NewComputeNodeFactory() protocol.NodeFactory {
	return &ComputeNodeFactory{}
}

func (f *ComputeNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewComputeNode(id, config)
}

func (f *ComputeNodeFactory) ID() string {
	return "yandexCompute"
}

func (f *ComputeNodeFactory) Name() string {
	return "Yandex Compute Cloud"
}

func (f *ComputeNodeFactory) Description() string {
	return "Lists, inspects, starts, and stops compute instances"
}

func (f *ComputeNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Operation to perform",
				"default":     "list",
				"enum":        []string{"list", "get", "start", "stop"},
			},
			"folderId": map[string]any{
				"type":        "string",
				"description": "Folder ID to list instances from. Required for the list operation",
			},
			"instanceId": map[string]any{
				"type":        "string",
				"description": "Instance ID. Required for get, start, and stop",
			},
		},
		"required": []string{"operation"},
	}
}
