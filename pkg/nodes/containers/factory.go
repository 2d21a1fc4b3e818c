package containers

import (
	"context"

	"github.com/flowhost/yandexcloud-nodes/pkg/protocol"
)

// ContainersNodeFactory creates ContainersNode instances.
type ContainersNodeFactory struct{}

func NewContainersNodeFactory() protocol.NodeFactory {
	return &ContainersNodeFactory{}
}

func (f *ContainersNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewContainersNode(id, config)
}

func (f *ContainersNodeFactory) ID() string {
	return "yandexContainers"
}

func (f *ContainersNodeFactory) Name() string {
	return "Yandex Serverless Containers"
}

func (f *ContainersNodeFactory) Description() string {
	return "Invokes a serverless container over its HTTPS endpoint or lists the containers in a folder"
}

func (f *ContainersNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Operation to perform",
				"default":     "invoke",
				"enum":        []string{"invoke", "list"},
			},
			"containerUrl": map[string]any{
				"type":        "string",
				"description": "Container invoke URL. Required for the invoke operation",
				"examples":    []string{"https://bba3fva6ka5g********.containers.yandexcloud.net"},
			},
			"folderId": map[string]any{
				"type":        "string",
				"description": "Folder ID to list containers from. Required for the list operation",
			},
		},
		"required": []string{"operation"},
	}
}
