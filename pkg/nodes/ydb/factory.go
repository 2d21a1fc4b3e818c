package ydb

import (
	"context"

	"github.com/flowhost/yandexcloud-nodes/pkg/protocol"
)

// YDBNodeFactory creates YDBNode instances.
type YDBNodeFactory struct{}

func NewYDBNodeFactory() protocol.NodeFactory {
	return &YDBNodeFactory{}
}

func (f *YDBNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewYDBNode(id, config)
}

func (f *YDBNodeFactory) ID() string {
	return "yandexYDB"
}

func (f *YDBNodeFactory) Name() string {
	return "Yandex Database"
}

func (f *YDBNodeFactory) Description() string {
	return "Reads and writes documents in a serverless YDB table through the Document API"
}

func (f *YDBNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Operation to perform",
				"default":     "getItem",
				"enum":        []string{"getItem", "putItem", "deleteItem", "scan"},
			},
			"endpoint": map[string]any{
				"type":        "string",
				"description": "Document API endpoint of the database",
				"examples":    []string{"https://docapi.serverless.yandexcloud.net/ru-central1/b1g.../etn..."},
			},
			"tableName": map[string]any{
				"type":        "string",
				"description": "Table to operate on",
			},
			"key": map[string]any{
				"type":        "object",
				"description": "Document key. Required for getItem and deleteItem",
				"examples":    []map[string]any{{"id": "user-42"}},
			},
		},
		"required": []string{"operation", "endpoint", "tableName"},
	}
}
