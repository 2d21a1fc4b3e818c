package objectstorage

import (
	"context"

	"github.com/flowhost/yandexcloud-nodes/pkg/protocol"
)

// StorageNodeFactory creates StorageNode instances.
type StorageNodeFactory struct{}

func NewStorageNodeFactory() protocol.NodeFactory {
	return &StorageNodeFactory{}
}

func (f *StorageNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewStorageNode(id, config)
}

func (f *StorageNodeFactory) ID() string {
	return "yandexObjectStorage"
}

func (f *StorageNodeFactory) Name() string {
	return "Yandex Object Storage"
}

func (f *StorageNodeFactory) Description() string {
	return "Uploads, downloads, deletes, and lists bucket objects over the S3-compatible API"
}

func (f *StorageNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Operation to perform",
				"default":     "upload",
				"enum":        []string{"upload", "download", "delete", "list"},
			},
			"bucket": map[string]any{
				"type":        "string",
				"description": "Bucket name",
			},
			"key": map[string]any{
				"type":        "string",
				"description": "Object key. Required for upload, download, and delete",
			},
			"prefix": map[string]any{
				"type":        "string",
				"description": "Key prefix filter for the list operation",
			},
			"binaryProperty": map[string]any{
				"type":        "string",
				"description": "Item binary property holding the payload (upload) or receiving it (download)",
				"default":     "data",
			},
		},
		"required": []string{"operation", "bucket"},
	}
}
