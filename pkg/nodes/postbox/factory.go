package postbox

import (
	"context"

	"github.com/flowhost/yandexcloud-nodes/pkg/protocol"
)

// PostboxNodeFactory creates PostboxNode instances.
type PostboxNodeFactory struct{}

func NewPostboxNodeFactory() protocol.NodeFactory {
	return &PostboxNodeFactory{}
}

func (f *PostboxNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewPostboxNode(id, config)
}

func (f *PostboxNodeFactory) ID() string {
	return "yandexPostbox"
}

func (f *PostboxNodeFactory) Name() string {
	return "Yandex Cloud Postbox"
}

func (f *PostboxNodeFactory) Description() string {
	return "Sends transactional mail through the SES-compatible Postbox API"
}

func (f *PostboxNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Operation to perform",
				"default":     "sendEmail",
				"enum":        []string{"sendEmail", "sendRawEmail"},
			},
			"from": map[string]any{
				"type":        "string",
				"description": "Sender address, verified in Postbox",
			},
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient address. Required for sendEmail",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Message subject. When empty the item's 'subject' field is used",
			},
			"bodyText": map[string]any{
				"type":        "string",
				"description": "Plain-text body. When empty the item's 'text' field is used",
			},
			"bodyHtml": map[string]any{
				"type":        "string",
				"description": "Optional HTML body",
			},
			"rawProperty": map[string]any{
				"type":        "string",
				"description": "Item binary property holding the raw MIME message for sendRawEmail",
				"default":     "message",
			},
		},
		"required": []string{"operation", "from"},
	}
}
