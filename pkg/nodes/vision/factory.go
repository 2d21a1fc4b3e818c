package vision

import (
	"context"

	"github.com/flowhost/yandexcloud-nodes/pkg/protocol"
)

// VisionNodeFactory creates VisionNode instances.
type VisionNodeFactory struct{}

func NewVisionNodeFactory() protocol.NodeFactory {
	return &VisionNodeFactory{}
}

func (f *VisionNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewVisionNode(id, config)
}

func (f *VisionNodeFactory) ID() string {
	return "yandexVision"
}

func (f *VisionNodeFactory) Name() string {
	return "Yandex Vision OCR"
}

func (f *VisionNodeFactory) Description() string {
	return "Recognizes text in images and documents, synchronously or through asynchronous jobs"
}

func (f *VisionNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Operation to perform",
				"default":     "recognize",
				"enum":        []string{"recognize", "recognizeAsync", "getRecognitionResults"},
			},
			"binaryProperty": map[string]any{
				"type":        "string",
				"description": "Item binary property holding the image or document",
				"default":     "data",
			},
			"mimeType": map[string]any{
				"type":        "string",
				"description": "Content type of the payload",
				"default":     "JPEG",
				"examples":    []string{"JPEG", "PNG", "PDF"},
			},
			"languageCodes": map[string]any{
				"type":        "array",
				"description": "Recognition languages; '*' selects automatic detection",
				"default":     []string{"*"},
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Recognition model",
				"default":     "page",
			},
			"operationId": map[string]any{
				"type":        "string",
				"description": "Job to poll. When empty the item's 'operationId' field is used",
			},
			"pollIntervalSeconds": map[string]any{
				"type":        "number",
				"description": "Delay between polling attempts",
				"default":     5,
				"minimum":     1,
				"maximum":     60,
			},
			"maxAttempts": map[string]any{
				"type":        "number",
				"description": "Polling attempt budget",
				"default":     60,
				"minimum":     1,
				"maximum":     300,
			},
			"returnPartialResults": map[string]any{
				"type":        "boolean",
				"description": "Return collected pages with status RUNNING when the attempt budget runs out",
				"default":     false,
			},
			"outputFormat": map[string]any{
				"type":        "string",
				"description": "Shape of the recognition result",
				"default":     "fullText",
				"enum":        []string{"fullText", "structured", "both"},
			},
		},
		"required": []string{"operation"},
	}
}
