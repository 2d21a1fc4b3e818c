package translate

import (
	"context"

	"github.com/flowhost/yandexcloud-nodes/pkg/protocol"
)

// TranslateNodeFactory creates TranslateNode instances.
type TranslateNodeFactory struct{}

func NewTranslateNodeFactory() protocol.NodeFactory {
	return &TranslateNodeFactory{}
}

func (f *TranslateNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewTranslateNode(id, config)
}

func (f *TranslateNodeFactory) ID() string {
	return "yandexTranslate"
}

func (f *TranslateNodeFactory) Name() string {
	return "Yandex Translate"
}

func (f *TranslateNodeFactory) Description() string {
	return "Translates text, detects its language, or lists the supported languages"
}

func (f *TranslateNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Operation to perform",
				"default":     "translate",
				"enum":        []string{"translate", "detectLanguage", "listLanguages"},
			},
			"folderId": map[string]any{
				"type":        "string",
				"description": "Folder ID the request is billed to",
			},
			"text": map[string]any{
				"type":        "string",
				"description": "Text to process. When empty the item's 'text' field is used",
			},
			"targetLanguageCode": map[string]any{
				"type":        "string",
				"description": "Target language. Required for the translate operation",
				"examples":    []string{"en", "ru", "de"},
			},
			"sourceLanguageCode": map[string]any{
				"type":        "string",
				"description": "Source language. Detected automatically when empty",
			},
		},
		"required": []string{"operation", "folderId"},
	}
}
