package search

import (
	"context"

	"github.com/flowhost/yandexcloud-nodes/pkg/protocol"
)

// SearchNodeFactory creates SearchNode instances.
type SearchNodeFactory struct{}

func NewSearchNodeFactory() protocol.NodeFactory {
	return &SearchNodeFactory{}
}

func (f *SearchNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewSearchNode(id, config)
}

func (f *SearchNodeFactory) ID() string {
	return "yandexSearch"
}

func (f *SearchNodeFactory) Name() string {
	return "Yandex Search"
}

func (f *SearchNodeFactory) Description() string {
	return "Performs a web search through the Search API"
}

func (f *SearchNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"folderId": map[string]any{
				"type":        "string",
				"description": "Folder ID the request is billed to",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "Search query. When empty the item's 'query' field is used",
			},
			"searchType": map[string]any{
				"type":        "string",
				"description": "Search domain",
				"default":     "SEARCH_TYPE_RU",
				"enum":        []string{"SEARCH_TYPE_RU", "SEARCH_TYPE_TR", "SEARCH_TYPE_COM"},
			},
			"page": map[string]any{
				"type":        "number",
				"description": "Result page, starting from 0",
				"default":     0,
				"minimum":     0,
			},
			"region": map[string]any{
				"type":        "string",
				"description": "Region ID biasing the results",
			},
		},
		"required": []string{"folderId"},
	}
}
