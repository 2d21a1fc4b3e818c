// Package search provides the Yandex Search API node.
package search

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/api"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
)

const defaultSearchURL = "https://searchapi.api.cloud.yandex.net/v2/web/search"

// SearchConfig defines the configuration for the Search node. When Query is
// empty the query is read from the item's "query" field.
type SearchConfig struct {
	FolderID   string `json:"folderId"`
	Query      string `json:"query"`
	SearchType string `json:"searchType"`
	Page       int    `json:"page"`
	Region     string `json:"region"`
}

// SearchNode performs web searches through the Search API.
type SearchNode struct {
	id     string
	config SearchConfig

	tokens    auth.TokenSource
	client    *api.Client
	searchURL string
}

func NewSearchNode(id string, config map[string]any) (*SearchNode, error) {
	cfg := SearchConfig{SearchType: "SEARCH_TYPE_RU"}

	if folderID, ok := config["folderId"].(string); ok {
		cfg.FolderID = folderID
	}

	if query, ok := config["query"].(string); ok {
		cfg.Query = query
	}

	if searchType, ok := config["searchType"].(string); ok && searchType != "" {
		cfg.SearchType = searchType
	}

	if page, ok := config["page"].(float64); ok {
		cfg.Page = int(page)
	}

	if region, ok := config["region"].(string); ok {
		cfg.Region = region
	}

	if cfg.FolderID == "" {
		return nil, errors.New("missing required field 'folderId'")
	}

	if cfg.Page < 0 {
		return nil, errors.New("page must not be negative")
	}

	return &SearchNode{
		id:        id,
		config:    cfg,
		searchURL: defaultSearchURL,
	}, nil
}

func (n *SearchNode) ID() string {
	return n.id
}

func (n *SearchNode) Type() string {
	return "yandexSearch"
}

func (n *SearchNode) Execute(ctx context.Context, ectx models.ExecutionContext, logger *slog.Logger) ([]models.Item, error) {
	key, err := auth.ServiceAccountKeyFromCredentials(ectx.Credentials)
	if err != nil {
		return nil, err
	}

	tokens := n.tokens
	if tokens == nil {
		tokens = auth.DefaultTokenSource(logger)
	}

	client := n.client
	if client == nil {
		client = api.NewClient(logger)
	}

	token, err := tokens.Token(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain IAM token: %w", err)
	}

	return runner.ProcessItems(ctx, ectx.Items, runner.Options{
		ExecutionID:    ectx.ID,
		NodeID:         n.id,
		NodeType:       n.Type(),
		ContinueOnFail: ectx.ContinueOnFail,
		Logger:         logger,
	}, func(ctx context.Context, item models.Item, _ int) (models.Item, error) {
		return n.search(ctx, client, token, item)
	})
}

// search posts one web-search request. The service answers with the result
// page as base64 XML in rawData; it is decoded but not parsed further.
func (n *SearchNode) search(ctx context.Context, client *api.Client, token string, item models.Item) (models.Item, error) {
	queryText := n.config.Query
	if queryText == "" {
		queryText, _ = item.JSON["query"].(string)
	}

	if queryText == "" {
		return models.Item{}, runner.NewValidationError("no search query: set 'query' in the node configuration or in the item")
	}

	query := map[string]any{
		"searchType": n.config.SearchType,
		"queryText":  queryText,
	}

	if n.config.Page > 0 {
		query["page"] = fmt.Sprintf("%d", n.config.Page)
	}

	request := map[string]any{
		"query":    query,
		"folderId": n.config.FolderID,
	}

	if n.config.Region != "" {
		request["region"] = n.config.Region
	}

	var response struct {
		RawData string `json:"rawData"`
	}

	if err := client.DoJSON(ctx, "search.webSearch", "POST", n.searchURL, token, request, &response); err != nil {
		return models.Item{}, err
	}

	decoded, err := base64.StdEncoding.DecodeString(response.RawData)
	if err != nil {
		return models.Item{}, fmt.Errorf("search.webSearch: failed to decode result payload: %w", err)
	}

	return models.Item{JSON: map[string]any{
		"query":   queryText,
		"results": string(decoded),
	}}, nil
}
