// Package translate provides the Yandex Translate node.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/api"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
)

const defaultBaseURL = "https://translate.api.cloud.yandex.net/translate/v2"

// TranslateConfig defines the configuration for the Translate node. When
// Text is empty the text to process is read from the item's "text" field.
type TranslateConfig struct {
	Operation          string `json:"operation"`
	FolderID           string `json:"folderId"`
	Text               string `json:"text"`
	TargetLanguageCode string `json:"targetLanguageCode"`
	SourceLanguageCode string `json:"sourceLanguageCode"`
}

// TranslateNode translates text, detects its language, and lists supported
// languages.
type TranslateNode struct {
	id     string
	config TranslateConfig

	tokens  auth.TokenSource
	client  *api.Client
	baseURL string
}

func NewTranslateNode(id string, config map[string]any) (*TranslateNode, error) {
	cfg := TranslateConfig{Operation: "translate"}

	if operation, ok := config["operation"].(string); ok && operation != "" {
		cfg.Operation = operation
	}

	if folderID, ok := config["folderId"].(string); ok {
		cfg.FolderID = folderID
	}

	if text, ok := config["text"].(string); ok {
		cfg.Text = text
	}

	if target, ok := config["targetLanguageCode"].(string); ok {
		cfg.TargetLanguageCode = target
	}

	if source, ok := config["sourceLanguageCode"].(string); ok {
		cfg.SourceLanguageCode = source
	}

	if cfg.FolderID == "" {
		return nil, errors.New("missing required field 'folderId'")
	}

	switch cfg.Operation {
	case "translate":
		if cfg.TargetLanguageCode == "" {
			return nil, errors.New("missing required field 'targetLanguageCode'")
		}
	case "detectLanguage", "listLanguages":
	default:
		return nil, fmt.Errorf("unknown operation: %s", cfg.Operation)
	}

	return &TranslateNode{
		id:      id,
		config:  cfg,
		baseURL: defaultBaseURL,
	}, nil
}

func (n *TranslateNode) ID() string {
	return n.id
}

func (n *TranslateNode) Type() string {
	return "yandexTranslate"
}

type itemHandler func(ctx context.Context, client *api.Client, token string, item models.Item) (models.Item, error)

func (n *TranslateNode) Execute(ctx context.Context, ectx models.ExecutionContext, logger *slog.Logger) ([]models.Item, error) {
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

	handlers := map[string]itemHandler{
		"translate":      n.translate,
		"detectLanguage": n.detectLanguage,
		"listLanguages":  n.listLanguages,
	}

	handler := handlers[n.config.Operation]

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
		return handler(ctx, client, token, item)
	})
}

// itemText resolves the text to process: the configured text when set,
// otherwise the item's "text" field.
func (n *TranslateNode) itemText(item models.Item) (string, error) {
	if n.config.Text != "" {
		return n.config.Text, nil
	}

	if text, ok := item.JSON["text"].(string); ok && text != "" {
		return text, nil
	}

	return "", runner.NewValidationError("no text to process: set 'text' in the node configuration or in the item")
}

func (n *TranslateNode) translate(ctx context.Context, client *api.Client, token string, item models.Item) (models.Item, error) {
	text, err := n.itemText(item)
	if err != nil {
		return models.Item{}, err
	}

	request := map[string]any{
		"folderId":           n.config.FolderID,
		"texts":              []string{text},
		"targetLanguageCode": n.config.TargetLanguageCode,
	}

	if n.config.SourceLanguageCode != "" {
		request["sourceLanguageCode"] = n.config.SourceLanguageCode
	}

	var response struct {
		Translations []struct {
			Text                 string `json:"text"`
			DetectedLanguageCode string `json:"detectedLanguageCode"`
		} `json:"translations"`
	}

	if err := client.DoJSON(ctx, "translate.translate", "POST", n.baseURL+"/translate", token, request, &response); err != nil {
		return models.Item{}, err
	}

	if len(response.Translations) == 0 {
		return models.Item{}, fmt.Errorf("translate.translate: response contained no translations")
	}

	translation := response.Translations[0]
	payload := map[string]any{
		"translatedText":     translation.Text,
		"targetLanguageCode": n.config.TargetLanguageCode,
	}

	if translation.DetectedLanguageCode != "" {
		payload["detectedLanguageCode"] = translation.DetectedLanguageCode
	}

	return models.Item{JSON: payload}, nil
}

func (n *TranslateNode) detectLanguage(ctx context.Context, client *api.Client, token string, item models.Item) (models.Item, error) {
	text, err := n.itemText(item)
	if err != nil {
		return models.Item{}, err
	}

	request := map[string]any{
		"folderId": n.config.FolderID,
		"text":     text,
	}

	var response struct {
		LanguageCode string `json:"languageCode"`
	}

	if err := client.DoJSON(ctx, "translate.detectLanguage", "POST", n.baseURL+"/detect", token, request, &response); err != nil {
		return models.Item{}, err
	}

	return models.Item{JSON: map[string]any{"languageCode": response.LanguageCode}}, nil
}

func (n *TranslateNode) listLanguages(ctx context.Context, client *api.Client, token string, _ models.Item) (models.Item, error) {
	request := map[string]any{"folderId": n.config.FolderID}

	var response struct {
		Languages []map[string]any `json:"languages"`
	}

	if err := client.DoJSON(ctx, "translate.listLanguages", "POST", n.baseURL+"/languages", token, request, &response); err != nil {
		return models.Item{}, err
	}

	return models.Item{JSON: map[string]any{"languages": response.Languages}}, nil
}
