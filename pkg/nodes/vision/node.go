// Package vision provides the Yandex Vision OCR node: synchronous text
// recognition, starting asynchronous jobs, and polling their results.
package vision

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/api"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/ocr"
)

const defaultAPIBaseURL = "https://ocr.api.cloud.yandex.net/ocr/v1"

// VisionConfig defines the configuration for the Vision node. For
// getRecognitionResults an empty OperationID falls back to the item's
// "operationId" field.
type VisionConfig struct {
	Operation      string   `json:"operation"`
	BinaryProperty string   `json:"binaryProperty"`
	MimeType       string   `json:"mimeType"`
	LanguageCodes  []string `json:"languageCodes"`
	Model          string   `json:"model"`

	OperationID          string `json:"operationId"`
	PollIntervalSeconds  int    `json:"pollIntervalSeconds"`
	MaxAttempts          int    `json:"maxAttempts"`
	ReturnPartialResults bool   `json:"returnPartialResults"`
	OutputFormat         string `json:"outputFormat"`
}

// VisionNode recognizes text in images and documents.
type VisionNode struct {
	id     string
	config VisionConfig

	tokens     auth.TokenSource
	client     *api.Client
	apiBaseURL string
}

func NewVisionNode(id string, config map[string]any) (*VisionNode, error) {
	defaults := ocr.DefaultConfig("")
	cfg := VisionConfig{
		Operation:           "recognize",
		BinaryProperty:      "data",
		MimeType:            "JPEG",
		LanguageCodes:       []string{"*"},
		Model:               "page",
		PollIntervalSeconds: defaults.PollIntervalSeconds,
		MaxAttempts:         defaults.MaxAttempts,
		OutputFormat:        string(defaults.OutputFormat),
	}

	if operation, ok := config["operation"].(string); ok && operation != "" {
		cfg.Operation = operation
	}

	if binaryProperty, ok := config["binaryProperty"].(string); ok && binaryProperty != "" {
		cfg.BinaryProperty = binaryProperty
	}

	if mimeType, ok := config["mimeType"].(string); ok && mimeType != "" {
		cfg.MimeType = mimeType
	}

	if codes, ok := config["languageCodes"].([]any); ok && len(codes) > 0 {
		cfg.LanguageCodes = cfg.LanguageCodes[:0]
		for _, code := range codes {
			if s, ok := code.(string); ok {
				cfg.LanguageCodes = append(cfg.LanguageCodes, s)
			}
		}
	}

	if model, ok := config["model"].(string); ok && model != "" {
		cfg.Model = model
	}

	if operationID, ok := config["operationId"].(string); ok {
		cfg.OperationID = operationID
	}

	if interval, ok := config["pollIntervalSeconds"].(float64); ok {
		cfg.PollIntervalSeconds = int(interval)
	}

	if maxAttempts, ok := config["maxAttempts"].(float64); ok {
		cfg.MaxAttempts = int(maxAttempts)
	}

	if partial, ok := config["returnPartialResults"].(bool); ok {
		cfg.ReturnPartialResults = partial
	}

	if format, ok := config["outputFormat"].(string); ok && format != "" {
		cfg.OutputFormat = format
	}

	switch cfg.Operation {
	case "recognize", "recognizeAsync", "getRecognitionResults":
	default:
		return nil, fmt.Errorf("unknown operation: %s", cfg.Operation)
	}

	return &VisionNode{
		id:         id,
		config:     cfg,
		apiBaseURL: defaultAPIBaseURL,
	}, nil
}

func (n *VisionNode) ID() string {
	return n.id
}

func (n *VisionNode) Type() string {
	return "yandexVision"
}

func (n *VisionNode) Execute(ctx context.Context, ectx models.ExecutionContext, logger *slog.Logger) ([]models.Item, error) {
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

	var handler func(ctx context.Context, item models.Item) (models.Item, error)

	switch n.config.Operation {
	case "recognize":
		handler = func(ctx context.Context, item models.Item) (models.Item, error) {
			return n.recognize(ctx, client, token, item)
		}
	case "recognizeAsync":
		handler = func(ctx context.Context, item models.Item) (models.Item, error) {
			return n.recognizeAsync(ctx, client, token, item)
		}
	case "getRecognitionResults":
		poller := ocr.NewPoller(&streamSource{client: client, token: token, baseURL: n.apiBaseURL}, logger)
		handler = func(ctx context.Context, item models.Item) (models.Item, error) {
			return n.getRecognitionResults(ctx, poller, item)
		}
	}

	return runner.ProcessItems(ctx, ectx.Items, runner.Options{
		ExecutionID:    ectx.ID,
		NodeID:         n.id,
		NodeType:       n.Type(),
		ContinueOnFail: ectx.ContinueOnFail,
		Logger:         logger,
	}, func(ctx context.Context, item models.Item, _ int) (models.Item, error) {
		return handler(ctx, item)
	})
}

// recognitionBody builds the request shared by the sync and async calls.
func (n *VisionNode) recognitionBody(item models.Item) (map[string]any, error) {
	binary, ok := item.Binary[n.config.BinaryProperty]
	if !ok {
		return nil, runner.NewValidationError("item has no binary property %q to recognize", n.config.BinaryProperty)
	}

	return map[string]any{
		"mimeType":      n.config.MimeType,
		"languageCodes": n.config.LanguageCodes,
		"model":         n.config.Model,
		"content":       binary.Data,
	}, nil
}

func (n *VisionNode) recognize(ctx context.Context, client *api.Client, token string, item models.Item) (models.Item, error) {
	body, err := n.recognitionBody(item)
	if err != nil {
		return models.Item{}, err
	}

	var response struct {
		Result struct {
			TextAnnotation map[string]any `json:"textAnnotation"`
			Page           int            `json:"page"`
		} `json:"result"`
	}

	endpoint := n.apiBaseURL + "/recognizeText"
	if err := client.DoJSON(ctx, "vision.recognize", "POST", endpoint, token, body, &response); err != nil {
		return models.Item{}, err
	}

	fullText, _ := response.Result.TextAnnotation["fullText"].(string)

	return models.Item{JSON: map[string]any{
		"text":       fullText,
		"annotation": response.Result.TextAnnotation,
	}}, nil
}

func (n *VisionNode) recognizeAsync(ctx context.Context, client *api.Client, token string, item models.Item) (models.Item, error) {
	body, err := n.recognitionBody(item)
	if err != nil {
		return models.Item{}, err
	}

	var operation struct {
		ID string `json:"id"`
	}

	endpoint := n.apiBaseURL + "/recognizeTextAsync"
	if err := client.DoJSON(ctx, "vision.recognizeAsync", "POST", endpoint, token, body, &operation); err != nil {
		return models.Item{}, err
	}

	if operation.ID == "" {
		return models.Item{}, fmt.Errorf("vision.recognizeAsync: response contained no operation id")
	}

	return models.Item{JSON: map[string]any{"operationId": operation.ID}}, nil
}

func (n *VisionNode) getRecognitionResults(ctx context.Context, poller *ocr.Poller, item models.Item) (models.Item, error) {
	operationID := n.config.OperationID
	if operationID == "" {
		operationID, _ = item.JSON["operationId"].(string)
	}

	if operationID == "" {
		return models.Item{}, runner.NewValidationError("no operation id: set 'operationId' in the node configuration or in the item")
	}

	result, err := poller.Poll(ctx, ocr.Config{
		OperationID:          operationID,
		PollIntervalSeconds:  n.config.PollIntervalSeconds,
		MaxAttempts:          n.config.MaxAttempts,
		ReturnPartialResults: n.config.ReturnPartialResults,
		OutputFormat:         ocr.OutputFormat(n.config.OutputFormat),
	})
	if err != nil {
		return models.Item{}, err
	}

	payload := map[string]any{
		"operationId":  operationID,
		"status":       result.Status,
		"attemptsUsed": result.AttemptsUsed,
	}

	if result.FullText != "" {
		payload["text"] = result.FullText
	}

	if result.Annotations != nil {
		payload["annotations"] = result.Annotations
	}

	if result.Warning != "" {
		payload["warning"] = result.Warning
	}

	return models.Item{JSON: payload}, nil
}

// streamSource streams a recognition job's pages from the getRecognition
// endpoint, which answers with newline-delimited JSON, one page per line.
type streamSource struct {
	client  *api.Client
	token   string
	baseURL string
}

func (s *streamSource) StreamResults(ctx context.Context, operationID string, yield func(ocr.TextAnnotation)) error {
	endpoint := s.baseURL + "/getRecognition?operationId=" + url.QueryEscape(operationID)

	body, err := s.client.Stream(ctx, "vision.getRecognition", "GET", endpoint, s.token)
	if err != nil {
		return err
	}
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var page struct {
			Result struct {
				TextAnnotation map[string]any `json:"textAnnotation"`
				Page           json.Number    `json:"page"`
			} `json:"result"`
		}

		if err := json.Unmarshal(line, &page); err != nil {
			return fmt.Errorf("vision.getRecognition: failed to decode result line: %w", err)
		}

		fullText, _ := page.Result.TextAnnotation["fullText"].(string)
		pageNumber, _ := page.Result.Page.Int64()

		yield(ocr.TextAnnotation{
			Page: int(pageNumber),
			Text: fullText,
			Raw:  page.Result.TextAnnotation,
		})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("vision.getRecognition: failed to read result stream: %w", err)
	}

	return nil
}

var _ ocr.ResultSource = (*streamSource)(nil)
