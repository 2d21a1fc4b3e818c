// Package postbox provides the Yandex Cloud Postbox node, sending mail
// through the SES-compatible API with a static access key.
package postbox

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sesv2"
	"github.com/aws/aws-sdk-go/service/sesv2/sesv2iface"

	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
)

const (
	defaultEndpoint = "https://postbox.cloud.yandex.net"
	defaultRegion   = "ru-central1"
)

// PostboxConfig defines the configuration for the Postbox node. Empty
// Subject/BodyText fall back to the item's "subject" and "text" fields.
type PostboxConfig struct {
	Operation string `json:"operation"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	BodyText  string `json:"bodyText"`
	BodyHTML  string `json:"bodyHtml"`

	RawProperty string `json:"rawProperty"`
}

// PostboxNode sends transactional mail.
type PostboxNode struct {
	id     string
	config PostboxConfig

	client sesv2iface.SESV2API
}

func NewPostboxNode(id string, config map[string]any) (*PostboxNode, error) {
	cfg := PostboxConfig{
		Operation:   "sendEmail",
		RawProperty: "message",
	}

	if operation, ok := config["operation"].(string); ok && operation != "" {
		cfg.Operation = operation
	}

	if from, ok := config["from"].(string); ok {
		cfg.From = from
	}

	if to, ok := config["to"].(string); ok {
		cfg.To = to
	}

	if subject, ok := config["subject"].(string); ok {
		cfg.Subject = subject
	}

	if bodyText, ok := config["bodyText"].(string); ok {
		cfg.BodyText = bodyText
	}

	if bodyHTML, ok := config["bodyHtml"].(string); ok {
		cfg.BodyHTML = bodyHTML
	}

	if rawProperty, ok := config["rawProperty"].(string); ok && rawProperty != "" {
		cfg.RawProperty = rawProperty
	}

	if cfg.From == "" {
		return nil, errors.New("missing required field 'from'")
	}

	switch cfg.Operation {
	case "sendEmail":
		if cfg.To == "" {
			return nil, errors.New("missing required field 'to'")
		}
	case "sendRawEmail":
	default:
		return nil, fmt.Errorf("unknown operation: %s", cfg.Operation)
	}

	return &PostboxNode{id: id, config: cfg}, nil
}

func (n *PostboxNode) ID() string {
	return n.id
}

func (n *PostboxNode) Type() string {
	return "yandexPostbox"
}

type itemHandler func(ctx context.Context, client sesv2iface.SESV2API, item models.Item) (models.Item, error)

func (n *PostboxNode) Execute(ctx context.Context, ectx models.ExecutionContext, logger *slog.Logger) ([]models.Item, error) {
	key, err := auth.StaticKeyFromCredentials(ectx.Credentials)
	if err != nil {
		return nil, err
	}

	client := n.client
	if client == nil {
		client, err = newMailClient(key)
		if err != nil {
			return nil, err
		}
	}

	handlers := map[string]itemHandler{
		"sendEmail":    n.sendEmail,
		"sendRawEmail": n.sendRawEmail,
	}

	handler := handlers[n.config.Operation]

	return runner.ProcessItems(ctx, ectx.Items, runner.Options{
		ExecutionID:    ectx.ID,
		NodeID:         n.id,
		NodeType:       n.Type(),
		ContinueOnFail: ectx.ContinueOnFail,
		Logger:         logger,
	}, func(ctx context.Context, item models.Item, _ int) (models.Item, error) {
		return handler(ctx, client, item)
	})
}

func newMailClient(key *auth.StaticKey) (sesv2iface.SESV2API, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(defaultRegion),
		Endpoint:    aws.String(defaultEndpoint),
		Credentials: credentials.NewStaticCredentials(key.AccessKeyID, key.SecretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mail session: %w", err)
	}

	return sesv2.New(sess), nil
}

func (n *PostboxNode) sendEmail(ctx context.Context, client sesv2iface.SESV2API, item models.Item) (models.Item, error) {
	subject := n.config.Subject
	if subject == "" {
		subject, _ = item.JSON["subject"].(string)
	}

	bodyText := n.config.BodyText
	if bodyText == "" {
		bodyText, _ = item.JSON["text"].(string)
	}

	if subject == "" {
		return models.Item{}, runner.NewValidationError("no subject: set 'subject' in the node configuration or in the item")
	}

	if bodyText == "" && n.config.BodyHTML == "" {
		return models.Item{}, runner.NewValidationError("no message body: set 'bodyText' or 'bodyHtml' in the node configuration or 'text' in the item")
	}

	body := &sesv2.Body{}
	if bodyText != "" {
		body.Text = &sesv2.Content{Data: aws.String(bodyText)}
	}

	if n.config.BodyHTML != "" {
		body.Html = &sesv2.Content{Data: aws.String(n.config.BodyHTML)}
	}

	output, err := client.SendEmailWithContext(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.config.From),
		Destination: &sesv2.Destination{
			ToAddresses: []*string{aws.String(n.config.To)},
		},
		Content: &sesv2.EmailContent{
			Simple: &sesv2.Message{
				Subject: &sesv2.Content{Data: aws.String(subject)},
				Body:    body,
			},
		},
	})
	if err != nil {
		return models.Item{}, fmt.Errorf("postbox.sendEmail: %w", err)
	}

	payload := map[string]any{"to": n.config.To, "sent": true}
	if output.MessageId != nil {
		payload["messageId"] = *output.MessageId
	}

	return models.Item{JSON: payload}, nil
}

// sendRawEmail sends a prebuilt MIME message carried in the item's binary
// part; recipients come from the message headers.
func (n *PostboxNode) sendRawEmail(ctx context.Context, client sesv2iface.SESV2API, item models.Item) (models.Item, error) {
	binary, ok := item.Binary[n.config.RawProperty]
	if !ok {
		return models.Item{}, runner.NewValidationError("item has no binary property %q with the raw message", n.config.RawProperty)
	}

	raw, err := base64.StdEncoding.DecodeString(binary.Data)
	if err != nil {
		return models.Item{}, fmt.Errorf("postbox.sendRawEmail: binary property %q is not valid base64: %w", n.config.RawProperty, err)
	}

	output, err := client.SendEmailWithContext(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.config.From),
		Content: &sesv2.EmailContent{
			Raw: &sesv2.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return models.Item{}, fmt.Errorf("postbox.sendRawEmail: %w", err)
	}

	payload := map[string]any{"sent": true}
	if output.MessageId != nil {
		payload["messageId"] = *output.MessageId
	}

	return models.Item{JSON: payload}, nil
}
