package postbox

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sesv2"
	"github.com/aws/aws-sdk-go/service/sesv2/sesv2iface"

	"github.com/flowhost/yandexcloud-nodes/pkg/log"
	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
)

type fakeMailAPI struct {
	sesv2iface.SESV2API

	sent []*sesv2.SendEmailInput
}

func (f *fakeMailAPI) SendEmailWithContext(_ aws.Context, input *sesv2.SendEmailInput, _ ...request.Option) (*sesv2.SendEmailOutput, error) {
	f.sent = append(f.sent, input)

	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func testExecutionContext(items ...models.Item) models.ExecutionContext {
	return models.ExecutionContext{
		ID:     "exec-1",
		NodeID: "node-1",
		Items:  items,
		Credentials: map[string]any{
			"accessKeyId":     "YCAJE...",
			"secretAccessKey": "YCM...",
		},
	}
}

func TestPostboxNode_SendEmail(t *testing.T) {
	fake := &fakeMailAPI{}

	node, err := NewPostboxNode("node-1", map[string]any{
		"from":    "noreply@example.com",
		"to":      "user@example.com",
		"subject": "Report ready",
	})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.client = fake

	out, err := node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{"text": "Your report is attached."}),
	), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if len(fake.sent) != 1 {
		t.Fatalf("expected one SendEmail call, got %d", len(fake.sent))
	}

	sent := fake.sent[0]
	if *sent.FromEmailAddress != "noreply@example.com" {
		t.Errorf("unexpected sender: %s", *sent.FromEmailAddress)
	}

	if *sent.Destination.ToAddresses[0] != "user@example.com" {
		t.Errorf("unexpected recipient: %v", sent.Destination.ToAddresses)
	}

	if *sent.Content.Simple.Body.Text.Data != "Your report is attached." {
		t.Errorf("unexpected body: %v", *sent.Content.Simple.Body.Text.Data)
	}

	if out[0].JSON["messageId"] != "msg-1" {
		t.Errorf("unexpected message id: %v", out[0].JSON["messageId"])
	}
}

func TestPostboxNode_SendRawEmail(t *testing.T) {
	fake := &fakeMailAPI{}

	node, err := NewPostboxNode("node-1", map[string]any{
		"operation": "sendRawEmail",
		"from":      "noreply@example.com",
	})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.client = fake

	mime := "From: noreply@example.com\r\nTo: user@example.com\r\n\r\nhello"
	item := models.Item{
		JSON: map[string]any{},
		Binary: map[string]models.BinaryData{
			"message": {Data: base64.StdEncoding.EncodeToString([]byte(mime))},
		},
	}

	_, err = node.Execute(context.Background(), testExecutionContext(item), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if len(fake.sent) != 1 || fake.sent[0].Content.Raw == nil {
		t.Fatalf("expected one raw SendEmail call, got %v", fake.sent)
	}

	if string(fake.sent[0].Content.Raw.Data) != mime {
		t.Errorf("unexpected raw payload: %q", fake.sent[0].Content.Raw.Data)
	}
}

func TestPostboxNode_MissingBodyIsValidation(t *testing.T) {
	node, err := NewPostboxNode("node-1", map[string]any{
		"from":    "noreply@example.com",
		"to":      "user@example.com",
		"subject": "no body",
	})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.client = &fakeMailAPI{}

	_, err = node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{}),
	), log.Discard())
	if err == nil || !runner.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPostboxNode_MissingTo(t *testing.T) {
	_, err := NewPostboxNode("node-1", map[string]any{"from": "noreply@example.com"})
	if err == nil || !strings.Contains(err.Error(), "to") {
		t.Fatalf("expected missing to error, got %v", err)
	}
}
