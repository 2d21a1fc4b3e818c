package objectstorage

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/flowhost/yandexcloud-nodes/pkg/log"
	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
)

// fakeS3 records the inputs it saw and serves canned outputs.
type fakeS3 struct {
	s3iface.S3API

	putInput    *s3.PutObjectInput
	deleteInput *s3.DeleteObjectInput

	getBody        string
	getContentType string
	listKeys       []string
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.putInput = input

	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, _ *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(strings.NewReader(f.getBody)),
		ContentType: aws.String(f.getContentType),
	}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, input *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.deleteInput = input

	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2WithContext(_ aws.Context, _ *s3.ListObjectsV2Input, _ ...request.Option) (*s3.ListObjectsV2Output, error) {
	contents := make([]*s3.Object, 0, len(f.listKeys))
	for _, key := range f.listKeys {
		contents = append(contents, &s3.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(3),
			LastModified: aws.Time(time.Unix(0, 0)),
		})
	}

	return &s3.ListObjectsV2Output{Contents: contents}, nil
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

func TestStorageNode_Upload(t *testing.T) {
	fake := &fakeS3{}

	node, err := NewStorageNode("node-1", map[string]any{"bucket": "my-bucket", "key": "report.pdf"})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.client = fake

	item := models.Item{
		JSON: map[string]any{},
		Binary: map[string]models.BinaryData{
			"data": {
				Data:     base64.StdEncoding.EncodeToString([]byte("pdf-bytes")),
				MimeType: "application/pdf",
			},
		},
	}

	out, err := node.Execute(context.Background(), testExecutionContext(item), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if fake.putInput == nil {
		t.Fatal("expected a PutObject call")
	}

	if *fake.putInput.Bucket != "my-bucket" || *fake.putInput.Key != "report.pdf" {
		t.Errorf("unexpected put target: %s/%s", *fake.putInput.Bucket, *fake.putInput.Key)
	}

	if *fake.putInput.ContentType != "application/pdf" {
		t.Errorf("unexpected content type: %s", *fake.putInput.ContentType)
	}

	uploaded, _ := io.ReadAll(fake.putInput.Body)
	if !bytes.Equal(uploaded, []byte("pdf-bytes")) {
		t.Errorf("unexpected uploaded body: %q", uploaded)
	}

	if out[0].JSON["size"] != len("pdf-bytes") {
		t.Errorf("unexpected reported size: %v", out[0].JSON["size"])
	}
}

func TestStorageNode_UploadWithoutBinaryIsValidation(t *testing.T) {
	node, err := NewStorageNode("node-1", map[string]any{"bucket": "my-bucket", "key": "report.pdf"})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.client = &fakeS3{}

	_, err = node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{}),
	), log.Discard())
	if err == nil || !runner.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStorageNode_Download(t *testing.T) {
	fake := &fakeS3{getBody: "object-bytes", getContentType: "text/plain"}

	node, err := NewStorageNode("node-1", map[string]any{"operation": "download", "bucket": "my-bucket", "key": "notes.txt"})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.client = fake

	out, err := node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{}),
	), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	binary, ok := out[0].Binary["data"]
	if !ok {
		t.Fatal("expected binary property 'data'")
	}

	decoded, _ := base64.StdEncoding.DecodeString(binary.Data)
	if string(decoded) != "object-bytes" {
		t.Errorf("unexpected downloaded body: %q", decoded)
	}

	if binary.MimeType != "text/plain" {
		t.Errorf("unexpected mime type: %s", binary.MimeType)
	}

	if binary.FileName != "notes.txt" {
		t.Errorf("unexpected file name: %s", binary.FileName)
	}
}

func TestStorageNode_Delete(t *testing.T) {
	fake := &fakeS3{}

	node, err := NewStorageNode("node-1", map[string]any{"operation": "delete", "bucket": "my-bucket", "key": "old.log"})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.client = fake

	out, err := node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{}),
	), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if fake.deleteInput == nil || *fake.deleteInput.Key != "old.log" {
		t.Fatalf("expected DeleteObject for old.log, got %v", fake.deleteInput)
	}

	if out[0].JSON["deleted"] != true {
		t.Errorf("expected deleted marker, got %v", out[0].JSON)
	}
}

func TestStorageNode_List(t *testing.T) {
	fake := &fakeS3{listKeys: []string{"a.txt", "b.txt"}}

	node, err := NewStorageNode("node-1", map[string]any{"operation": "list", "bucket": "my-bucket"})
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}

	node.client = fake

	out, err := node.Execute(context.Background(), testExecutionContext(
		models.NewItem(0, map[string]any{}),
	), log.Discard())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	objects, ok := out[0].JSON["objects"].([]map[string]any)
	if !ok || len(objects) != 2 {
		t.Fatalf("expected two objects, got %v", out[0].JSON["objects"])
	}

	if objects[0]["key"] != "a.txt" {
		t.Errorf("unexpected first key: %v", objects[0]["key"])
	}
}

func TestStorageNode_MissingKey(t *testing.T) {
	_, err := NewStorageNode("node-1", map[string]any{"bucket": "my-bucket"})
	if err == nil || !strings.Contains(err.Error(), "key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}
