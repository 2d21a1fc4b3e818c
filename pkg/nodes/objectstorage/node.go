// Package objectstorage provides the Yandex Object Storage node, speaking
// the S3-compatible API with a static access key.
package objectstorage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/runner"
	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
)

const (
	defaultEndpoint = "https://storage.yandexcloud.net"
	defaultRegion   = "ru-central1"
)

// StorageConfig defines the configuration for the Object Storage node.
type StorageConfig struct {
	Operation      string `json:"operation"`
	Bucket         string `json:"bucket"`
	Key            string `json:"key"`
	Prefix         string `json:"prefix"`
	BinaryProperty string `json:"binaryProperty"`
}

// StorageNode uploads, downloads, deletes, and lists bucket objects. Binary
// payloads ride the item's binary parts, base64 encoded.
type StorageNode struct {
	id     string
	config StorageConfig

	client s3iface.S3API
}

func NewStorageNode(id string, config map[string]any) (*StorageNode, error) {
	cfg := StorageConfig{
		Operation:      "upload",
		BinaryProperty: "data",
	}

	if operation, ok := config["operation"].(string); ok && operation != "" {
		cfg.Operation = operation
	}

	if bucket, ok := config["bucket"].(string); ok {
		cfg.Bucket = bucket
	}

	if key, ok := config["key"].(string); ok {
		cfg.Key = key
	}

	if prefix, ok := config["prefix"].(string); ok {
		cfg.Prefix = prefix
	}

	if binaryProperty, ok := config["binaryProperty"].(string); ok && binaryProperty != "" {
		cfg.BinaryProperty = binaryProperty
	}

	if cfg.Bucket == "" {
		return nil, errors.New("missing required field 'bucket'")
	}

	switch cfg.Operation {
	case "upload", "download", "delete":
		if cfg.Key == "" {
			return nil, errors.New("missing required field 'key'")
		}
	case "list":
	default:
		return nil, fmt.Errorf("unknown operation: %s", cfg.Operation)
	}

	return &StorageNode{id: id, config: cfg}, nil
}

func (n *StorageNode) ID() string {
	return n.id
}

func (n *StorageNode) Type() string {
	return "yandexObjectStorage"
}

type itemHandler func(ctx context.Context, client s3iface.S3API, item models.Item) (models.Item, error)

func (n *StorageNode) Execute(ctx context.Context, ectx models.ExecutionContext, logger *slog.Logger) ([]models.Item, error) {
	key, err := auth.StaticKeyFromCredentials(ectx.Credentials)
	if err != nil {
		return nil, err
	}

	client := n.client
	if client == nil {
		client, err = newS3Client(key)
		if err != nil {
			return nil, err
		}
	}

	handlers := map[string]itemHandler{
		"upload":   n.upload,
		"download": n.download,
		"delete":   n.delete,
		"list":     n.list,
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

func newS3Client(key *auth.StaticKey) (s3iface.S3API, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(defaultRegion),
		Endpoint:         aws.String(defaultEndpoint),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials(key.AccessKeyID, key.SecretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return s3.New(sess), nil
}

func (n *StorageNode) upload(ctx context.Context, client s3iface.S3API, item models.Item) (models.Item, error) {
	binary, ok := item.Binary[n.config.BinaryProperty]
	if !ok {
		return models.Item{}, runner.NewValidationError("item has no binary property %q to upload", n.config.BinaryProperty)
	}

	payload, err := base64.StdEncoding.DecodeString(binary.Data)
	if err != nil {
		return models.Item{}, fmt.Errorf("storage.upload: binary property %q is not valid base64: %w", n.config.BinaryProperty, err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(n.config.Bucket),
		Key:    aws.String(n.config.Key),
		Body:   bytes.NewReader(payload),
	}

	if binary.MimeType != "" {
		input.ContentType = aws.String(binary.MimeType)
	}

	if _, err := client.PutObjectWithContext(ctx, input); err != nil {
		return models.Item{}, fmt.Errorf("storage.upload: %w", err)
	}

	return models.Item{JSON: map[string]any{
		"bucket": n.config.Bucket,
		"key":    n.config.Key,
		"size":   len(payload),
	}}, nil
}

func (n *StorageNode) download(ctx context.Context, client s3iface.S3API, _ models.Item) (models.Item, error) {
	output, err := client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(n.config.Bucket),
		Key:    aws.String(n.config.Key),
	})
	if err != nil {
		return models.Item{}, fmt.Errorf("storage.download: %w", err)
	}
	defer output.Body.Close()

	payload, err := io.ReadAll(output.Body)
	if err != nil {
		return models.Item{}, fmt.Errorf("storage.download: failed to read object body: %w", err)
	}

	binary := models.BinaryData{
		Data:     base64.StdEncoding.EncodeToString(payload),
		FileName: n.config.Key,
	}

	if output.ContentType != nil {
		binary.MimeType = *output.ContentType
	}

	return models.Item{
		JSON: map[string]any{
			"bucket": n.config.Bucket,
			"key":    n.config.Key,
			"size":   len(payload),
		},
		Binary: map[string]models.BinaryData{n.config.BinaryProperty: binary},
	}, nil
}

func (n *StorageNode) delete(ctx context.Context, client s3iface.S3API, _ models.Item) (models.Item, error) {
	_, err := client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(n.config.Bucket),
		Key:    aws.String(n.config.Key),
	})
	if err != nil {
		return models.Item{}, fmt.Errorf("storage.delete: %w", err)
	}

	return models.Item{JSON: map[string]any{
		"bucket":  n.config.Bucket,
		"key":     n.config.Key,
		"deleted": true,
	}}, nil
}

func (n *StorageNode) list(ctx context.Context, client s3iface.S3API, _ models.Item) (models.Item, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(n.config.Bucket),
	}

	if n.config.Prefix != "" {
		input.Prefix = aws.String(n.config.Prefix)
	}

	output, err := client.ListObjectsV2WithContext(ctx, input)
	if err != nil {
		return models.Item{}, fmt.Errorf("storage.list: %w", err)
	}

	objects := make([]map[string]any, 0, len(output.Contents))

	for _, object := range output.Contents {
		entry := map[string]any{}
		if object.Key != nil {
			entry["key"] = *object.Key
		}

		if object.Size != nil {
			entry["size"] = *object.Size
		}

		if object.LastModified != nil {
			entry["lastModified"] = object.LastModified.UTC()
		}

		objects = append(objects, entry)
	}

	return models.Item{JSON: map[string]any{
		"bucket":  n.config.Bucket,
		"objects": objects,
	}}, nil
}
