package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flowhost/yandexcloud-nodes/pkg/config"
	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/registry"
)

// runWorkflow executes the run file's node sequence: each node's output items
// become the next node's input.
func runWorkflow(ctx context.Context, logger *slog.Logger, r *registry.Registry, path string) error {
	runFile, err := config.LoadRunFile(path)
	if err != nil {
		return err
	}

	executionID := uuid.NewString()
	logger = logger.With("execution_id", executionID)

	items := make([]models.Item, 0, len(runFile.Items))
	for i, payload := range runFile.Items {
		items = append(items, models.NewItem(i, payload))
	}

	for _, nodeConfig := range runFile.Nodes {
		node, err := r.CreateNode(ctx, nodeConfig.Type, nodeConfig.ID, nodeConfig.Configuration)
		if err != nil {
			return fmt.Errorf("failed to create node %s: %w", nodeConfig.ID, err)
		}

		logger.InfoContext(ctx, "Running node", "node_id", nodeConfig.ID, "node_type", nodeConfig.Type, "items_in", len(items))

		items, err = node.Execute(ctx, models.ExecutionContext{
			ID:             executionID,
			NodeID:         nodeConfig.ID,
			Items:          items,
			Credentials:    runFile.Credentials,
			ContinueOnFail: nodeConfig.ContinueOnFail,
		}, logger)
		if err != nil {
			return fmt.Errorf("node %s failed: %w", nodeConfig.ID, err)
		}
	}

	encoded, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(encoded))

	return nil
}
