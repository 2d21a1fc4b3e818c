// Package protocol defines the interfaces and contracts for pluggable nodes.
package protocol

import (
	"context"
	"log/slog"

	"github.com/flowhost/yandexcloud-nodes/pkg/models"
)

// Node is a single workflow step. Execute processes the items in the
// execution context sequentially, in input order, and returns one output
// item per processed input item.
type Node interface {
	// ID returns the node instance identifier.
	ID() string

	// Type returns the node type identifier (matches its factory's ID).
	Type() string

	// Execute runs the node against the execution context.
	Execute(ctx context.Context, ectx models.ExecutionContext, logger *slog.Logger) ([]models.Item, error)
}

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new node instance with the given configuration.
	Create(ctx context.Context, id string, config map[string]any) (Node, error)

	// ID returns the unique identifier for this node type.
	ID() string

	// Name returns the human-readable name for this node type.
	Name() string

	// Description returns a description of what this node does.
	Description() string

	// Schema returns the JSON schema for configuring this node.
	Schema() map[string]any
}
