// Package registry holds the node factories and creates node instances from
// configuration maps.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowhost/yandexcloud-nodes/pkg/models"
	"github.com/flowhost/yandexcloud-nodes/pkg/protocol"
)

type Registry struct {
	logger        *slog.Logger
	nodeFactories map[string]protocol.NodeFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:        logger,
		nodeFactories: make(map[string]protocol.NodeFactory),
	}
}

func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.nodeFactories[factory.ID()] = factory
}

// CreateNode validates config against the factory's schema and creates the
// node instance.
func (r *Registry) CreateNode(ctx context.Context, nodeType, id string, config map[string]any) (protocol.Node, error) {
	factory, ok := r.nodeFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	if err := r.ValidateConfig(nodeType, config); err != nil {
		return nil, err
	}

	return factory.Create(ctx, id, config)
}

// ValidateConfig checks a configuration map against the node type's declared
// JSON schema.
func (r *Registry) ValidateConfig(nodeType string, config map[string]any) error {
	factory, ok := r.nodeFactories[nodeType]
	if !ok {
		return fmt.Errorf("node type '%s' not registered", nodeType)
	}

	schemaJSON, err := json.Marshal(factory.Schema())
	if err != nil {
		return fmt.Errorf("failed to encode schema for '%s': %w", nodeType, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate configuration for '%s': %w", nodeType, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, description := range result.Errors() {
			details = append(details, description.String())
		}

		return &InvalidConfigError{NodeType: nodeType, Details: details}
	}

	return nil
}

// InvalidConfigError reports a configuration rejected by the node type's
// schema, as opposed to a failure of the validation machinery itself.
type InvalidConfigError struct {
	NodeType string
	Details  []string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for '%s': %s", e.NodeType, strings.Join(e.Details, "; "))
}

// GetAvailableNodes returns the metadata of every registered node type,
// sorted by type for stable listings.
func (r *Registry) GetAvailableNodes() []models.RegisteredComponent {
	components := make([]models.RegisteredComponent, 0, len(r.nodeFactories))

	for _, factory := range r.nodeFactories {
		components = append(components, models.RegisteredComponent{
			Type:        factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i].Type < components[j].Type
	})

	return components
}

// GetNodeSchema returns the JSON schema for one node type.
func (r *Registry) GetNodeSchema(nodeType string) (map[string]any, error) {
	factory, ok := r.nodeFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	return factory.Schema(), nil
}
