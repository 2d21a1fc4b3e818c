// Package config provides run-file loading for the CLI: a YAML document
// naming the node sequence, the credentials, and the seed items.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunFile is the structure of a workflow run file.
type RunFile struct {
	Credentials map[string]any   `yaml:"credentials"`
	Items       []map[string]any `yaml:"items"`
	Nodes       []NodeConfigFile `yaml:"nodes"`
}

// NodeConfigFile is one node step in the run file.
type NodeConfigFile struct {
	ID             string         `yaml:"id"`
	Type           string         `yaml:"type"`
	ContinueOnFail bool           `yaml:"continue_on_fail"`
	Configuration  map[string]any `yaml:"configuration"`
}

// LoadRunFile loads and validates a run file.
func LoadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file %s: %w", path, err)
	}

	var runFile RunFile
	if err := yaml.Unmarshal(data, &runFile); err != nil {
		return nil, fmt.Errorf("failed to parse run file: %w", err)
	}

	if len(runFile.Nodes) == 0 {
		return nil, fmt.Errorf("run file %s declares no nodes", path)
	}

	for i, node := range runFile.Nodes {
		if node.Type == "" {
			return nil, fmt.Errorf("node %d has no type", i)
		}

		if node.ID == "" {
			runFile.Nodes[i].ID = fmt.Sprintf("%s-%d", node.Type, i)
		}

		normalized, err := normalizeConfig(node.Configuration)
		if err != nil {
			return nil, fmt.Errorf("node %s has an invalid configuration: %w", runFile.Nodes[i].ID, err)
		}

		runFile.Nodes[i].Configuration = normalized
	}

	if runFile.Items == nil {
		// A run always starts from at least one (empty) item.
		runFile.Items = []map[string]any{{}}
	}

	return &runFile, nil
}

// normalizeConfig re-encodes a YAML-decoded configuration through JSON so
// node constructors see the same value types a JSON request body produces.
// YAML decodes integers as int, which the constructors' float64 asserts
// would silently skip.
func normalizeConfig(config map[string]any) (map[string]any, error) {
	if config == nil {
		return nil, nil
	}

	encoded, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}

	var normalized map[string]any
	if err := json.Unmarshal(encoded, &normalized); err != nil {
		return nil, err
	}

	return normalized, nil
}
