package models

// RegisteredComponent describes a node type registered in the system, as
// exposed by the catalog API and CLI.
type RegisteredComponent struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}
