package models

// ExecutionContext carries everything the host hands a node for one run:
// the input items, the credential material, and the per-node execution
// policy. Credentials live only for the duration of the execution and are
// never persisted by this package.
type ExecutionContext struct {
	ID             string         `json:"id"`
	NodeID         string         `json:"node_id"`
	Items          []Item         `json:"items"`
	Credentials    map[string]any `json:"credentials,omitempty"`
	ContinueOnFail bool           `json:"continue_on_fail"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}
