package web

import "github.com/flowhost/yandexcloud-nodes/pkg/models"

// ValidateRequest is the body of POST /nodes/:type/validate.
type ValidateRequest struct {
	Config map[string]any `json:"config" validate:"required"`
}

// ValidateResponse reports the outcome of a config validation.
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ExecuteRequest is the body of POST /nodes/:type/execute. Credentials are
// used for this one execution and never stored.
type ExecuteRequest struct {
	NodeID         string         `json:"node_id"`
	Config         map[string]any `json:"config"      validate:"required"`
	Items          []models.Item  `json:"items"       validate:"required,min=1"`
	Credentials    map[string]any `json:"credentials"`
	ContinueOnFail bool           `json:"continue_on_fail"`
}

// ExecuteResponse carries the output items of one node execution.
type ExecuteResponse struct {
	ExecutionID string        `json:"execution_id"`
	Items       []models.Item `json:"items"`
}
