package runner

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/flowhost/yandexcloud-nodes/pkg/yandex/auth"
)

// ValidationError marks a configuration or credential problem. Validation
// errors are always fatal, independent of continue-on-fail.
type ValidationError struct {
	Message string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a validation failure: an explicit
// ValidationError, a missing credential field, or a struct-tag validation
// failure.
func IsValidation(err error) bool {
	validationErr := &ValidationError{}
	if errors.As(err, &validationErr) {
		return true
	}

	fieldErr := &auth.FieldError{}
	if errors.As(err, &fieldErr) {
		return true
	}

	var structErr validator.ValidationErrors

	return errors.As(err, &structErr)
}

// NodeError is the uniform carrier for per-item remote failures: it records
// which node type failed and on which item.
type NodeError struct {
	NodeType  string
	ItemIndex int
	Err       error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s failed on item %d: %v", e.NodeType, e.ItemIndex, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
