package api

import "fmt"

// Error is the uniform carrier for remote API failures. Op names the
// operation that failed; the item index is attached by the runner when the
// failure happens inside a per-item loop.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: API returned status %d: %s", e.Op, e.StatusCode, e.Message)
}
