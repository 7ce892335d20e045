package runtime

import "fmt"

// InvalidOperationError reports an operation the current state cannot accept.
// The state is left unchanged. Err is one of domain.ErrInvalidChoice,
// domain.ErrUnknownNode or domain.ErrTerminal.
type InvalidOperationError struct {
	Op     string
	NodeID string
	Err    error
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("%s rejected at node '%s': %v", e.Op, e.NodeID, e.Err)
}

func (e *InvalidOperationError) Unwrap() error {
	return e.Err
}
