package server

import "fmt"

// BindError reports that the listening endpoint could not be bound. It is
// fatal at startup: the port is in use, privileged, or otherwise invalid.
type BindError struct {
	Port int
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind port %d: %v", e.Port, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
