package driver

import "fmt"

// DbError wraps any error surfaced by the connection layer, per spec.md §7. It is
// never retried by the core.
type DbError struct {
	Cause error
}

func (e *DbError) Error() string { return fmt.Sprintf("driver: database error: %v", e.Cause) }

func (e *DbError) Unwrap() error { return e.Cause }
