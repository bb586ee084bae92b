package audit

import "fmt"

// PersistenceError reports that a record could not be durably written or
// read. A decision whose append fails was computed but never committed.
type PersistenceError struct {
	Backend   string
	Operation string
	Cause     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("audit %s %s: %v", e.Backend, e.Operation, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}
