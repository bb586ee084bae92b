package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, indexes and publishers
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
//   - ErrNotFound: no record exists for the key
//   - ErrCorrupt: a stored record could not be decoded
//   - ErrUnavailable: backing service temporarily unavailable
//   - ErrClosed: the component was used after Close
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrCorrupt     = errors.New("corrupt record")
	ErrUnavailable = errors.New("unavailable")
	ErrClosed      = errors.New("closed")
)
