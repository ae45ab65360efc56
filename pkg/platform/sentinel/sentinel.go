package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and clients return these
// (optionally wrapped) so the write fallback chain and services can classify
// failures without string matching.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrPermissionDenied: the store rejected the write on authorization grounds
// - ErrUnavailable: store or remote service temporarily unreachable
// - ErrInvalidState: record in wrong state for the requested transition
// - ErrConflict: concurrent write lost, or duplicate insert
//
// For validation errors (bad input, malformed fields), use pkg/domain-errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnavailable      = errors.New("unavailable")
	ErrInvalidState     = errors.New("invalid state")
	ErrConflict         = errors.New("conflict")
)
