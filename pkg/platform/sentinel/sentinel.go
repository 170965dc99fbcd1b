package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and external adapters return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist in the store or directory
//   - ErrDuplicate: a record with the same key already exists
//   - ErrConflict: the record changed since it was read (version mismatch)
//   - ErrUnavailable: collaborator temporarily unavailable
//   - ErrTimeout: collaborator did not answer within the caller's deadline
//
// Validation failures use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("duplicate")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrTimeout     = errors.New("timeout")
)
