package service

import (
	"errors"

	dErrors "claimguard/pkg/domain-errors"
	"claimguard/pkg/platform/sentinel"
)

// errStaleSnapshot aborts an update whose report was computed from a claim
// version that is no longer current.
var errStaleSnapshot = errors.New("claim changed while evaluating")

// translate maps store facts onto caller-facing codes. Errors that already
// carry a domain code pass through.
func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "claim not found")
	case errors.Is(err, sentinel.ErrDuplicate):
		return dErrors.New(dErrors.CodeDuplicateID, "claim id already exists")
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, errStaleSnapshot):
		return dErrors.New(dErrors.CodeConflict, "claim was modified concurrently")
	case errors.Is(err, sentinel.ErrTimeout):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func isRetryable(err error) bool {
	return errors.Is(err, sentinel.ErrConflict) || errors.Is(err, errStaleSnapshot)
}
