// Package vision talks to the external image scorer. Providers return a
// severity label and a confidence; every failure wraps ErrAssessmentUnavailable
// or sentinel.ErrTimeout so the evidence gatherer can degrade cleanly.
package vision

import (
	"errors"
	"fmt"

	"claimguard/internal/claims/models"
	"claimguard/pkg/platform/sentinel"
)

// ErrAssessmentUnavailable means the scorer could not produce an assessment.
var ErrAssessmentUnavailable = fmt.Errorf("assessment unavailable: %w", sentinel.ErrUnavailable)

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAssessmentUnavailable, fmt.Sprintf(format, args...))
}

func validate(a models.VisionAssessment) error {
	if !a.Severity.IsValid() {
		return unavailable("scorer returned unknown severity %q", a.Severity)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return unavailable("scorer returned confidence %v outside [0,1]", a.Confidence)
	}
	return nil
}

// IsUnavailable reports whether err is a provider availability failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, sentinel.ErrUnavailable)
}
