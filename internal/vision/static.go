package vision

import (
	"context"
	"sync"

	"claimguard/internal/claims/models"
)

// Static answers from a fixed table. It backs local development and tests
// where no scorer is deployed.
type Static struct {
	mu       sync.RWMutex
	byImage  map[string]models.VisionAssessment
	fallback *models.VisionAssessment
}

// NewStatic creates a provider with an optional fallback for unknown images.
// Without a fallback, unknown images are unavailable.
func NewStatic(fallback *models.VisionAssessment) *Static {
	return &Static{byImage: make(map[string]models.VisionAssessment), fallback: fallback}
}

// Set registers the assessment returned for imageRef.
func (s *Static) Set(imageRef string, a models.VisionAssessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byImage[imageRef] = a
}

func (s *Static) Assess(ctx context.Context, imageRef string) (models.VisionAssessment, error) {
	if err := ctx.Err(); err != nil {
		return models.VisionAssessment{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.byImage[imageRef]; ok {
		return a, nil
	}
	if s.fallback != nil {
		return *s.fallback, nil
	}
	return models.VisionAssessment{}, unavailable("no assessment for %s", imageRef)
}
