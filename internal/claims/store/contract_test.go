package store_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/suite"

	"claimguard/internal/claims/models"
	"claimguard/internal/claims/store"
	"claimguard/pkg/platform/sentinel"
)

// claimStore is the surface both implementations share.
type claimStore interface {
	Create(ctx context.Context, claim *models.Claim) error
	Get(ctx context.Context, id string) (*models.Claim, error)
	Update(ctx context.Context, id string, mutate store.Mutator) (*models.Claim, error)
	List(ctx context.Context, filter models.ClaimFilter) iter.Seq2[models.ClaimSummary, error]
}

// storeContract holds the behaviour every claim store must honour. Concrete
// suites embed it and set store in SetupTest.
type storeContract struct {
	suite.Suite
	store claimStore
	base  time.Time
}

func (s *storeContract) newClaim(id string, offset time.Duration) *models.Claim {
	if s.base.IsZero() {
		s.base = time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	}
	created := s.base.Add(offset)
	return &models.Claim{
		ID:               id,
		PolicyNumber:     "66777",
		IncidentDate:     time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC),
		Location:         "Route 9",
		ClaimedAmount:    models.Dollars(12345),
		ReportedSeverity: models.SeverityMajor,
		CollisionType:    models.CollisionFrontEnd,
		VehicleCount:     2,
		Signals:          []models.ContextSignal{{Name: "speed", Observed: 44, Limit: 35, Unit: "mph"}},
		State:            models.StateSubmitted,
		AuditTrail: []models.AuditEntry{{
			ID: "a-" + id, ClaimID: id, Timestamp: created, Action: models.ActionSubmitted,
			NewState: models.StateSubmitted, Actor: models.Actor{ID: "adjuster-1", Role: "adjuster"},
		}},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (s *storeContract) collect(filter models.ClaimFilter) []string {
	var ids []string
	for summary, err := range s.store.List(context.Background(), filter) {
		s.Require().NoError(err)
		ids = append(ids, summary.ID)
	}
	return ids
}

func (s *storeContract) TestCreateAndGet() {
	ctx := context.Background()

	s.Run("round trips every field", func() {
		claim := s.newClaim("CLM-1", 0)
		s.Require().NoError(s.store.Create(ctx, claim))
		s.Equal(int64(1), claim.Version)

		got, err := s.store.Get(ctx, "CLM-1")
		s.Require().NoError(err)
		s.Equal(claim.PolicyNumber, got.PolicyNumber)
		s.Equal(claim.ClaimedAmount, got.ClaimedAmount)
		s.Equal(claim.Signals, got.Signals)
		s.Equal(claim.State, got.State)
		s.Len(got.AuditTrail, 1)
		s.Equal(int64(1), got.Version)
		s.True(claim.IncidentDate.Equal(got.IncidentDate))
	})

	s.Run("duplicate id", func() {
		err := s.store.Create(ctx, s.newClaim("CLM-1", time.Minute))
		s.ErrorIs(err, sentinel.ErrDuplicate)
	})

	s.Run("missing id", func() {
		_, err := s.store.Get(ctx, "CLM-404")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned claims are detached from storage", func() {
		got, err := s.store.Get(ctx, "CLM-1")
		s.Require().NoError(err)
		got.AuditTrail[0].Action = models.ActionRejected
		again, err := s.store.Get(ctx, "CLM-1")
		s.Require().NoError(err)
		s.Equal(models.ActionSubmitted, again.AuditTrail[0].Action)
	})
}

func (s *storeContract) TestUpdate() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newClaim("CLM-2", 0)))

	s.Run("commits mutation and bumps version", func() {
		updated, err := s.store.Update(ctx, "CLM-2", func(c *models.Claim) error {
			c.State = models.StateUnderReview
			c.Reports = append(c.Reports, models.RuleReport{ID: "r1", RiskScore: 20, Verdict: models.VerdictApprove})
			return nil
		})
		s.Require().NoError(err)
		s.Equal(int64(2), updated.Version)

		got, err := s.store.Get(ctx, "CLM-2")
		s.Require().NoError(err)
		s.Equal(models.StateUnderReview, got.State)
		s.Equal(int64(2), got.Version)
		s.Require().Len(got.Reports, 1)
		s.Equal("r1", got.Reports[0].ID)
	})

	s.Run("mutator error aborts without writing", func() {
		boom := errors.New("boom")
		_, err := s.store.Update(ctx, "CLM-2", func(c *models.Claim) error {
			c.State = models.StateRejected
			return boom
		})
		s.ErrorIs(err, boom)
		got, _ := s.store.Get(ctx, "CLM-2")
		s.Equal(models.StateUnderReview, got.State)
		s.Equal(int64(2), got.Version)
	})

	s.Run("missing claim", func() {
		_, err := s.store.Update(ctx, "CLM-404", func(*models.Claim) error { return nil })
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentUpdateSameVersion holds both mutators until each has read the
// same version, so exactly one commit can win.
func (s *storeContract) TestConcurrentUpdateSameVersion() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newClaim("CLM-3", 0)))

	var (
		ready     sync.WaitGroup
		release   = make(chan struct{})
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	ready.Add(2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Update(ctx, "CLM-3", func(c *models.Claim) error {
				ready.Done()
				<-release
				c.Description = fmt.Sprintf("writer %d", i)
				return nil
			})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	ready.Wait()
	close(release)
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(1), conflicts.Load())
	got, err := s.store.Get(ctx, "CLM-3")
	s.Require().NoError(err)
	s.Equal(int64(2), got.Version)
}

func (s *storeContract) TestList() {
	ctx := context.Background()
	first := s.newClaim("CLM-10", 0)
	second := s.newClaim("CLM-11", time.Minute)
	second.ReportedSeverity = models.SeverityMinor
	second.PolicyNumber = "12345"
	third := s.newClaim("CLM-12", 2*time.Minute)
	third.IncidentDate = time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)
	for _, c := range []*models.Claim{first, second, third} {
		s.Require().NoError(s.store.Create(ctx, c))
	}
	_, err := s.store.Update(ctx, "CLM-12", func(c *models.Claim) error {
		c.State = models.StateUnderReview
		c.Reports = []models.RuleReport{{ID: "r", RiskScore: 60, Verdict: models.VerdictReview}}
		return nil
	})
	s.Require().NoError(err)

	s.Run("newest first", func() {
		s.Equal([]string{"CLM-12", "CLM-11", "CLM-10"}, s.collect(models.ClaimFilter{}))
	})

	s.Run("state filter", func() {
		s.Equal([]string{"CLM-12"}, s.collect(models.ClaimFilter{States: []models.State{models.StateUnderReview}}))
	})

	s.Run("severity filter", func() {
		s.Equal([]string{"CLM-11"}, s.collect(models.ClaimFilter{Severities: []models.Severity{models.SeverityMinor}}))
	})

	s.Run("incident date range", func() {
		ids := s.collect(models.ClaimFilter{IncidentFrom: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)})
		s.Equal([]string{"CLM-12"}, ids)
	})

	s.Run("fuzzy policy search", func() {
		s.Equal([]string{"CLM-11"}, s.collect(models.ClaimFilter{Search: "12346"}))
	})

	s.Run("limit", func() {
		s.Equal([]string{"CLM-12", "CLM-11"}, s.collect(models.ClaimFilter{Limit: 2}))
	})

	s.Run("summary carries latest verdict", func() {
		for summary, err := range s.store.List(ctx, models.ClaimFilter{States: []models.State{models.StateUnderReview}}) {
			s.Require().NoError(err)
			s.Require().NotNil(summary.RiskScore)
			s.Equal(60, *summary.RiskScore)
			s.Equal(models.VerdictReview, summary.Verdict)
		}
	})

	s.Run("consumer may stop early", func() {
		n := 0
		for range s.store.List(ctx, models.ClaimFilter{}) {
			n++
			break
		}
		s.Equal(1, n)
	})
}
