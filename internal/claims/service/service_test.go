package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks PolicyDirectory,AuditSink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"claimguard/internal/claims/metrics"
	"claimguard/internal/claims/models"
	"claimguard/internal/claims/service/mocks"
	"claimguard/internal/claims/store"
	"claimguard/internal/decision"
	"claimguard/internal/policy"
	"claimguard/internal/rules"
	"claimguard/internal/vision"
	dErrors "claimguard/pkg/domain-errors"
	"claimguard/pkg/platform/sentinel"
	"claimguard/pkg/requestcontext"
)

// =============================================================================
// Lifecycle Test Suite
// =============================================================================
// Justification for unit tests: the lifecycle manager owns every state change.
// The suite drives a real engine, gatherer and in-memory store so verdicts
// come from the registered rules, and mocks only the audit sink boundary.

var (
	reviewer   = models.Actor{ID: "adjuster-7", Role: "adjuster"}
	supervisor = models.Actor{ID: "sup-1", Role: "supervisor"}
)

type LifecycleSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	sink     *mocks.MockAuditSink
	store    *flakyStore
	policies *policy.InMemoryDirectory
	vision   *vision.Static
	service  *Service
	ctx      context.Context
	now      time.Time

	mu        sync.Mutex
	forwarded []models.AuditEntry
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sink = mocks.NewMockAuditSink(s.ctrl)
	s.forwarded = nil
	s.sink.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e models.AuditEntry) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.forwarded = append(s.forwarded, e)
			return nil
		}).AnyTimes()

	s.now = time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), s.now), "req-1")

	s.store = &flakyStore{InMemoryStore: store.NewInMemory()}
	s.policies = policy.NewInMemory(models.PolicyRecord{
		Number:        "66777",
		CoverageLimit: models.Dollars(50000),
		Status:        models.PolicyActive,
		ValidFrom:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:       time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	s.vision = vision.NewStatic(nil)
	s.vision.Set("img/major.jpg", models.VisionAssessment{Severity: models.SeverityMajor, Confidence: 0.98})

	s.service = s.newService(DefaultConfig())
}

func (s *LifecycleSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *LifecycleSuite) newService(cfg Config, opts ...Option) *Service {
	registered, err := rules.DefaultConfig().Build()
	s.Require().NoError(err)
	engine, err := decision.NewEngine(registered)
	s.Require().NoError(err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gatherer := decision.NewGatherer(s.policies, s.vision, decision.WithGathererLogger(logger))

	seq := 0
	base := []Option{
		WithConfig(cfg),
		WithLogger(logger),
		WithAuditSink(s.sink),
		WithMetrics(metrics.NewWith(prometheus.NewRegistry())),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
	}
	return New(s.store, engine, gatherer, s.policies, append(base, opts...)...)
}

// approvable passes every rule.
func approvable() models.SubmitRequest {
	return models.SubmitRequest{ClaimInput: models.ClaimInput{
		PolicyNumber:     "66777",
		IncidentDate:     time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC),
		Location:         "I-80 exit 12",
		ClaimedAmount:    models.Dollars(12345),
		ReportedSeverity: models.SeverityMajor,
		CollisionType:    models.CollisionFrontEnd,
		VehicleCount:     2,
		ImageRef:         "img/major.jpg",
	}}
}

// reviewable fails the amount check only.
func reviewable() models.SubmitRequest {
	req := approvable()
	req.ClaimedAmount = models.Dollars(80000)
	return req
}

// rejectable falls outside the policy window.
func rejectable() models.SubmitRequest {
	req := approvable()
	req.IncidentDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return req
}

func (s *LifecycleSuite) submit(req models.SubmitRequest) *models.Claim {
	claim, err := s.service.Submit(s.ctx, req, reviewer)
	s.Require().NoError(err)
	return claim
}

func (s *LifecycleSuite) requireCode(err error, code dErrors.Code) {
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

// requireConsistentTrail checks that the audit trail replays to the claim's state.
func (s *LifecycleSuite) requireConsistentTrail(c *models.Claim) {
	s.Require().NotEmpty(c.AuditTrail)
	s.Equal(models.ActionSubmitted, c.AuditTrail[0].Action)
	s.Empty(c.AuditTrail[0].PriorState)
	for i := 1; i < len(c.AuditTrail); i++ {
		s.Equal(c.AuditTrail[i-1].NewState, c.AuditTrail[i].PriorState, "entry %d", i)
		s.Equal(c.ID, c.AuditTrail[i].ClaimID)
	}
	s.Equal(c.State, c.AuditTrail[len(c.AuditTrail)-1].NewState)
}

// =============================================================================
// Submit
// =============================================================================

func (s *LifecycleSuite) TestSubmit() {
	s.Run("clean claim is auto-approved", func() {
		claim := s.submit(approvable())

		s.Equal(models.StateApproved, claim.State)
		s.Require().Len(claim.Reports, 1)
		s.Equal(models.VerdictApprove, claim.LatestReport().Verdict)
		s.Equal("CLM-id-001", claim.ID)
		s.Equal([]models.Action{models.ActionSubmitted, models.ActionEvaluated, models.ActionApproved}, actions(claim))
		s.Equal(models.SystemActor, claim.AuditTrail[2].Actor)
		s.Equal(claim.LatestReport().ID, claim.AuditTrail[2].ReportID)
		s.Equal("req-1", claim.AuditTrail[0].RequestID)
		s.requireConsistentTrail(claim)
	})

	s.Run("failing soft rule waits for review", func() {
		claim := s.submit(reviewable())
		s.Equal(models.StateUnderReview, claim.State)
		s.Equal(models.VerdictReview, claim.LatestReport().Verdict)
	})

	s.Run("hard rule failure is auto-rejected", func() {
		claim := s.submit(rejectable())
		s.Equal(models.StateRejected, claim.State)
		s.Equal(models.VerdictReject, claim.LatestReport().Verdict)
	})

	s.Run("caller supplied id is kept", func() {
		req := approvable()
		req.ID = "CLM-8821"
		claim := s.submit(req)
		s.Equal("CLM-8821", claim.ID)

		_, err := s.service.Submit(s.ctx, req, reviewer)
		s.requireCode(err, dErrors.CodeDuplicateID)
	})

	s.Run("unknown policy is refused", func() {
		req := approvable()
		req.PolicyNumber = "00000"
		_, err := s.service.Submit(s.ctx, req, reviewer)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("invalid input", func() {
		req := approvable()
		req.VehicleCount = 0
		_, err := s.service.Submit(s.ctx, req, reviewer)
		s.requireCode(err, dErrors.CodeValidation)

		req = approvable()
		req.IncidentDate = s.now.Add(72 * time.Hour)
		_, err = s.service.Submit(s.ctx, req, reviewer)
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("actor required", func() {
		_, err := s.service.Submit(s.ctx, approvable(), models.Actor{})
		s.requireCode(err, dErrors.CodeUnauthorized)
	})

	s.Run("unreachable directory does not block intake", func() {
		dir := mocks.NewMockPolicyDirectory(s.ctrl)
		dir.EXPECT().Lookup(gomock.Any(), "66777").Return(models.PolicyRecord{}, sentinel.ErrUnavailable)
		svc := s.newService(DefaultConfig())
		svc.policies = dir

		claim, err := svc.Submit(s.ctx, approvable(), reviewer)
		s.Require().NoError(err)
		s.NotEmpty(claim.Reports)
	})

	s.Run("without auto-disposition every verdict waits", func() {
		cfg := DefaultConfig()
		cfg.AutoDisposition = false
		svc := s.newService(cfg)

		claim, err := svc.Submit(s.ctx, approvable(), reviewer)
		s.Require().NoError(err)
		s.Equal(models.StateUnderReview, claim.State)
		s.Equal(models.VerdictApprove, claim.LatestReport().Verdict)
	})
}

func (s *LifecycleSuite) TestSubmitDegradedEvidence() {
	req := approvable()
	req.ImageRef = ""
	claim := s.submit(req)

	report := claim.LatestReport()
	s.Require().NotNil(report)
	s.Contains(report.Degraded, models.SignalNoEvidenceImage)
	s.Equal(models.VerdictApprove, report.Verdict, "one warn alone does not force review")
	s.Equal(report.Degraded, claim.AuditTrail[1].Degraded)
}

// =============================================================================
// Evaluate
// =============================================================================

func (s *LifecycleSuite) TestEvaluate() {
	s.Run("reevaluating under review appends a report", func() {
		claim := s.submit(reviewable())

		again, err := s.service.Evaluate(s.ctx, claim.ID, reviewer)
		s.Require().NoError(err)
		s.Equal(models.StateUnderReview, again.State)
		s.Len(again.Reports, 2)
		s.Equal(models.ActionReevaluated, again.AuditTrail[len(again.AuditTrail)-1].Action)
		s.Equal(claim.Version+1, again.Version)
	})

	s.Run("disposed claims cannot be evaluated", func() {
		claim := s.submit(approvable())
		_, err := s.service.Evaluate(s.ctx, claim.ID, reviewer)
		s.requireCode(err, dErrors.CodeInvalidTransition)
	})

	s.Run("missing claim", func() {
		_, err := s.service.Evaluate(s.ctx, "CLM-missing", reviewer)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("version conflicts are retried", func() {
		claim := s.submit(reviewable())
		s.store.failNext(2)

		again, err := s.service.Evaluate(s.ctx, claim.ID, reviewer)
		s.Require().NoError(err)
		s.Len(again.Reports, 2)
	})

	s.Run("retries are bounded", func() {
		claim := s.submit(reviewable())
		s.store.failNext(DefaultConfig().MaxConflictRetries + 1)

		_, err := s.service.Evaluate(s.ctx, claim.ID, reviewer)
		s.requireCode(err, dErrors.CodeConflict)

		stored, err := s.service.Get(s.ctx, claim.ID)
		s.Require().NoError(err)
		s.Len(stored.Reports, 1, "no partial report is attached")
	})
}

// =============================================================================
// Reviewer transitions
// =============================================================================

func (s *LifecycleSuite) TestTransition() {
	s.Run("action must agree with the verdict", func() {
		claim := s.submit(reviewable())

		_, err := s.service.Approve(s.ctx, claim.ID, models.TransitionRequest{Actor: reviewer})
		s.requireCode(err, dErrors.CodeInvalidTransition)
	})

	s.Run("override records the justification", func() {
		claim := s.submit(reviewable())

		approved, err := s.service.Approve(s.ctx, claim.ID, models.TransitionRequest{
			Actor:    supervisor,
			Override: &models.OverrideRequest{Justification: "  repair invoice verified  "},
		})
		s.Require().NoError(err)
		s.Equal(models.StateApproved, approved.State)

		last := approved.AuditTrail[len(approved.AuditTrail)-1]
		s.Require().NotNil(last.Override)
		s.Equal("repair invoice verified", last.Override.Justification)
		s.Equal(supervisor, last.Override.Actor)
		s.Equal(models.StateUnderReview, last.PriorState)
		s.Equal(approved.LatestReport().ID, last.ReportID)
		s.requireConsistentTrail(approved)
	})

	s.Run("override needs an authorized role", func() {
		claim := s.submit(reviewable())
		_, err := s.service.Reject(s.ctx, claim.ID, models.TransitionRequest{
			Actor:    reviewer,
			Override: &models.OverrideRequest{Justification: "looks off"},
		})
		s.requireCode(err, dErrors.CodeForbidden)
	})

	s.Run("override needs a justification", func() {
		claim := s.submit(reviewable())
		_, err := s.service.Reject(s.ctx, claim.ID, models.TransitionRequest{
			Actor:    supervisor,
			Override: &models.OverrideRequest{Justification: "   "},
		})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("disposed claims stay disposed", func() {
		claim := s.submit(approvable())
		_, err := s.service.Reject(s.ctx, claim.ID, models.TransitionRequest{
			Actor:    supervisor,
			Override: &models.OverrideRequest{Justification: "second thoughts"},
		})
		s.requireCode(err, dErrors.CodeInvalidTransition)
	})

	s.Run("stale expected version conflicts without retry", func() {
		claim := s.submit(reviewable())
		stale := claim.Version - 1
		_, err := s.service.Reject(s.ctx, claim.ID, models.TransitionRequest{
			Actor:           supervisor,
			Override:        &models.OverrideRequest{Justification: "fraud ring"},
			ExpectedVersion: &stale,
		})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("matching verdict needs no override", func() {
		cfg := DefaultConfig()
		cfg.AutoDisposition = false
		svc := s.newService(cfg)
		claim, err := svc.Submit(s.ctx, approvable(), reviewer)
		s.Require().NoError(err)

		version := claim.Version
		approved, err := svc.Approve(s.ctx, claim.ID, models.TransitionRequest{Actor: reviewer, ExpectedVersion: &version})
		s.Require().NoError(err)
		s.Equal(models.StateApproved, approved.State)
		s.Nil(approved.AuditTrail[len(approved.AuditTrail)-1].Override)
	})

	s.Run("unsupported action", func() {
		claim := s.submit(reviewable())
		_, err := s.service.Transition(s.ctx, claim.ID, models.TransitionRequest{Action: models.ActionCorrected, Actor: reviewer})
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *LifecycleSuite) TestOverrideFromSubmitted() {
	cfg := DefaultConfig()
	svc := s.newService(cfg)
	claim, err := models.NewClaim("CLM-raw", approvable().ClaimInput, s.now)
	s.Require().NoError(err)
	claim.RecordIntake(models.AuditEntry{ID: "intake", Timestamp: s.now, Action: models.ActionSubmitted, Actor: reviewer})
	s.Require().NoError(s.store.Create(s.ctx, claim))

	_, err = svc.Approve(s.ctx, claim.ID, models.TransitionRequest{Actor: reviewer})
	s.requireCode(err, dErrors.CodeInvalidTransition)

	rejected, err := svc.Reject(s.ctx, claim.ID, models.TransitionRequest{
		Actor:    supervisor,
		Override: &models.OverrideRequest{Justification: "duplicate of CLM-8821"},
	})
	s.Require().NoError(err)
	s.Equal(models.StateRejected, rejected.State)
	s.Empty(rejected.AuditTrail[len(rejected.AuditTrail)-1].ReportID)
}

// =============================================================================
// Corrections
// =============================================================================

func (s *LifecycleSuite) TestCorrect() {
	s.Run("correcting under review re-evaluates", func() {
		claim := s.submit(reviewable())
		amount := models.Dollars(20000)

		corrected, err := s.service.Correct(s.ctx, claim.ID, models.CorrectionRequest{
			Correction: models.Correction{ClaimedAmount: &amount},
			Actor:      reviewer,
		})
		s.Require().NoError(err)
		s.Equal(amount, corrected.ClaimedAmount)
		s.Equal(models.StateApproved, corrected.State)
		s.Len(corrected.Reports, 2)
		s.Equal([]models.Action{
			models.ActionSubmitted, models.ActionEvaluated, models.ActionCorrected,
			models.ActionReevaluated, models.ActionApproved,
		}, actions(corrected))
		s.requireConsistentTrail(corrected)
	})

	s.Run("reopening a disposed claim needs an override role", func() {
		claim := s.submit(rejectable())
		date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		req := models.CorrectionRequest{
			Correction:    models.Correction{IncidentDate: &date},
			Actor:         reviewer,
			Justification: "wrong incident date on intake",
		}

		_, err := s.service.Correct(s.ctx, claim.ID, req)
		s.requireCode(err, dErrors.CodeForbidden)

		req.Actor = supervisor
		req.Justification = ""
		_, err = s.service.Correct(s.ctx, claim.ID, req)
		s.requireCode(err, dErrors.CodeValidation)

		req.Justification = "wrong incident date on intake"
		reopened, err := s.service.Correct(s.ctx, claim.ID, req)
		s.Require().NoError(err)
		s.Equal(models.StateApproved, reopened.State)

		var corrected *models.AuditEntry
		for i := range reopened.AuditTrail {
			if reopened.AuditTrail[i].Action == models.ActionCorrected {
				corrected = &reopened.AuditTrail[i]
			}
		}
		s.Require().NotNil(corrected)
		s.Equal(models.StateRejected, corrected.PriorState)
		s.Require().NotNil(corrected.Override)
		s.requireConsistentTrail(reopened)
	})

	s.Run("new policy number must exist", func() {
		claim := s.submit(reviewable())
		number := "00000"
		_, err := s.service.Correct(s.ctx, claim.ID, models.CorrectionRequest{
			Correction: models.Correction{PolicyNumber: &number},
			Actor:      reviewer,
		})
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("invalid correction leaves the claim untouched", func() {
		claim := s.submit(reviewable())
		count := 0
		_, err := s.service.Correct(s.ctx, claim.ID, models.CorrectionRequest{
			Correction: models.Correction{VehicleCount: &count},
			Actor:      reviewer,
		})
		s.requireCode(err, dErrors.CodeValidation)

		stored, err := s.service.Get(s.ctx, claim.ID)
		s.Require().NoError(err)
		s.Equal(claim.Version, stored.Version)
		s.Equal(2, stored.VehicleCount)
	})

	s.Run("failed commit keeps the prior data and report", func() {
		claim := s.submit(approvable())
		s.Require().Equal(models.StateApproved, claim.State)
		amount := models.Dollars(80000)
		req := models.CorrectionRequest{
			Correction:    models.Correction{ClaimedAmount: &amount},
			Actor:         supervisor,
			Justification: "amount keyed without the tow invoice",
		}

		s.store.failNext(DefaultConfig().MaxConflictRetries + 1)
		_, err := s.service.Correct(s.ctx, claim.ID, req)
		s.requireCode(err, dErrors.CodeConflict)

		stored, err := s.service.Get(s.ctx, claim.ID)
		s.Require().NoError(err)
		s.Equal(claim.Version, stored.Version)
		s.Equal(models.StateApproved, stored.State)
		s.Equal(models.Dollars(12345), stored.ClaimedAmount)
		s.Len(stored.Reports, 1)
		s.Equal(actions(claim), actions(stored))
	})

	s.Run("amended claim is judged on its new report", func() {
		claim := s.submit(approvable())
		amount := models.Dollars(80000)

		s.store.failNext(1)
		corrected, err := s.service.Correct(s.ctx, claim.ID, models.CorrectionRequest{
			Correction:    models.Correction{ClaimedAmount: &amount},
			Actor:         supervisor,
			Justification: "amount keyed without the tow invoice",
		})
		s.Require().NoError(err)
		s.Equal(amount, corrected.ClaimedAmount)
		s.Equal(models.StateUnderReview, corrected.State)
		s.Require().Len(corrected.Reports, 2)
		s.Equal(models.VerdictReview, corrected.LatestReport().Verdict)
		s.Equal([]models.Action{
			models.ActionSubmitted, models.ActionEvaluated, models.ActionApproved,
			models.ActionCorrected, models.ActionReevaluated,
		}, actions(corrected))
		s.requireConsistentTrail(corrected)

		_, err = s.service.Approve(s.ctx, claim.ID, models.TransitionRequest{Actor: reviewer})
		s.requireCode(err, dErrors.CodeInvalidTransition)
	})

	s.Run("empty correction", func() {
		claim := s.submit(reviewable())
		_, err := s.service.Correct(s.ctx, claim.ID, models.CorrectionRequest{Actor: reviewer})
		s.requireCode(err, dErrors.CodeValidation)
	})
}

// =============================================================================
// Audit forwarding
// =============================================================================

func (s *LifecycleSuite) TestAuditForwarding() {
	s.Run("committed entries reach the sink in order", func() {
		claim := s.submit(approvable())

		s.mu.Lock()
		defer s.mu.Unlock()
		s.Require().Len(s.forwarded, len(claim.AuditTrail))
		for i, e := range claim.AuditTrail {
			s.Equal(e.ID, s.forwarded[i].ID)
		}
	})

	s.Run("sink failure does not undo the transition", func() {
		ctrl := gomock.NewController(s.T())
		failing := mocks.NewMockAuditSink(ctrl)
		failing.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).AnyTimes()
		svc := s.newService(DefaultConfig(), WithAuditSink(failing))

		claim, err := svc.Submit(s.ctx, approvable(), reviewer)
		s.Require().NoError(err)
		s.Equal(models.StateApproved, claim.State)
	})
}

// =============================================================================
// Queries
// =============================================================================

func (s *LifecycleSuite) TestListAndStats() {
	s.submit(approvable())
	s.submit(reviewable())
	s.submit(rejectable())

	var states []models.State
	for summary, err := range s.service.List(s.ctx, models.ClaimFilter{States: []models.State{models.StateUnderReview}}) {
		s.Require().NoError(err)
		states = append(states, summary.State)
	}
	s.Equal([]models.State{models.StateUnderReview}, states)

	stats, err := s.service.Stats(s.ctx, models.ClaimFilter{Limit: 1})
	s.Require().NoError(err)
	s.Equal(3, stats.TotalClaims, "stats ignore the page limit")
}

// =============================================================================
// Batch evaluation
// =============================================================================

func (s *LifecycleSuite) TestBatchEvaluate() {
	s.Run("evaluates each claim and reports failures per claim", func() {
		cfg := DefaultConfig()
		cfg.AutoDisposition = false
		svc := s.newService(cfg)
		first, err := svc.Submit(s.ctx, reviewable(), reviewer)
		s.Require().NoError(err)
		second, err := svc.Submit(s.ctx, approvable(), reviewer)
		s.Require().NoError(err)

		results, err := svc.BatchEvaluate(s.ctx, []string{first.ID, "CLM-missing", second.ID}, 2, reviewer)
		s.Require().NoError(err)
		s.Require().Len(results, 3)

		s.Equal(first.ID, results[0].ClaimID)
		s.Equal(models.VerdictReview, results[0].Verdict)
		s.Require().NotNil(results[0].RiskScore)
		s.True(dErrors.HasCode(results[1].Error, dErrors.CodeNotFound))
		s.Equal(models.VerdictApprove, results[2].Verdict)
	})

	s.Run("cancelled batch skips unstarted claims", func() {
		claim := s.submit(reviewable())
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()

		results, err := s.service.BatchEvaluate(ctx, []string{claim.ID, claim.ID}, 1, reviewer)
		s.requireCode(err, dErrors.CodeTimeout)
		s.Require().Len(results, 2)
		for _, r := range results {
			s.True(r.Skipped)
		}

		stored, err := s.service.Get(s.ctx, claim.ID)
		s.Require().NoError(err)
		s.Len(stored.Reports, 1)
	})
}

func actions(c *models.Claim) []models.Action {
	out := make([]models.Action, len(c.AuditTrail))
	for i, e := range c.AuditTrail {
		out[i] = e.Action
	}
	return out
}

// flakyStore fails the next n updates with a version conflict.
type flakyStore struct {
	*store.InMemoryStore
	mu       sync.Mutex
	failures int
}

func (f *flakyStore) failNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}

func (f *flakyStore) Update(ctx context.Context, id string, mutate store.Mutator) (*models.Claim, error) {
	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("claim %s: %w", id, sentinel.ErrConflict)
	}
	return f.InMemoryStore.Update(ctx, id, mutate)
}
