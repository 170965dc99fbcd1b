package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"claimguard/internal/claims/models"
	dErrors "claimguard/pkg/domain-errors"
	"claimguard/pkg/platform/sentinel"
	"claimguard/pkg/requestcontext"
)

// Submit validates and records a new claim, then evaluates it. A policy
// number the directory does not know is refused; a directory that cannot
// answer in time does not block intake.
func (s *Service) Submit(ctx context.Context, req models.SubmitRequest, actor models.Actor) (*models.Claim, error) {
	ctx, span := tracer.Start(ctx, "claims.Submit")
	defer span.End()

	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}
	now := requestcontext.Now(ctx).UTC()
	req.Normalize()
	if err := req.Validate(now); err != nil {
		return nil, err
	}
	if err := s.checkPolicyExists(ctx, req.PolicyNumber); err != nil {
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = "CLM-" + s.newID()
	}
	claim, err := models.NewClaim(id, req.ClaimInput, now)
	if err != nil {
		return nil, err
	}
	entry := s.newEntry(ctx, models.ActionSubmitted, actor, now)
	claim.RecordIntake(entry)

	if err := s.claims.Create(ctx, claim); err != nil {
		return nil, translate(err, "failed to create claim")
	}
	span.SetAttributes(attribute.String("claim.id", claim.ID))
	s.metrics.IncrementSubmitted()
	s.metrics.IncrementTransition(string(models.ActionSubmitted), string(claim.State))
	s.forward(ctx, claim.AuditTrail...)
	s.logger.InfoContext(ctx, "claim submitted",
		"claim_id", claim.ID,
		"policy_number", claim.PolicyNumber,
		"actor", actor.ID,
		"request_id", requestcontext.RequestID(ctx),
	)

	evaluated, err := s.Evaluate(ctx, claim.ID, actor)
	if err != nil {
		// The claim exists in Submitted; Evaluate can be retried on its own.
		s.logger.ErrorContext(ctx, "initial evaluation failed",
			"claim_id", claim.ID,
			"error", err,
		)
		return claim, nil
	}
	return evaluated, nil
}

func (s *Service) checkPolicyExists(ctx context.Context, policyNumber string) error {
	if s.policies == nil {
		return nil
	}
	lctx, cancel := context.WithTimeout(ctx, s.cfg.IntakeLookupTimeout)
	defer cancel()
	_, err := s.policies.Lookup(lctx, policyNumber)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "policy %s not found", policyNumber)
	default:
		s.logger.WarnContext(ctx, "policy check skipped at intake",
			"policy_number", policyNumber,
			"error", err,
		)
		return nil
	}
}

// Evaluate gathers evidence, runs the rule engine and attaches the report.
// Submitted claims move to under_review; under_review claims stay put with a
// reevaluated entry. Disposed claims must be corrected first.
func (s *Service) Evaluate(ctx context.Context, id string, actor models.Actor) (*models.Claim, error) {
	ctx, span := tracer.Start(ctx, "claims.Evaluate", trace.WithAttributes(attribute.String("claim.id", id)))
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveEvaluate(start)

	if actor.IsZero() {
		actor = models.SystemActor
	}

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxConflictRetries; attempt++ {
		if attempt > 0 {
			s.metrics.IncrementConflictRetry()
		}
		claim, entries, err := s.evaluateOnce(ctx, id, actor)
		if err == nil {
			s.forward(ctx, entries...)
			report := claim.LatestReport()
			span.SetAttributes(
				attribute.String("report.verdict", string(report.Verdict)),
				attribute.String("claim.state", string(claim.State)),
			)
			s.logger.InfoContext(ctx, "claim evaluated",
				"claim_id", id,
				"verdict", report.Verdict,
				"risk_score", report.RiskScore,
				"state", claim.State,
				"degraded", report.Degraded,
				"request_id", requestcontext.RequestID(ctx),
			)
			return claim, nil
		}
		if !isRetryable(err) {
			span.SetStatus(codes.Error, err.Error())
			return nil, translate(err, "failed to evaluate claim")
		}
		lastErr = err
	}
	span.SetStatus(codes.Error, "conflict")
	return nil, translate(lastErr, "failed to evaluate claim")
}

func (s *Service) evaluateOnce(ctx context.Context, id string, actor models.Actor) (*models.Claim, []models.AuditEntry, error) {
	snapshot, err := s.claims.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if snapshot.State.IsTerminal() {
		return nil, nil, invalidTransition(snapshot.State, models.ActionReevaluated)
	}

	report := s.assess(ctx, snapshot)

	var entries []models.AuditEntry
	updated, err := s.claims.Update(ctx, id, func(c *models.Claim) error {
		if c.Version != snapshot.Version {
			return errStaleSnapshot
		}
		var err error
		entries, err = s.attachReport(ctx, c, report, actor, requestcontext.Now(ctx).UTC())
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		s.metrics.IncrementTransition(string(e.Action), string(e.NewState))
	}
	return updated, entries, nil
}

// assess gathers evidence for c and runs the engine over it.
func (s *Service) assess(ctx context.Context, c *models.Claim) models.RuleReport {
	ev := s.evidence.Gather(ctx, c)
	report := s.engine.Evaluate(ctx, ev.Input(*c))
	report.Degraded = ev.Degraded
	return report
}

// attachReport records report on c with an evaluated or reevaluated entry,
// followed by the automatic disposition when enabled. It returns the entries
// it appended.
func (s *Service) attachReport(ctx context.Context, c *models.Claim, report models.RuleReport, actor models.Actor, now time.Time) ([]models.AuditEntry, error) {
	action := models.ActionEvaluated
	if c.State == models.StateUnderReview {
		action = models.ActionReevaluated
	}
	next, ok := c.State.NextState(action, false)
	if !ok {
		return nil, invalidTransition(c.State, action)
	}
	c.AttachReport(report, now)
	entry := s.newEntry(ctx, action, actor, now)
	entry.NewState = next
	entry.ReportID = report.ID
	entry.Degraded = append([]string(nil), report.Degraded...)
	c.ApplyTransition(entry)
	entries := []models.AuditEntry{c.AuditTrail[len(c.AuditTrail)-1]}

	if !s.cfg.AutoDisposition {
		return entries, nil
	}
	disposition, ok := autoAction(report.Verdict)
	if !ok {
		return entries, nil
	}
	if next, ok := c.State.NextState(disposition, false); ok {
		auto := s.newEntry(ctx, disposition, models.SystemActor, now)
		auto.NewState = next
		auto.ReportID = report.ID
		c.ApplyTransition(auto)
		entries = append(entries, c.AuditTrail[len(c.AuditTrail)-1])
	}
	return entries, nil
}

func autoAction(v models.Verdict) (models.Action, bool) {
	switch v {
	case models.VerdictApprove:
		return models.ActionApproved, true
	case models.VerdictReject:
		return models.ActionRejected, true
	}
	return "", false
}

// Transition applies a reviewer's approve or reject. Without an override the
// claim must be under review and the latest verdict must agree with the
// action. An override bypasses the verdict, needs an authorized role and a
// justification, and is recorded on the audit entry.
func (s *Service) Transition(ctx context.Context, id string, req models.TransitionRequest) (*models.Claim, error) {
	ctx, span := tracer.Start(ctx, "claims.Transition", trace.WithAttributes(
		attribute.String("claim.id", id),
		attribute.String("claim.action", string(req.Action)),
		attribute.Bool("claim.override", req.Override != nil),
	))
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Override != nil && !s.cfg.canOverride(req.Actor.Role) {
		return nil, dErrors.Newf(dErrors.CodeForbidden, "role %q may not override verdicts", req.Actor.Role)
	}

	var entry models.AuditEntry
	mutate := func(c *models.Claim) error {
		if req.ExpectedVersion != nil && c.Version != *req.ExpectedVersion {
			return dErrors.Newf(dErrors.CodeConflict, "claim is at version %d, expected %d", c.Version, *req.ExpectedVersion)
		}
		if c.State.IsTerminal() {
			return invalidTransition(c.State, req.Action)
		}
		next, ok := c.State.NextState(req.Action, req.Override != nil)
		if !ok {
			return invalidTransition(c.State, req.Action)
		}
		now := requestcontext.Now(ctx).UTC()
		entry = s.newEntry(ctx, req.Action, req.Actor, now)
		entry.NewState = next
		if report := c.LatestReport(); report != nil {
			entry.ReportID = report.ID
		}
		if req.Override != nil {
			entry.Override = &models.Override{Actor: req.Actor, Justification: req.Override.Justification}
		} else {
			report := c.LatestReport()
			if report == nil {
				return dErrors.New(dErrors.CodeInvalidTransition, "claim has no evaluation; an override is required")
			}
			if !req.Action.MatchesVerdict(report.Verdict) {
				return dErrors.Newf(dErrors.CodeInvalidTransition,
					"verdict is %s; %s requires an override", report.Verdict, req.Action)
			}
		}
		c.ApplyTransition(entry)
		entry = c.AuditTrail[len(c.AuditTrail)-1]
		return nil
	}

	claim, err := s.update(ctx, id, req.ExpectedVersion == nil, mutate)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.metrics.IncrementTransition(string(entry.Action), string(entry.NewState))
	if entry.Override != nil {
		s.metrics.IncrementOverride(string(entry.Action), req.Actor.Role)
	}
	s.forward(ctx, entry)
	s.logger.InfoContext(ctx, "claim transitioned",
		"claim_id", id,
		"action", entry.Action,
		"state", entry.NewState,
		"actor", req.Actor.ID,
		"override", entry.Override != nil,
		"request_id", requestcontext.RequestID(ctx),
	)
	return claim, nil
}

// Approve is Transition with the approve action.
func (s *Service) Approve(ctx context.Context, id string, req models.TransitionRequest) (*models.Claim, error) {
	req.Action = models.ActionApproved
	return s.Transition(ctx, id, req)
}

// Reject is Transition with the reject action.
func (s *Service) Reject(ctx context.Context, id string, req models.TransitionRequest) (*models.Claim, error) {
	req.Action = models.ActionRejected
	return s.Transition(ctx, id, req)
}

// Correct amends claim data and re-evaluates. Reopening an approved or
// rejected claim is an override: it needs an authorized role and a
// justification. The amended data, the corrected entry and the new report
// commit together or not at all.
func (s *Service) Correct(ctx context.Context, id string, req models.CorrectionRequest) (*models.Claim, error) {
	ctx, span := tracer.Start(ctx, "claims.Correct", trace.WithAttributes(attribute.String("claim.id", id)))
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.PolicyNumber != nil {
		if err := s.checkPolicyExists(ctx, *req.PolicyNumber); err != nil {
			return nil, err
		}
	}

	retries := 0
	if req.ExpectedVersion == nil {
		retries = s.cfg.MaxConflictRetries
	}
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			s.metrics.IncrementConflictRetry()
		}
		claim, entries, err := s.correctOnce(ctx, id, req)
		if err == nil {
			s.forward(ctx, entries...)
			s.logger.InfoContext(ctx, "claim corrected",
				"claim_id", id,
				"prior_state", entries[0].PriorState,
				"verdict", claim.LatestReport().Verdict,
				"state", claim.State,
				"actor", req.Actor.ID,
				"request_id", requestcontext.RequestID(ctx),
			)
			return claim, nil
		}
		if !isRetryable(err) {
			span.SetStatus(codes.Error, err.Error())
			return nil, translate(err, "failed to correct claim")
		}
		lastErr = err
	}
	span.SetStatus(codes.Error, "conflict")
	return nil, translate(lastErr, "failed to correct claim")
}

// correctOnce evaluates the amended claim from a snapshot, then commits the
// amendment and its report in one update guarded by the snapshot version.
func (s *Service) correctOnce(ctx context.Context, id string, req models.CorrectionRequest) (*models.Claim, []models.AuditEntry, error) {
	snapshot, err := s.claims.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	now := requestcontext.Now(ctx).UTC()
	amended := snapshot.Clone()
	if err := s.checkCorrection(amended, req); err != nil {
		return nil, nil, err
	}
	if err := amended.ApplyCorrection(req.Correction, now); err != nil {
		return nil, nil, err
	}
	report := s.assess(ctx, amended)

	var entries []models.AuditEntry
	updated, err := s.claims.Update(ctx, id, func(c *models.Claim) error {
		if c.Version != snapshot.Version {
			return errStaleSnapshot
		}
		if err := s.checkCorrection(c, req); err != nil {
			return err
		}
		if err := c.ApplyCorrection(req.Correction, now); err != nil {
			return err
		}
		next, _ := c.State.NextState(models.ActionCorrected, false)
		entry := s.newEntry(ctx, models.ActionCorrected, req.Actor, now)
		entry.NewState = next
		if req.Justification != "" {
			entry.Override = &models.Override{Actor: req.Actor, Justification: req.Justification}
		}
		c.ApplyTransition(entry)
		entries = []models.AuditEntry{c.AuditTrail[len(c.AuditTrail)-1]}

		evaluated, err := s.attachReport(ctx, c, report, req.Actor, now)
		if err != nil {
			return err
		}
		entries = append(entries, evaluated...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		s.metrics.IncrementTransition(string(e.Action), string(e.NewState))
	}
	return updated, entries, nil
}

// checkCorrection enforces the expected version, the state machine and the
// reopen authorization against c.
func (s *Service) checkCorrection(c *models.Claim, req models.CorrectionRequest) error {
	if req.ExpectedVersion != nil && c.Version != *req.ExpectedVersion {
		return dErrors.Newf(dErrors.CodeConflict, "claim is at version %d, expected %d", c.Version, *req.ExpectedVersion)
	}
	if _, ok := c.State.NextState(models.ActionCorrected, false); !ok {
		return invalidTransition(c.State, models.ActionCorrected)
	}
	if !c.State.IsTerminal() {
		return nil
	}
	if !s.cfg.canOverride(req.Actor.Role) {
		return dErrors.Newf(dErrors.CodeForbidden, "role %q may not reopen a %s claim", req.Actor.Role, c.State)
	}
	if req.Justification == "" {
		return dErrors.New(dErrors.CodeValidation, "reopening a disposed claim requires a justification")
	}
	return nil
}

// update commits mutate, retrying version conflicts when retry is set. The
// mutator re-validates against the fresh claim on every attempt.
func (s *Service) update(ctx context.Context, id string, retry bool, mutate func(*models.Claim) error) (*models.Claim, error) {
	attempts := 1
	if retry {
		attempts += s.cfg.MaxConflictRetries
	}
	var err error
	for attempt := range attempts {
		if attempt > 0 {
			s.metrics.IncrementConflictRetry()
		}
		var claim *models.Claim
		claim, err = s.claims.Update(ctx, id, mutate)
		if err == nil {
			return claim, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			break
		}
	}
	return nil, translate(err, "failed to update claim")
}

func (s *Service) newEntry(ctx context.Context, action models.Action, actor models.Actor, now time.Time) models.AuditEntry {
	return models.AuditEntry{
		ID:        s.newID(),
		Timestamp: now,
		Action:    action,
		Actor:     actor,
		RequestID: requestcontext.RequestID(ctx),
	}
}

// forward hands committed entries to the sink. The transition already
// committed, so sink errors are only logged.
func (s *Service) forward(ctx context.Context, entries ...models.AuditEntry) {
	if s.audit == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, e := range entries {
		if err := s.audit.Record(ctx, e); err != nil {
			s.metrics.IncrementAuditForwardError()
			s.logger.ErrorContext(ctx, "audit sink refused entry",
				"claim_id", e.ClaimID,
				"entry_id", e.ID,
				"action", e.Action,
				"error", err,
			)
		}
	}
}

func invalidTransition(from models.State, action models.Action) error {
	return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot apply %s to a %s claim", action, from)
}
