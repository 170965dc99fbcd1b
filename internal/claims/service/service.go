// Package service is the claim lifecycle manager. It owns every state change
// of a claim: intake, evaluation, reviewer dispositions and corrections. Each
// change is committed through the store's optimistic update together with its
// audit entry, and then handed to the audit sink.
package service

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"claimguard/internal/claims/metrics"
	"claimguard/internal/claims/models"
	"claimguard/internal/claims/store"
	"claimguard/internal/decision"
	"claimguard/internal/rules"
)

var tracer = otel.Tracer("claimguard/claims")

type ClaimStore interface {
	Create(ctx context.Context, claim *models.Claim) error
	Get(ctx context.Context, id string) (*models.Claim, error)
	Update(ctx context.Context, id string, mutate store.Mutator) (*models.Claim, error)
	List(ctx context.Context, filter models.ClaimFilter) iter.Seq2[models.ClaimSummary, error]
}

// Evaluator produces a report from gathered inputs.
type Evaluator interface {
	Evaluate(ctx context.Context, in rules.Input) models.RuleReport
}

// EvidenceGatherer collects the policy record and vision assessment.
type EvidenceGatherer interface {
	Gather(ctx context.Context, claim *models.Claim) decision.Evidence
}

type PolicyDirectory interface {
	Lookup(ctx context.Context, policyNumber string) (models.PolicyRecord, error)
}

// AuditSink receives committed audit entries. Record must not block on the
// downstream system; failures are logged and never undo a transition.
type AuditSink interface {
	Record(ctx context.Context, entry models.AuditEntry) error
}

// Config holds the lifecycle policy knobs.
type Config struct {
	// AutoDisposition moves a claim straight to approved/rejected when the
	// verdict is Approve/Reject. Review always waits for a reviewer.
	AutoDisposition bool `mapstructure:"auto_disposition" yaml:"auto_disposition"`
	// OverrideRoles may override verdicts and reopen disposed claims.
	OverrideRoles []string `mapstructure:"override_roles" yaml:"override_roles"`
	// MaxConflictRetries bounds retries of system-driven updates.
	MaxConflictRetries int `mapstructure:"max_conflict_retries" yaml:"max_conflict_retries"`
	// IntakeLookupTimeout bounds the policy existence check at submission.
	IntakeLookupTimeout time.Duration `mapstructure:"intake_lookup_timeout" yaml:"intake_lookup_timeout"`
	// BatchWorkers is the default concurrency of BatchEvaluate.
	BatchWorkers int `mapstructure:"batch_workers" yaml:"batch_workers"`
}

func DefaultConfig() Config {
	return Config{
		AutoDisposition:     true,
		OverrideRoles:       []string{"supervisor"},
		MaxConflictRetries:  3,
		IntakeLookupTimeout: 2 * time.Second,
		BatchWorkers:        4,
	}
}

func (c Config) canOverride(role string) bool {
	return role != "" && slices.Contains(c.OverrideRoles, role)
}

// Service orchestrates the claim lifecycle.
type Service struct {
	claims   ClaimStore
	engine   Evaluator
	evidence EvidenceGatherer
	policies PolicyDirectory
	audit    AuditSink
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	newID    func() string
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditSink(sink AuditSink) Option {
	return func(s *Service) {
		s.audit = sink
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithIDGenerator overrides generation of claim and audit entry IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// New constructs a Service.
func New(claims ClaimStore, engine Evaluator, evidence EvidenceGatherer, policies PolicyDirectory, opts ...Option) *Service {
	s := &Service{
		claims:   claims,
		engine:   engine,
		evidence: evidence,
		policies: policies,
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxConflictRetries < 0 {
		s.cfg.MaxConflictRetries = 0
	}
	if s.cfg.BatchWorkers < 1 {
		s.cfg.BatchWorkers = 1
	}
	return s
}
