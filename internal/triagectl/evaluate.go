package triagectl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	claimmetrics "claimguard/internal/claims/metrics"
	"claimguard/internal/claims/models"
	"claimguard/internal/claims/service"
	"claimguard/internal/claims/store"
	"claimguard/internal/decision"
	decisionmetrics "claimguard/internal/decision/metrics"
	"claimguard/internal/policy"
	"claimguard/internal/rules"
	"claimguard/internal/vision"
	"claimguard/pkg/requestcontext"
)

var cliActor = models.Actor{ID: "triagectl", Role: "system"}

// EvaluationRow is one evaluated claim in the command output.
type EvaluationRow struct {
	ClaimID   string                   `json:"claim_id" yaml:"claim_id"`
	State     models.State             `json:"state,omitempty" yaml:"state,omitempty"`
	Verdict   models.Verdict           `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	RiskScore int                      `json:"risk_score" yaml:"risk_score"`
	Checks    []models.RuleCheckResult `json:"checks,omitempty" yaml:"checks,omitempty"`
	Degraded  []string                 `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	Error     string                   `json:"error,omitempty" yaml:"error,omitempty"`
}

func (a *app) newEvaluateCommand() *cobra.Command {
	var failOn string
	cmd := &cobra.Command{
		Use:   "evaluate <claims.yaml>",
		Short: "Evaluate a file of claims offline",
		Long: `Evaluate runs every claim in the file through intake and the rule engine
in-process, against the policies in --policies and the image assessments
listed in the file. Nothing is persisted.

Example:
  triagectl evaluate claims.yaml --policies policies.yaml
  triagectl evaluate claims.yaml --policies policies.yaml --config tuning.yaml -o json
  triagectl evaluate claims.yaml --policies policies.yaml --fail-on reject`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := a.evaluateFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.printEvaluations(rows); err != nil {
				return err
			}
			return checkFailOn(rows, failOn)
		},
	}
	cmd.Flags().String(keyPolicies, "", "policy seed file (YAML)")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "exit non-zero when any verdict is at least review or reject")
	_ = a.v.BindPFlag(keyPolicies, cmd.Flags().Lookup(keyPolicies))
	return cmd
}

func (a *app) evaluateFile(ctx context.Context, path string) ([]EvaluationRow, error) {
	st, err := a.loadSettings()
	if err != nil {
		return nil, err
	}
	file, err := readClaimsFile(path)
	if err != nil {
		return nil, err
	}
	directory := policy.NewInMemory()
	if seed := a.v.GetString(keyPolicies); seed != "" {
		records, err := policy.LoadSeedFile(seed)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			directory.Put(r)
		}
	}
	assessor := vision.NewStatic(nil)
	for ref, assessment := range file.Assessments {
		assessor.Set(ref, assessment)
	}
	asOf, err := file.asOf()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if a.v.GetBool(keyVerbose) {
		logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	svc, err := newOfflineService(st.Rules, st.Lifecycle, st.Evidence.LookupTimeout, directory, assessor, logger)
	if err != nil {
		return nil, err
	}

	ctx = requestcontext.WithTime(ctx, asOf)
	rows := make([]EvaluationRow, 0, len(file.Claims))
	for i, entry := range file.Claims {
		row := EvaluationRow{ClaimID: entry.ID}
		req, err := entry.toRequest()
		if err != nil {
			row.Error = fmt.Sprintf("claim %d: %v", i+1, err)
			rows = append(rows, row)
			continue
		}
		claim, err := svc.Submit(ctx, req, cliActor)
		if err != nil {
			row.Error = err.Error()
			rows = append(rows, row)
			continue
		}
		row.ClaimID = claim.ID
		row.State = claim.State
		if r := claim.LatestReport(); r != nil {
			row.Verdict = r.Verdict
			row.RiskScore = r.RiskScore
			row.Checks = r.Checks
			row.Degraded = r.Degraded
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (a *app) printEvaluations(rows []EvaluationRow) error {
	done, err := writeStructured(a.out, a.v.GetString(keyOutput), rows)
	if done || err != nil {
		return err
	}
	verbose := a.v.GetBool(keyVerbose)
	tw := newTable(a.out)
	fmt.Fprintln(tw, "CLAIM\tSTATE\tVERDICT\tSCORE\tCHECKS\tDEGRADED")
	for _, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\terror\t-\t-\t%s\t\n", r.ClaimID, r.Error)
			continue
		}
		checks := make([]string, len(r.Checks))
		for i, c := range r.Checks {
			checks[i] = c.RuleName + "=" + string(c.Outcome)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ClaimID, r.State, r.Verdict, r.RiskScore, strings.Join(checks, ","), strings.Join(r.Degraded, ","))
		if verbose {
			for _, c := range r.Checks {
				fmt.Fprintf(tw, "\t\t\t\t  %s: %s\t\n", c.RuleName, c.Explanation)
			}
		}
	}
	return tw.Flush()
}

func checkFailOn(rows []EvaluationRow, failOn string) error {
	if failOn == "" {
		return nil
	}
	threshold := models.Verdict(strings.ToLower(failOn))
	if threshold != models.VerdictReview && threshold != models.VerdictReject {
		return fmt.Errorf("--fail-on must be review or reject, got %q", failOn)
	}
	hits := 0
	for _, r := range rows {
		if r.Error != "" || (r.Verdict != "" && r.Verdict.Rank() >= threshold.Rank()) {
			hits++
		}
	}
	if hits > 0 {
		return fmt.Errorf("%d of %d claims at or above %s", hits, len(rows), threshold)
	}
	return nil
}

// newOfflineService assembles the lifecycle manager over in-memory
// collaborators with private metric registries.
func newOfflineService(rulesCfg rules.Config, lifecycle service.Config, lookupTimeout time.Duration, directory *policy.InMemoryDirectory, assessor *vision.Static, logger *slog.Logger) (*service.Service, error) {
	registered, err := rulesCfg.Build()
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	dm := decisionmetrics.NewWith(reg)
	engine, err := decision.NewEngine(registered, decision.WithLogger(logger), decision.WithMetrics(dm))
	if err != nil {
		return nil, err
	}
	gatherer := decision.NewGatherer(directory, assessor,
		decision.WithLookupTimeout(lookupTimeout),
		decision.WithGathererLogger(logger),
		decision.WithGathererMetrics(dm),
	)
	return service.New(store.NewInMemory(), engine, gatherer, directory,
		service.WithConfig(lifecycle),
		service.WithLogger(logger),
		service.WithMetrics(claimmetrics.NewWith(reg)),
	), nil
}
