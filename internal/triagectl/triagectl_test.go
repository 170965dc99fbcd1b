package triagectl

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimguard/internal/claims/handler"
	"claimguard/internal/claims/models"
	jwttoken "claimguard/internal/jwt_token"
	"claimguard/pkg/testutil"
)

const policiesYAML = `policies:
  - number: "66777"
    coverage_limit: "50000.00"
    status: active
    valid_from: 2025-01-01
    valid_to: 2025-12-31
    insured_name: Lotta Dietz
`

const claimsYAML = `as_of: 2025-08-20
assessments:
  img/major.jpg: {severity: major, confidence: 0.98}
claims:
  - id: CLM-APPROVE
    policy_number: "66777"
    incident_date: 2025-08-16
    claimed_amount: "12345.00"
    reported_severity: Major Damage
    collision_type: front-end
    vehicle_count: 2
    image_ref: img/major.jpg
  - id: CLM-REVIEW
    policy_number: "66777"
    incident_date: 2025-08-16
    claimed_amount: "80000"
    reported_severity: major
    collision_type: rear-end
    vehicle_count: 2
    image_ref: img/major.jpg
  - id: CLM-REJECT
    policy_number: "66777"
    incident_date: 2024-06-01
    claimed_amount: "12345"
    reported_severity: major
    collision_type: rollover
    vehicle_count: 1
    image_ref: img/major.jpg
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestEvaluateCommand(t *testing.T) {
	dir := t.TempDir()
	policies := writeFile(t, dir, "policies.yaml", policiesYAML)
	claims := writeFile(t, dir, "claims.yaml", claimsYAML)

	testutil.Given(t, "a claims file with one claim per verdict", func(t *testing.T) {
		testutil.When(t, "evaluated with json output", func(t *testing.T) {
			out, _, err := execute(t, "evaluate", claims, "--policies", policies, "-o", "json")
			require.NoError(t, err)

			var rows []EvaluationRow
			require.NoError(t, json.Unmarshal([]byte(out), &rows))
			require.Len(t, rows, 3)

			testutil.Then(t, "each claim gets its verdict and disposition", func(t *testing.T) {
				want := map[string]struct {
					verdict models.Verdict
					state   models.State
				}{
					"CLM-APPROVE": {models.VerdictApprove, models.StateApproved},
					"CLM-REVIEW":  {models.VerdictReview, models.StateUnderReview},
					"CLM-REJECT":  {models.VerdictReject, models.StateRejected},
				}
				for _, r := range rows {
					assert.Empty(t, r.Error, r.ClaimID)
					assert.Equal(t, want[r.ClaimID].verdict, r.Verdict, r.ClaimID)
					assert.Equal(t, want[r.ClaimID].state, r.State, r.ClaimID)
					assert.NotEmpty(t, r.Checks, r.ClaimID)
				}
			})
		})

		testutil.When(t, "evaluated as a table", func(t *testing.T) {
			out, _, err := execute(t, "evaluate", claims, "--policies", policies)
			require.NoError(t, err)
			testutil.Then(t, "there is a header and one line per claim", func(t *testing.T) {
				lines := strings.Split(strings.TrimSpace(out), "\n")
				assert.Len(t, lines, 4)
				assert.Contains(t, lines[0], "VERDICT")
			})
		})

		testutil.When(t, "--fail-on reject is set", func(t *testing.T) {
			_, _, err := execute(t, "evaluate", claims, "--policies", policies, "-o", "yaml", "--fail-on", "reject")
			testutil.Then(t, "the command fails", func(t *testing.T) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "1 of 3 claims")
			})
		})
	})

	testutil.Given(t, "no policy seed", func(t *testing.T) {
		out, _, err := execute(t, "evaluate", claims, "-o", "json")
		require.NoError(t, err)
		var rows []EvaluationRow
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		testutil.Then(t, "intake refuses every claim", func(t *testing.T) {
			for _, r := range rows {
				assert.Contains(t, r.Error, "not found")
			}
		})
	})
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")

	_, stderr, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, path)

	_, _, err = execute(t, "config", "init", path)
	require.Error(t, err, "existing file needs --force")

	out, _, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "auto_disposition: true")
	assert.Contains(t, out, "policy_amount")

	t.Setenv("CLAIMGUARD_LIFECYCLE_AUTO_DISPOSITION", "false")
	out, _, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "auto_disposition: false")
}

func TestTokenIssue(t *testing.T) {
	out, _, err := execute(t, "token", "issue", "--actor", "sup-1", "--role", "supervisor", "--jwt-signing-key", "k1")
	require.NoError(t, err)

	claims, err := jwttoken.NewJWTService("k1", jwttoken.DefaultIssuer, jwttoken.DefaultAudience).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "sup-1", claims.Subject)
	assert.Equal(t, "supervisor", claims.Role)

	t.Setenv("CLAIMGUARD_JWT_SIGNING_KEY", "")
	_, _, err = execute(t, "token", "issue", "--actor", "sup-1")
	require.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	score := 40
	var got handler.BatchEvaluateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/claims/evaluate-batch", r.URL.Path)
		assert.Equal(t, "Bearer t0k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(handler.BatchEvaluateResponse{
			Results: []handler.BatchItem{
				{ClaimID: "CLM-1", State: models.StateUnderReview, Verdict: models.VerdictReview, RiskScore: &score},
				{ClaimID: "CLM-2", ErrorCode: "not_found", Error: "claim not found"},
			},
			Evaluated: 1,
			Failed:    1,
		})
	}))
	defer srv.Close()

	ids := writeFile(t, t.TempDir(), "ids.txt", "# backlog\nCLM-2\n\n")
	out, stderr, err := execute(t, "batch", "CLM-1", "--ids-file", ids, "--server", srv.URL, "--token", "t0k", "--workers", "3")
	require.NoError(t, err)

	assert.Equal(t, []string{"CLM-1", "CLM-2"}, got.ClaimIDs)
	assert.Equal(t, 3, got.Workers)
	assert.Contains(t, out, "not_found claim not found")
	assert.Contains(t, stderr, "evaluated 1, failed 1, skipped 0")

	_, _, err = execute(t, "batch", "CLM-1", "--server", srv.URL)
	require.Error(t, err, "token is required")
}
