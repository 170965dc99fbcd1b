// Package triagectl is the operator command line: offline evaluation of claim
// files against a tuning file, batch re-evaluation through a running server,
// settings inspection and actor token issuance.
package triagectl

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"claimguard/internal/settings"
)

// Configuration keys shared by flags and CLAIMGUARD_* environment variables.
const (
	keyConfig   = "config"
	keyPolicies = "policies"
	keyOutput   = "output"
	keyVerbose  = "verbose"
)

type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
}

// NewRootCommand builds the command tree. Flags take precedence over
// CLAIMGUARD_* environment variables, which take precedence over defaults.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}
	a.v.SetEnvPrefix(settings.EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "triagectl",
		Short: "Operate the claim triage engine",
		Long: `triagectl evaluates claims against the triage rules and talks to a
running claimguard server.

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (CLAIMGUARD_*)
  3. The tuning file named by --config
  4. Built-in defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.String(keyConfig, "", "tuning file with rule weights, thresholds and lifecycle policy")
	pf.StringP(keyOutput, "o", "table", "output format: table, json or yaml")
	pf.BoolP(keyVerbose, "v", false, "verbose output")
	_ = a.v.BindPFlag(keyConfig, pf.Lookup(keyConfig))
	_ = a.v.BindPFlag(keyOutput, pf.Lookup(keyOutput))
	_ = a.v.BindPFlag(keyVerbose, pf.Lookup(keyVerbose))

	root.AddCommand(
		a.newEvaluateCommand(),
		a.newBatchCommand(),
		a.newConfigCommand(),
		a.newTokenCommand(),
	)
	return root
}

// Execute runs the CLI with the process arguments.
func Execute(out, errOut io.Writer) error {
	return NewRootCommand(out, errOut).Execute()
}

func (a *app) loadSettings() (settings.Settings, error) {
	return settings.Load(a.v.GetString(keyConfig))
}
