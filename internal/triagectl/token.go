package triagectl

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "claimguard/internal/jwt_token"
)

const keySigningKey = "jwt-signing-key"

func (a *app) newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage actor tokens",
	}

	var (
		actorID string
		role    string
		ttl     time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue an actor bearer token",
		Long: `Issue signs an HS256 token the server accepts as the actor identity.
The signing key comes from --jwt-signing-key or CLAIMGUARD_JWT_SIGNING_KEY and
must match the server's JWT_SIGNING_KEY.

Example:
  triagectl token issue --actor sup-1 --role supervisor --ttl 8h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := a.v.GetString(keySigningKey)
			if key == "" {
				return fmt.Errorf("a signing key is required (--jwt-signing-key or CLAIMGUARD_JWT_SIGNING_KEY)")
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}
			token, err := jwttoken.NewJWTService(key, jwttoken.DefaultIssuer, jwttoken.DefaultAudience).IssueActorToken(actorID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	issue.Flags().String(keySigningKey, "", "HS256 signing key")
	issue.Flags().StringVar(&actorID, "actor", "", "actor id (token subject)")
	issue.Flags().StringVar(&role, "role", "adjuster", "actor role")
	issue.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = issue.MarkFlagRequired("actor")
	_ = a.v.BindPFlag(keySigningKey, issue.Flags().Lookup(keySigningKey))

	cmd.AddCommand(issue)
	return cmd
}
