package triagectl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"claimguard/internal/settings"
)

func (a *app) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create tuning files",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Long:  `Show prints the settings after defaults, the --config file and CLAIMGUARD_* overrides are applied.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadSettings()
			if err != nil {
				return err
			}
			if path := a.v.GetString(keyConfig); path != "" {
				fmt.Fprintf(a.errOut, "settings file: %s\n", path)
			} else {
				fmt.Fprintln(a.errOut, "no settings file (defaults and environment only)")
			}
			if a.v.GetString(keyOutput) == "json" {
				_, err := writeStructured(a.out, "json", st)
				return err
			}
			data, err := settings.Encode(st)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write the default settings to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			data, err := settings.Encode(settings.Default())
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write settings: %w", err)
			}
			fmt.Fprintf(a.errOut, "wrote default settings to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(show, initCmd)
	return cmd
}
