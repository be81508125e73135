package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/goexperiments/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the CLI profile",
	Long: `Show or save the store and gate settings the CLI uses by default.

The profile lives in ~/.goexperiments/config.yaml. Command flags and the
EXPERIMENTS_* environment variables override it.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the effective configuration as the profile",
	Long: `Save the current flags, merged with the existing profile, to the config file.

Examples:
  experiments config save --store postgres --dsn postgres://localhost/experiments`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		if err := cli.SaveConfig(cfg); err != nil {
			return err
		}
		if !quiet {
			path, _ := cli.GetConfigPath()
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
}
