package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Set an experiment value",
	Long: `Store a value for an experiment. The value is typed the same way configure
commands type it: true/false, then integer, float, absolute URL, else string.

Examples:
  experiments set new_checkout true
  experiments set retry_limit 5
  experiments set api_base https://api.example.com`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setExperiment(cmd, args[0], args[1])
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable an experiment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setExperiment(cmd, args[0], "true")
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable an experiment",
	Long: `Store false for an experiment. Unlike remove, the experiment keeps existing.

Examples:
  experiments disable new_checkout`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setExperiment(cmd, args[0], "false")
	},
}

func setExperiment(cmd *cobra.Command, name, raw string) error {
	// An empty value is how configure commands spell "remove".
	if raw == "" {
		return errors.New("value must not be empty; use remove to delete an experiment")
	}
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	kind, err := b.Set(ctx, name, raw)
	if err != nil {
		return fmt.Errorf("failed to set experiment: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Set experiment '%s' to %s (%s)\n", name, raw, kind)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}
