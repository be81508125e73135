package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goexperiments/internal/cli"
)

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Get an experiment",
	Long: `Get the stored value of an experiment. An experiment that was never set is
shown as not existing and disabled.

Examples:
  experiments get new_checkout
  experiments get new_checkout --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.Close()

		row, err := b.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get experiment: %w", err)
		}

		if !quiet {
			return cli.PrintExperiment(cmd.OutOrStdout(), row, cli.OutputFormat(format))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
