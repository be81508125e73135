package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goexperiments/internal/cli"
)

var configureCmd = &cobra.Command{
	Use:   "configure <command-url>",
	Short: "Apply a bulk configure command",
	Long: `Apply every change in a configure command as one batch. The command is a URL
whose host is the gate host and whose first path segment is "configure". Each
query item sets an experiment; an item without a value removes it.

Examples:
  experiments configure "app://experiments/configure?a=true&b=42&c"
  experiments configure --mode boolean "app://experiments/configure?a=true&b=false"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.Close()

		batch, rows, err := b.Configure(ctx, args[0])
		if err != nil {
			return fmt.Errorf("configure command rejected: %w", err)
		}

		if !quiet {
			return cli.PrintActions(cmd.OutOrStdout(), batch, rows, cli.OutputFormat(format))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
}
