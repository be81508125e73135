package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goexperiments/internal/cli"
)

var listEnabledOnly bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List experiments",
	Long: `List every experiment held in the store, sorted by name.

Examples:
  experiments list
  experiments list --enabled
  experiments list --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.Close()

		rows, err := b.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list experiments: %w", err)
		}
		if listEnabledOnly {
			filtered := rows[:0]
			for _, r := range rows {
				if r.Enabled {
					filtered = append(filtered, r)
				}
			}
			rows = filtered
		}

		if !quiet {
			return cli.PrintExperiments(cmd.OutOrStdout(), rows, cli.OutputFormat(format))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listEnabledOnly, "enabled", false, "Only show enabled experiments")
}
