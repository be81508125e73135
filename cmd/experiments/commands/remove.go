package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	removeForce bool
)

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"delete"},
	Short:   "Remove an experiment",
	Long: `Remove an experiment from the store. Afterwards it no longer exists and reads
as disabled.

Examples:
  experiments remove new_checkout
  experiments remove new_checkout --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		// Confirm removal unless --force
		if !removeForce && !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to remove experiment '%s'? (y/N): ", name)
			reader := bufio.NewReader(cmd.InOrStdin())
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Removal cancelled")
				return nil
			}
		}

		ctx := cmd.Context()
		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.Close()

		if err := b.Remove(ctx, name); err != nil {
			return fmt.Errorf("failed to remove experiment: %w", err)
		}

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed experiment '%s'\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().BoolVar(&removeForce, "force", false, "Skip confirmation prompt")
}
