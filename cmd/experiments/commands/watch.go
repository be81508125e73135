package commands

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/goexperiments/internal/watch"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Apply configure commands from a file as it changes",
	Long: `Read configure commands from a file, one per line, and apply them to the local
store. The file is applied again every time it is written until the process is
interrupted.

Examples:
  experiments watch commands.txt
  experiments watch commands.txt --once`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		if cfg.Server != "" {
			return errors.New("watch works on a local store; set WATCH_FILE on the server instead")
		}
		log, err := newLogger()
		if err != nil {
			return err
		}
		b, err := newLocalBackend(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer b.Close()

		w := watch.New(args[0], b.configurator, log)

		if watchOnce {
			sum, err := w.ApplyFile(ctx)
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d commands, rejected %d\n", sum.Applied, sum.Rejected)
			}
			return nil
		}

		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Apply the file once and exit")
}
