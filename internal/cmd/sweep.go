package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryhazerus/throttle"
)

func newSweepCommand(a *app) *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evict entries idle for longer than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if retention <= 0 {
				return fmt.Errorf("--retention must be positive, got %s", retention)
			}

			l, err := a.openLimiter(nil, throttle.WithRetention(retention))
			if err != nil {
				return err
			}
			defer l.Close() // nolint:errcheck // best-effort cleanup

			n, err := l.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Evicted %d entr(ies)\n", n)
			return err
		},
	}

	cmd.Flags().DurationVar(&retention, "retention", throttle.DefaultRetention, "evict entries idle for longer than this")
	return cmd
}
