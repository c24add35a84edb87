package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryhazerus/throttle"
)

func newResetCommand(a *app) *cobra.Command {
	var id identityFlags

	cmd := &cobra.Command{
		Use:   "reset <category>",
		Short: "Clear the throttling state for one key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := id.environment(cmd)
			if err != nil {
				return err
			}

			l, err := a.openLimiter(env)
			if err != nil {
				return err
			}
			defer l.Close() // nolint:errcheck // best-effort cleanup

			if err := l.Reset(cmd.Context(), args[0], id.user); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", throttle.Key(args[0], id.user, l.Fingerprint()))
			return err
		},
	}

	id.register(cmd)
	return cmd
}
