package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ryhazerus/throttle"
)

type checkView struct {
	Key        string `json:"key"`
	Allowed    bool   `json:"allowed"`
	Remaining  int64  `json:"remaining"`
	RetryAfter int64  `json:"retry_after,omitempty"`
	Message    string `json:"message,omitempty"`
}

func newCheckCommand(a *app) *cobra.Command {
	var (
		id     identityFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "check <category>",
		Short: "Run one admission check and record it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			env, err := id.environment(cmd)
			if err != nil {
				return err
			}

			l, err := a.openLimiter(env)
			if err != nil {
				return err
			}
			defer l.Close() // nolint:errcheck // best-effort cleanup

			category := args[0]
			res, err := l.CheckCategory(cmd.Context(), category, id.user)
			if err != nil {
				return err
			}

			view := checkView{
				Key:        throttle.Key(category, id.user, l.Fingerprint()),
				Allowed:    res.Allowed,
				Remaining:  res.Remaining,
				RetryAfter: res.RetryAfter,
				Message:    res.Message,
			}
			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}

			t := newTable(cmd.OutOrStdout(), table.Row{"Key", "Decision", "Remaining", "Retry After"})
			decision, retry := "allowed", "-"
			if !res.Allowed {
				decision = "denied"
				retry = fmt.Sprintf("%ds", res.RetryAfter)
			}
			t.AppendRow(table.Row{view.Key, decision, res.Remaining, retry})
			t.Render()
			if !res.Allowed {
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			}
			return nil
		},
	}

	id.register(cmd)
	addOutputFlag(cmd, &output)
	return cmd
}
