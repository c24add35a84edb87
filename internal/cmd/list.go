package cmd

import (
	"fmt"
	"slices"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type entryView struct {
	Key          string     `json:"key"`
	Count        int64      `json:"count"`
	FirstRequest time.Time  `json:"first_request"`
	LastRequest  time.Time  `json:"last_request"`
	Blocked      bool       `json:"blocked"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
}

func newListCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored throttle entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}

			l, err := a.openLimiter(nil)
			if err != nil {
				return err
			}
			defer l.Close() // nolint:errcheck // best-effort cleanup

			entries, err := l.Entries(cmd.Context())
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(entries))
			for key := range entries {
				keys = append(keys, key)
			}
			slices.Sort(keys)

			views := make([]entryView, 0, len(keys))
			for _, key := range keys {
				e := entries[key]
				v := entryView{
					Key:          key,
					Count:        e.Count,
					FirstRequest: e.FirstRequest.UTC(),
					LastRequest:  e.LastRequest.UTC(),
					Blocked:      e.Blocked,
				}
				if !e.BlockedUntil.IsZero() {
					until := e.BlockedUntil.UTC()
					v.BlockedUntil = &until
				}
				views = append(views, v)
			}

			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), views)
			}

			if len(views) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "(no stored throttle entries)")
				return err
			}

			t := newTable(cmd.OutOrStdout(), table.Row{"Key", "Count", "Window Start", "Last Request", "Blocked Until"})
			for _, v := range views {
				until := "-"
				if v.BlockedUntil != nil {
					until = v.BlockedUntil.Format(time.RFC3339)
				}
				t.AppendRow(table.Row{
					v.Key,
					v.Count,
					v.FirstRequest.Format(time.RFC3339),
					v.LastRequest.Format(time.RFC3339),
					until,
				})
			}
			t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d entries", len(views))})
			t.Render()
			return nil
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}
