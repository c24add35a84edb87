package cmd

import (
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type configView struct {
	Category           string `json:"category"`
	MaxRequests        int64  `json:"max_requests"`
	Window             string `json:"window"`
	BlockDuration      string `json:"block_duration"`
	ExponentialBackoff bool   `json:"exponential_backoff"`
}

func newConfigsCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "configs",
		Short: "Print the effective category table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}

			configs, err := a.configs()
			if err != nil {
				return err
			}

			names := make([]string, 0, len(configs))
			for name := range configs {
				names = append(names, name)
			}
			slices.Sort(names)

			views := make([]configView, 0, len(names))
			for _, name := range names {
				c := configs[name]
				views = append(views, configView{
					Category:           name,
					MaxRequests:        c.MaxRequests,
					Window:             c.Window.String(),
					BlockDuration:      c.BlockDuration.String(),
					ExponentialBackoff: c.ExponentialBackoff,
				})
			}

			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), views)
			}

			t := newTable(cmd.OutOrStdout(), table.Row{"Category", "Max", "Window", "Block", "Backoff"})
			for _, v := range views {
				backoff := "no"
				if v.ExponentialBackoff {
					backoff = "yes"
				}
				t.AppendRow(table.Row{v.Category, v.MaxRequests, v.Window, v.BlockDuration, backoff})
			}
			t.Render()
			return nil
		},
	}

	addOutputFlag(cmd, &output)
	return cmd
}
