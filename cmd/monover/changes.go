package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// newChangesCmd reports changed files per workspace since the last
// release tag that is an ancestor of HEAD.
func newChangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changes",
		Short: "List changed files per workspace since the last release tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			changes, err := a.planner.ChangesSinceLastTagByWorkspace(cmd.Context(), a.cfg.Filter)
			if err != nil {
				return err
			}

			if a.cfg.JSON {
				return printJSON(cmd.OutOrStdout(), changes)
			}

			dirs := make([]string, 0, len(changes))
			for dir := range changes {
				dirs = append(dirs, dir)
			}
			sort.Strings(dirs)

			for _, dir := range dirs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", dir)
				for _, file := range changes[dir] {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", file)
				}
			}
			return nil
		},
	}
}
