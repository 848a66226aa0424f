package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// newPlanCmd computes the next version of every (filtered) workspace.
func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Compute the next version for each workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			workspaces, err := a.planner.ListWorkspaces(a.cfg.Filter)
			if err != nil {
				return err
			}

			plan, err := a.planner.NextVersionsForWorkspaces(cmd.Context(), workspaces)
			if err != nil {
				return err
			}

			if a.cfg.JSON {
				return printJSON(cmd.OutOrStdout(), plan)
			}

			names := make([]string, 0, len(plan))
			for name := range plan {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name, plan[name])
			}
			return nil
		},
	}
}
