package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newChangedCmd lists the workspaces that changed since the reference.
func newChangedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changed",
		Short: "List workspaces changed since the reference branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			changed, err := a.planner.WorkspacesChangedSinceRef(cmd.Context(), a.cfg.Ref, a.cfg.Filter)
			if err != nil {
				return err
			}

			if a.cfg.JSON {
				names := make([]string, 0, len(changed))
				for _, ws := range changed {
					names = append(names, ws.Name)
				}
				return printJSON(cmd.OutOrStdout(), names)
			}

			for _, ws := range changed {
				fmt.Fprintln(cmd.OutOrStdout(), ws.Name)
			}
			return nil
		},
	}
}
