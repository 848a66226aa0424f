package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/monover/monover/internal/lock"
)

// newTagCmd computes the version plan and creates one annotated
// `<name>-<version>` tag per workspace. Versions that are already tagged
// are skipped, so re-running after a partial failure is safe.
func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Create release tags for the computed next versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			locker, err := lock.New(a.cfg.RepoPath)
			if err != nil {
				return err
			}
			if err := locker.Acquire(); err != nil {
				return err
			}
			defer func() {
				if err := locker.Release(); err != nil {
					a.logger.Warn("failed to release repo lock", zap.Error(err))
				}
			}()

			ctx := cmd.Context()

			workspaces, err := a.planner.ListWorkspaces(a.cfg.Filter)
			if err != nil {
				return err
			}

			plan, err := a.planner.NextVersionsForWorkspaces(ctx, workspaces)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(plan))
			for name := range plan {
				names = append(names, name)
			}
			sort.Strings(names)

			var created []string
			for _, name := range names {
				tagName := fmt.Sprintf("%s-%s", name, plan[name])

				existing, err := a.git.ResolveRef(ctx, tagName)
				if err != nil {
					return err
				}
				if existing != "" {
					a.logger.Info("tag already exists, skipping",
						zap.String("tag", tagName))
					continue
				}

				message := fmt.Sprintf("Release %s %s", name, plan[name])
				if err := a.git.CreateTag(ctx, tagName, message, ""); err != nil {
					return err
				}
				created = append(created, tagName)
			}

			if a.cfg.Push && len(created) > 0 {
				if err := a.git.PushTags(ctx); err != nil {
					return err
				}
			}

			if a.cfg.JSON {
				return printJSON(cmd.OutOrStdout(), created)
			}
			for _, tagName := range created {
				fmt.Fprintln(cmd.OutOrStdout(), tagName)
			}
			return nil
		},
	}

	cmd.Flags().Bool("push", false, "push created tags to origin")
	return cmd
}
