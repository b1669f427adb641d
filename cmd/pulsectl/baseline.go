package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func baselineCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "baseline", Short: "Inspect or rebuild user baselines"}
	cmd.AddCommand(baselineRecomputeCmd(), baselineShowCmd())
	return cmd
}

func baselineRecomputeCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute a user's baseline from scored completions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				baseline, updated, err := rt.aggregator.Recompute(ctx, userID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(map[string]any{"user_id": userID, "updated": updated, "baseline": baseline})
				}
				if !updated {
					fmt.Printf("user %s has no scored completions; baseline unchanged\n", userID)
					return nil
				}
				fmt.Printf("user %s baseline: productivity=%d distraction=%d\n", userID, baseline.Productivity, baseline.Distraction)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	return cmd
}

func baselineShowCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show baseline, energy and mood for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				user, err := rt.storage.Users.GetByID(ctx, userID)
				if err != nil {
					return err
				}
				scored, err := rt.storage.Tasks.ListScored(ctx, userID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(map[string]any{"user": user, "scored_tasks": len(scored)})
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"User", "Productivity", "Distraction", "Energy", "Mood", "Scored tasks"})
				tw.AppendRow(table.Row{
					user.ID,
					user.BaselineProductivityScore,
					user.BaselineDistractionScore,
					user.CurrentEnergyLevel,
					user.CurrentMood,
					len(scored),
				})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	return cmd
}
