package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/usecase/scoring"
)

func featuresCmd() *cobra.Command {
	var title, description, deadline, created, now string
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Print the predictor features derived for a hypothetical task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return errors.New("--title is required")
			}
			at, err := parseInstant(now, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("--now: %w", err)
			}
			createdAt, err := parseInstant(created, at)
			if err != nil {
				return fmt.Errorf("--created: %w", err)
			}
			task := &domain.Task{Title: title, Description: description, CreatedAt: createdAt}
			if deadline != "" {
				d, err := time.Parse(time.RFC3339, deadline)
				if err != nil {
					return fmt.Errorf("--deadline: %w", err)
				}
				task.Deadline = d
			}
			task.ApplyDefaults(createdAt)

			features := scoring.DeriveFeatures(task, at, at)
			if jsonOutput {
				return printJSON(features)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Feature", "Value"})
			tw.AppendRows(featureRows(features))
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (RFC3339); defaults to created + 24h")
	cmd.Flags().StringVar(&created, "created", "", "creation time (RFC3339); defaults to --now")
	cmd.Flags().StringVar(&now, "now", "", "reference instant (RFC3339); defaults to the current time")
	return cmd
}

func parseInstant(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func featureRows(f domain.Features) []table.Row {
	return []table.Row{
		{"deadline_gap_hours", fmt.Sprintf("%.2f", f.DeadlineGapHours)},
		{"day_of_week", time.Weekday(f.DayOfWeek).String()},
		{"hour_of_day", f.HourOfDay},
		{"is_weekend", f.IsWeekend},
		{"time_of_day", f.TimeOfDay},
		{"has_description", f.HasDescription},
		{"title_length", f.TitleLength},
		{"task_length", f.TaskLength},
		{"time_to_deadline_hours", fmt.Sprintf("%.2f", f.TimeToDeadlineHours)},
		{"urgency", f.Urgency},
	}
}
