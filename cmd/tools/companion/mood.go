package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/manasbridge/backend/internal/app"
	"github.com/zhouzirui/manasbridge/backend/internal/model/mood"
)

func newMoodCmd(services func() *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mood",
		Short: "Record and review mood check-ins",
	}
	cmd.AddCommand(newMoodRecordCmd(services), newMoodListCmd(services), newMoodChartCmd(services))
	return cmd
}

func newMoodRecordCmd(services func() *app.App) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "record <mood>",
		Short: "Record a check-in (Ecstatic, Happy, Okay, Sad, Anxious, Stressed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mood.Parse(args[0])
			if err != nil {
				return err
			}
			entry, err := services().Mood.Record(cmd.Context(), m, note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s\n", entry.Mood.Emoji(), entry.Mood)
			return nil
		},
	}
	cmd.Flags().StringVarP(&note, "note", "n", "", "Optional journal note")
	return cmd
}

func newMoodListCmd(services func() *app.App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List check-ins, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := services().Mood.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No check-ins yet.")
				return nil
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %s %-8s", e.Date.Local().Format("2006-01-02 15:04"), e.Mood.Emoji(), e.Mood)
				if e.Note != "" {
					line += "  " + e.Note
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Show at most this many entries (0 for all)")
	return cmd
}

func newMoodChartCmd(services func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "chart",
		Short: "Plot check-ins oldest first on the valence scale",
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := services().Mood.Chart(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range points {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s %s\n", p.Date.Local().Format("01-02 15:04"), p.Mood, strings.Repeat("█", p.Value))
			}
			return nil
		},
	}
}
