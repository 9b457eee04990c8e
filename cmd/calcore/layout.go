package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"calcore/internal/layout"
	"calcore/internal/recurrence"
)

var (
	layoutDate string
	layoutDays int
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Show conflict groups and column assignments per day",
	RunE:  runLayout,
}

func init() {
	layoutCmd.Flags().StringVar(&layoutDate, "date", "", "First day YYYY-MM-DD (default: today)")
	layoutCmd.Flags().IntVar(&layoutDays, "days", 1, "Number of days to lay out")
	rootCmd.AddCommand(layoutCmd)
}

func runLayout(cmd *cobra.Command, _ []string) error {
	anchor, err := today()
	if err != nil {
		return err
	}
	start, err := dateFlagOr(layoutDate, anchor)
	if err != nil {
		return err
	}
	if layoutDays < 1 {
		return fmt.Errorf("--days must be at least 1, got %d", layoutDays)
	}

	st, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}
	events, _ := st.Snapshot()

	res, err := recurrence.ExpandAll(events, recurrence.Window{Start: start, End: start.AddDays(layoutDays - 1)})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	days := layout.SplitByDate(res.Instances)
	if len(days) == 0 {
		fmt.Fprintln(out, "No events found.")
		return nil
	}
	for _, day := range days {
		printDay(out, day)
	}
	return nil
}

func printDay(out io.Writer, day layout.Day) {
	fmt.Fprintf(out, "%s (%s)\n", day.Date, day.Date.Weekday())
	for _, g := range layout.LayoutDay(day.Events) {
		if g.Conflicting() {
			fmt.Fprintf(out, "  conflict group, %d columns\n", g.Columns)
		}
		for _, ev := range g.Events {
			pos := g.Positions[ev.ID]
			fmt.Fprintf(out, "    [%d/%d] %s-%s %s\n", pos.Column+1, g.Columns, ev.StartTime, ev.EndTime, ev.Title)
		}
	}
}
