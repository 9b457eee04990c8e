package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"calcore/internal/model"
	"calcore/internal/recurrence"
)

var (
	expandFrom string
	expandTo   string
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "List event instances in a date window",
	Long: `Expand every base event into dated instances between --from and --to
(inclusive). Defaults to the configured window around today.`,
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().StringVar(&expandFrom, "from", "", "Window start YYYY-MM-DD")
	expandCmd.Flags().StringVar(&expandTo, "to", "", "Window end YYYY-MM-DD")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, _ []string) error {
	anchor, err := today()
	if err != nil {
		return err
	}
	def := recurrence.WindowAround(anchor, cfg.WindowBackMonths, cfg.WindowForwardMonths)

	from, err := dateFlagOr(expandFrom, def.Start)
	if err != nil {
		return err
	}
	to, err := dateFlagOr(expandTo, def.End)
	if err != nil {
		return err
	}

	st, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}
	events, _ := st.Snapshot()

	res, err := recurrence.ExpandAll(events, recurrence.Window{Start: from, End: to})
	if err != nil {
		return err
	}

	printInstances(cmd.OutOrStdout(), res.Instances)
	for _, id := range res.Truncated {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s truncated after %d iterations\n", id, recurrence.MaxIterations)
	}
	return nil
}

func printInstances(out io.Writer, events []model.Event) {
	if len(events) == 0 {
		fmt.Fprintln(out, "No events found.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTIME\tID\tTITLE")
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%s\n", ev.Date, ev.StartTime, ev.EndTime, ev.ID, ev.Title)
	}
	tw.Flush()
}
