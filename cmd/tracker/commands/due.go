// ABOUTME: Due command lists sessions scheduled for a date
// ABOUTME: Prints a table or JSON of scheduled sessions across all users
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var dueDate string

type dueRow struct {
	SessionID string `json:"session_id"`
	TopicID   string `json:"topic_id"`
	Topic     string `json:"topic"`
	DayIndex  int    `json:"day_index"`
	Date      string `json:"scheduled_for"`
}

// NewDueCmd creates the due command
func NewDueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List sessions due on a date",
		Long: `List every scheduled session due on a date across all users.

Examples:
  tracker due
  tracker due --date 2024-03-11 --format json`,
		Args: cobra.NoArgs,
		RunE: runDue,
	}
	cmd.Flags().StringVar(&dueDate, "date", "", "Date to check, YYYY-MM-DD (default: today)")
	return cmd
}

func runDue(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := resolveDate(dueDate, a.Cfg)
	if err != nil {
		return err
	}
	reminders, err := a.Service.DueReminders(cmd.Context(), date)
	if err != nil {
		return err
	}

	rows := make([]dueRow, 0, len(reminders))
	for _, r := range reminders {
		rows = append(rows, dueRow{
			SessionID: r.Session.ID.String(),
			TopicID:   r.Topic.ID.String(),
			Topic:     r.Topic.Title,
			DayIndex:  int(r.Session.DayIndex),
			Date:      r.Session.ScheduledFor.String(),
		})
	}

	if outputFormat == "json" {
		return printJSON(cmd.OutOrStdout(), rows)
	}
	if len(rows) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No sessions due on %s\n", date)
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TOPIC\tDAY\tDATE\tSESSION ID\n")
	fmt.Fprintf(w, "-----\t---\t----\t----------\n")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", truncate(row.Topic, 40), row.DayIndex, row.Date, row.SessionID)
	}
	return w.Flush()
}
