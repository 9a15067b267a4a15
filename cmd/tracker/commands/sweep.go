// ABOUTME: Sweep command runs one due-notification sweep immediately
// ABOUTME: Useful from an external scheduler or to backfill a missed day
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepDate string

// NewSweepCmd creates the sweep command
func NewSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Send reminders for sessions due today",
		Long: `Send reminder emails for every scheduled session due on a date
and record one notification per email sent.

Examples:
  tracker sweep
  tracker sweep --date 2024-03-11`,
		Args: cobra.NoArgs,
		RunE: runSweep,
	}
	cmd.Flags().StringVar(&sweepDate, "date", "", "Date to sweep, YYYY-MM-DD (default: today)")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	date, err := resolveDate(sweepDate, a.Cfg)
	if err != nil {
		return err
	}
	report, err := a.Sweeper().Run(cmd.Context(), date)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		failures := make([]map[string]string, 0, len(report.Failures))
		for _, f := range report.Failures {
			failures = append(failures, map[string]string{"session_id": f.SessionID.String(), "error": f.Err.Error()})
		}
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"date":     report.Date,
			"due":      report.Due,
			"sent":     report.Sent,
			"no_email": report.NoEmail,
			"failures": failures,
		})
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Sweep for %s: %d due, %d sent, %d without email, %d failed\n",
			report.Date, report.Due, report.Sent, report.NoEmail, len(report.Failures))
	}
	for _, f := range report.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", f.SessionID, f.Err)
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d reminders failed", len(report.Failures))
	}
	return nil
}
