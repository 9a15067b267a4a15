// ABOUTME: Serve command runs the HTTP API with the daily reminder scheduler
// ABOUTME: Listens until interrupted, then drains connections and stops the scheduler
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and reminder scheduler",
		Long: `Run the HTTP API and reminder scheduler.

Listens on HTTP_ADDR (or :PORT) and sends reminder emails for due
sessions on REMINDER_SCHEDULE, evaluated in TIMEZONE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx)
		},
	}
}
