// ABOUTME: Root command and global flags for the tracker CLI
// ABOUTME: Registers every subcommand and validates the output flags
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
 ██╗██████╗ ██████╗ ████████╗██████╗  █████╗  ██████╗██╗  ██╗███████╗██████╗
███║╚════██╗╚════██╗╚══██╔══╝██╔══██╗██╔══██╗██╔════╝██║ ██╔╝██╔════╝██╔══██╗
╚██║ █████╔╝ █████╔╝   ██║   ██████╔╝███████║██║     █████╔╝ █████╗  ██████╔╝
 ██║██╔═══╝  ╚═══██╗   ██║   ██╔══██╗██╔══██║██║     ██╔═██╗ ██╔══╝  ██╔══██╗
 ██║███████╗██████╔╝   ██║   ██║  ██║██║  ██║╚██████╗██║  ██╗███████╗██║  ██║
 ╚═╝╚══════╝╚═════╝    ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Spaced-repetition recall tracker",
		Long: banner + `

Track what you remember across day 1, 3 and 7 review sessions.

Each topic gets three sessions. Write down what you recall in each one
and the tracker scores how much of the previous session's notes you
still remember, sends reminder emails for due sessions, and suggests
interval changes from self-reported solo metrics.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}
			switch outputFormat {
			case "auto", "table", "json":
				return nil
			default:
				return fmt.Errorf("--format must be auto, table or json, got %q", outputFormat)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress logs and informational output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table or json")

	cmd.AddCommand(
		NewServeCmd(),
		NewSweepCmd(),
		NewDueCmd(),
		NewCompareCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
