// ABOUTME: Compare command scores recall between two files of note points
// ABOUTME: Runs the configured embedder directly without touching the database
package commands

import (
	"fmt"

	"github.com/harper/recall-tracker/internal/app"
	"github.com/harper/recall-tracker/internal/tracker"
	"github.com/spf13/cobra"
)

var compareThreshold float64

// NewCompareCmd creates the compare command
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare PREV_FILE CURR_FILE",
		Short: "Score recall between two note files",
		Long: `Score how many points of PREV_FILE are recalled in CURR_FILE.

Each non-blank line is one point; leading "- " or "* " bullets are ignored.
A previous point counts as recalled when its best cosine similarity with
any current point is at or above the threshold.

Examples:
  tracker compare day1.txt day3.txt
  tracker compare --threshold 0.75 day3.txt day7.txt --format json`,
		Args: cobra.ExactArgs(2),
		RunE: runCompare,
	}
	cmd.Flags().Float64Var(&compareThreshold, "threshold", 0, "Similarity threshold (default: COMPARE_THRESHOLD)")
	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	threshold := cfg.CompareThreshold
	if cmd.Flags().Changed("threshold") {
		threshold = compareThreshold
	}

	prev, err := readPointsFile(args[0])
	if err != nil {
		return err
	}
	curr, err := readPointsFile(args[1])
	if err != nil {
		return err
	}

	embedder, closeCache := app.NewEmbedder(cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	result, err := tracker.CompareTexts(cmd.Context(), embedder, prev, curr, threshold)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		missed := make([]map[string]interface{}, 0, len(result.MissedPoints))
		for _, m := range result.MissedPoints {
			missed = append(missed, map[string]interface{}{"index": m.Index, "text": m.Text})
		}
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"recall_score":  result.RecallScore,
			"missed_points": missed,
			"threshold":     threshold,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recall score: %.1f%% (%d of %d points)\n",
		result.RecallScore, len(prev)-len(result.MissedPoints), len(prev))
	if len(result.MissedPoints) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Missed:\n")
		for _, m := range result.MissedPoints {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", m.Index+1, m.Text)
		}
	}
	return nil
}
