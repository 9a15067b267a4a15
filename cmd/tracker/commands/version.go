// ABOUTME: Version command reporting the build and the recall defaults compiled into it
// ABOUTME: Lists the embedding model and dimension stored vectors must match, plus scoring defaults
package commands

import (
	"fmt"
	"strings"

	"github.com/harper/recall-tracker/internal/config"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/spf13/cobra"
)

// BuildInfo is stamped by the linker through main
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"built"`
}

var build = BuildInfo{Version: "dev", Commit: "none", Date: "unknown"}

// SetVersion records build information (called from main)
func SetVersion(version, commit, date string) {
	build = BuildInfo{Version: version, Commit: commit, Date: date}
}

// buildDefaults are the settings a fresh install runs with. Vectors stored
// under a different model or dimension are not comparable with new ones.
type buildDefaults struct {
	EmbeddingProvider string  `json:"embedding_provider"`
	EmbeddingModel    string  `json:"embedding_model"`
	VectorDimension   int     `json:"vector_dimension"`
	CompareThreshold  float64 `json:"compare_threshold"`
	SessionDays       []int   `json:"session_days"`
	TrendHigh         float64 `json:"trend_high"`
	TrendLow          float64 `json:"trend_low"`
	TrendWindow       int     `json:"trend_window"`
}

func compiledDefaults() buildDefaults {
	cfg := config.Defaults()
	days := make([]int, len(models.DayIndexes))
	for i, d := range models.DayIndexes {
		days[i] = int(d)
	}
	return buildDefaults{
		EmbeddingProvider: cfg.EmbeddingProvider,
		EmbeddingModel:    cfg.EmbeddingModel,
		VectorDimension:   cfg.VectorDimension,
		CompareThreshold:  cfg.CompareThreshold,
		SessionDays:       days,
		TrendHigh:         cfg.TrendHigh,
		TrendLow:          cfg.TrendLow,
		TrendWindow:       cfg.TrendWindow,
	}
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show build and recall defaults",
		Long: `Display the version, commit and build date, followed by the embedding
and scoring defaults this binary ships with. Environment overrides such as
VECTOR_DIMENSION are not applied here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, build.Version)
				return nil
			}

			defaults := compiledDefaults()
			if outputFormat == "json" {
				return printJSON(out, map[string]interface{}{"build": build, "defaults": defaults})
			}

			days := make([]string, len(defaults.SessionDays))
			for i, d := range defaults.SessionDays {
				days[i] = fmt.Sprint(d)
			}
			fmt.Fprintf(out, "123tracker %s (commit %s, built %s)\n", build.Version, build.Commit, build.Date)
			fmt.Fprintf(out, "Embedding: %s/%s, %d dimensions\n",
				defaults.EmbeddingProvider, defaults.EmbeddingModel, defaults.VectorDimension)
			fmt.Fprintf(out, "Recall threshold: %.2f\n", defaults.CompareThreshold)
			fmt.Fprintf(out, "Sessions: day %s\n", strings.Join(days, ", "))
			fmt.Fprintf(out, "Solo trend: high %g, low %g, last %d metrics\n",
				defaults.TrendHigh, defaults.TrendLow, defaults.TrendWindow)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
