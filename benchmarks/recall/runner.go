// ABOUTME: Benchmark runner that scores every scenario across a threshold sweep
// ABOUTME: Embeds each scenario once and reuses the vectors for every threshold

package recall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harper/recall-tracker/internal/core"
	"github.com/harper/recall-tracker/internal/tracker"
)

// Runner executes calibration benchmarks with a given embedder
type Runner struct {
	embedder tracker.Embedder
	out      io.Writer
	verbose  bool
}

// NewRunner creates a runner; progress goes to out when verbose is set
func NewRunner(embedder tracker.Embedder, out io.Writer, verbose bool) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{embedder: embedder, out: out, verbose: verbose}
}

// Report is the exported result of a sweep
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Results     []Result  `json:"results"`
	Summaries   []Summary `json:"summaries"`
	Best        *Summary  `json:"best,omitempty"`
}

type embedded struct {
	scenario Scenario
	prev     []core.Point
	curr     []core.Point
}

// Run grades each scenario at each threshold
func (r *Runner) Run(ctx context.Context, scenarios []Scenario, thresholds []float64) (*Report, error) {
	prepared := make([]embedded, 0, len(scenarios))
	for _, s := range scenarios {
		e, err := r.embed(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.ID, err)
		}
		prepared = append(prepared, e)
	}

	report := &Report{GeneratedAt: time.Now().UTC()}
	for _, threshold := range thresholds {
		var batch []Result
		for _, e := range prepared {
			got, err := core.Compare(e.prev, e.curr, threshold)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: %w", e.scenario.ID, err)
			}
			res := Grade(e.scenario, threshold, got)
			if r.verbose {
				fmt.Fprintf(r.out, "[%.2f] %-20s F1=%.2f score=%.1f expected=%.1f %s\n",
					threshold, e.scenario.Name, res.F1, res.Score, res.ExpectedScore, res.Status)
			}
			batch = append(batch, res)
		}
		report.Results = append(report.Results, batch...)
		report.Summaries = append(report.Summaries, Summarize(threshold, batch))
	}

	if best, ok := Best(report.Summaries); ok {
		report.Best = &best
	}
	return report, nil
}

func (r *Runner) embed(ctx context.Context, s Scenario) (embedded, error) {
	texts := append(append([]string(nil), s.Prev...), s.Curr...)
	vectors, err := r.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return embedded{}, err
	}
	prev, err := core.NewPoints(s.Prev, vectors[:len(s.Prev)])
	if err != nil {
		return embedded{}, err
	}
	curr, err := core.NewPoints(s.Curr, vectors[len(s.Prev):])
	if err != nil {
		return embedded{}, err
	}
	return embedded{scenario: s, prev: prev, curr: curr}, nil
}

// ExportResults writes the report as indented JSON
func ExportResults(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
