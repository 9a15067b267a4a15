// ABOUTME: Solo trend analyzer turning self-reported metrics into a suggestion
// ABOUTME: Only the mean of percent_remembered drives the decision
package core

import "github.com/harper/recall-tracker/internal/models"

// TrendKind classifies a suggestion
type TrendKind string

const (
	TrendNoData           TrendKind = "no_data"
	TrendIncreaseInterval TrendKind = "increase_interval"
	TrendScheduleSooner   TrendKind = "schedule_sooner"
	TrendMaintainPace     TrendKind = "maintain_pace"
)

// Suggestion returns the human-readable text for k
func (k TrendKind) Suggestion() string {
	switch k {
	case TrendIncreaseInterval:
		return "Great retention! Consider increasing the interval before your next session."
	case TrendScheduleSooner:
		return "Low retention. Consider scheduling your next session sooner."
	case TrendMaintainPace:
		return "Steady retention. Keep your current pace."
	default:
		return "No data yet. Record a solo session to see your trend."
	}
}

// TrendConfig holds the thresholds on average percent remembered
type TrendConfig struct {
	High float64
	Low  float64
}

func DefaultTrendConfig() TrendConfig {
	return TrendConfig{High: 85, Low: 60}
}

// Trend is the analyzer's verdict over one window of metrics
type Trend struct {
	Kind              TrendKind
	Suggestion        string
	AverageRemembered float64
	Samples           int
}

// AnalyzeTrend averages percent remembered over metrics, which the caller has
// already limited to the most recent window.
func AnalyzeTrend(metrics []models.SoloMetric, cfg TrendConfig) Trend {
	if len(metrics) == 0 {
		return Trend{Kind: TrendNoData, Suggestion: TrendNoData.Suggestion()}
	}

	var sum float64
	for _, m := range metrics {
		sum += m.PercentRemembered
	}
	avg := sum / float64(len(metrics))

	kind := TrendMaintainPace
	switch {
	case avg >= cfg.High:
		kind = TrendIncreaseInterval
	case avg < cfg.Low:
		kind = TrendScheduleSooner
	}

	return Trend{
		Kind:              kind,
		Suggestion:        kind.Suggestion(),
		AverageRemembered: avg,
		Samples:           len(metrics),
	}
}
