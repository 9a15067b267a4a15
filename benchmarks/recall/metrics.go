// ABOUTME: Metrics for grading recall results against labeled scenarios
// ABOUTME: Precision and recall of the recalled-point decision plus score error

package recall

import (
	"fmt"
	"math"

	"github.com/harper/recall-tracker/internal/core"
)

// Result is one scenario graded at one threshold
type Result struct {
	ScenarioID    string                 `json:"scenario_id"`
	ScenarioName  string                 `json:"scenario_name"`
	Threshold     float64                `json:"threshold"`
	Precision     float64                `json:"precision"`
	Recall        float64                `json:"recall"`
	F1            float64                `json:"f1"`
	Score         float64                `json:"score"`
	ExpectedScore float64                `json:"expected_score"`
	ScoreError    float64                `json:"score_error"`
	Status        string                 `json:"status"`
	Details       map[string]interface{} `json:"details"`
}

// Grade compares a scorer result with the scenario's labels.
// A scenario with no recalled points and no false positives grades as perfect.
func Grade(s Scenario, threshold float64, got core.RecallResult) Result {
	missed := make(map[int]bool, len(got.MissedPoints))
	for _, m := range got.MissedPoints {
		missed[m.Index] = true
	}
	want := make(map[int]bool, len(s.Recalled))
	for _, i := range s.Recalled {
		want[i] = true
	}

	var tp, fp, fn int
	var falseHits, falseMisses []string
	for i, text := range s.Prev {
		predicted := !missed[i]
		switch {
		case predicted && want[i]:
			tp++
		case predicted:
			fp++
			falseHits = append(falseHits, text)
		case want[i]:
			fn++
			falseMisses = append(falseMisses, text)
		}
	}

	precision := ratio(tp, tp+fp)
	recall := ratio(tp, tp+fn)
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	if tp+fp+fn == 0 {
		f1 = 1.0
	}

	status := "FAIL"
	if f1 >= 0.9 {
		status = "PASS"
	}

	expected := s.ExpectedScore()
	return Result{
		ScenarioID:    s.ID,
		ScenarioName:  s.Name,
		Threshold:     threshold,
		Precision:     precision,
		Recall:        recall,
		F1:            f1,
		Score:         got.RecallScore,
		ExpectedScore: expected,
		ScoreError:    math.Abs(got.RecallScore - expected),
		Status:        status,
		Details: map[string]interface{}{
			"false_recalls": falseHits,
			"false_misses":  falseMisses,
			"summary":       fmt.Sprintf("tp=%d fp=%d fn=%d", tp, fp, fn),
		},
	}
}

// ratio returns 1 when there is nothing to measure
func ratio(n, d int) float64 {
	if d == 0 {
		return 1.0
	}
	return float64(n) / float64(d)
}

// Summary aggregates every scenario at one threshold
type Summary struct {
	Threshold      float64 `json:"threshold"`
	MeanF1         float64 `json:"mean_f1"`
	MeanScoreError float64 `json:"mean_score_error"`
	Passed         int     `json:"passed"`
	Failed         int     `json:"failed"`
}

// Summarize folds results that share a threshold
func Summarize(threshold float64, results []Result) Summary {
	sum := Summary{Threshold: threshold}
	if len(results) == 0 {
		return sum
	}
	for _, r := range results {
		sum.MeanF1 += r.F1
		sum.MeanScoreError += r.ScoreError
		if r.Status == "PASS" {
			sum.Passed++
		} else {
			sum.Failed++
		}
	}
	sum.MeanF1 /= float64(len(results))
	sum.MeanScoreError /= float64(len(results))
	return sum
}

// Best picks the threshold with the highest mean F1, breaking ties by lower score error
func Best(summaries []Summary) (Summary, bool) {
	if len(summaries) == 0 {
		return Summary{}, false
	}
	best := summaries[0]
	for _, s := range summaries[1:] {
		if s.MeanF1 > best.MeanF1 || (s.MeanF1 == best.MeanF1 && s.MeanScoreError < best.MeanScoreError) {
			best = s
		}
	}
	return best, true
}
