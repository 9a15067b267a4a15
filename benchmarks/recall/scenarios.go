// ABOUTME: Labeled note pairs for calibrating the recall threshold
// ABOUTME: Each scenario lists which previous points a reader would count as recalled

package recall

// Scenario is one previous/current note pair with hand-labeled ground truth
type Scenario struct {
	ID          string
	Name        string
	Description string
	Prev        []string
	Curr        []string
	// Recalled holds the indexes into Prev that a human grader marks as recalled
	Recalled []int
}

// ExpectedScore is the recall score a perfect scorer would report
func (s Scenario) ExpectedScore() float64 {
	if len(s.Prev) == 0 {
		return 100.0
	}
	return 100.0 * float64(len(s.Recalled)) / float64(len(s.Prev))
}

// GetExactRepeat covers a learner who writes the same points again
func GetExactRepeat() Scenario {
	points := []string{
		"Mitochondria produce ATP through cellular respiration",
		"The nucleus stores the cell's DNA",
		"Ribosomes translate mRNA into proteins",
	}
	return Scenario{
		ID:          "exact",
		Name:        "Exact repeat",
		Description: "Identical points must always count as recalled",
		Prev:        points,
		Curr:        append([]string(nil), points...),
		Recalled:    []int{0, 1, 2},
	}
}

// GetParaphrase covers points restated in different words
func GetParaphrase() Scenario {
	return Scenario{
		ID:          "paraphrase",
		Name:        "Paraphrased recall",
		Description: "Rewording a point keeps it recalled",
		Prev: []string{
			"Mitochondria produce ATP through cellular respiration",
			"Photosynthesis converts light energy into chemical energy",
			"Enzymes lower the activation energy of reactions",
		},
		Curr: []string{
			"ATP is made in the mitochondria by respiration",
			"Plants turn sunlight into chemical energy with photosynthesis",
			"Enzymes make reactions need less activation energy",
		},
		Recalled: []int{0, 1, 2},
	}
}

// GetPartialRecall covers a day 3 session that forgot half the material
func GetPartialRecall() Scenario {
	return Scenario{
		ID:          "partial",
		Name:        "Partial recall",
		Description: "Forgotten points must be reported as missed in order",
		Prev: []string{
			"The French Revolution began in 1789",
			"The Bastille was stormed on 14 July",
			"Louis XVI was executed in 1793",
			"Napoleon crowned himself emperor in 1804",
		},
		Curr: []string{
			"The French Revolution started in 1789",
			"Napoleon became emperor in 1804",
		},
		Recalled: []int{0, 3},
	}
}

// GetTopicDrift covers notes on a related subject that recall nothing
func GetTopicDrift() Scenario {
	return Scenario{
		ID:          "drift",
		Name:        "Topic drift",
		Description: "Related but different facts must not count as recall",
		Prev: []string{
			"Water boils at 100 degrees Celsius at sea level",
			"Ice is less dense than liquid water",
		},
		Curr: []string{
			"Ethanol boils at 78 degrees Celsius",
			"Mercury is a liquid metal at room temperature",
		},
		Recalled: []int{},
	}
}

// GetBlankRecall covers a session where nothing was written down
func GetBlankRecall() Scenario {
	return Scenario{
		ID:          "blank",
		Name:        "Unrelated notes",
		Description: "Notes about another subject score zero",
		Prev: []string{
			"Sonnets have fourteen lines",
			"Iambic pentameter has ten syllables per line",
		},
		Curr: []string{
			"Gradient descent follows the negative gradient",
		},
		Recalled: []int{},
	}
}

// AllScenarios returns every built-in scenario
func AllScenarios() []Scenario {
	return []Scenario{
		GetExactRepeat(),
		GetParaphrase(),
		GetPartialRecall(),
		GetTopicDrift(),
		GetBlankRecall(),
	}
}

// ScenarioByID finds a built-in scenario
func ScenarioByID(id string) (Scenario, bool) {
	for _, s := range AllScenarios() {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}
