// ABOUTME: Recall scorer comparing a previous session's points with the current one
// ABOUTME: A prior point is recalled when its best cosine match meets the threshold
package core

import "fmt"

// DefaultThreshold is the similarity at or above which a point counts as recalled
const DefaultThreshold = 0.80

// MissedPoint is a previous point whose best match fell below the threshold.
// Index is its position in the prev slice.
type MissedPoint struct {
	Index int
	Text  string
}

// RecallResult holds the score (0-100, unrounded) and the missed points in prev order
type RecallResult struct {
	RecallScore  float64
	MissedPoints []MissedPoint
}

// Compare scores how much of prev is recalled in curr.
// Embeddings must be unit-norm so the dot product equals cosine similarity.
func Compare(prev, curr []Point, threshold float64) (RecallResult, error) {
	if err := validate(prev, curr); err != nil {
		return RecallResult{}, err
	}

	if len(prev) == 0 {
		return RecallResult{RecallScore: 100.0, MissedPoints: []MissedPoint{}}, nil
	}

	missed := make([]MissedPoint, 0, len(prev))
	if len(curr) == 0 {
		for i, p := range prev {
			missed = append(missed, MissedPoint{Index: i, Text: p.text})
		}
		return RecallResult{RecallScore: 0.0, MissedPoints: missed}, nil
	}

	recalled := 0
	for i, p := range prev {
		best := dot(p.embedding, curr[0].embedding)
		for _, c := range curr[1:] {
			if s := dot(p.embedding, c.embedding); s > best {
				best = s
			}
		}
		if best >= threshold {
			recalled++
			continue
		}
		missed = append(missed, MissedPoint{Index: i, Text: p.text})
	}

	return RecallResult{
		RecallScore:  100.0 * float64(recalled) / float64(len(prev)),
		MissedPoints: missed,
	}, nil
}

// validate runs before any similarity work so no partial result escapes
func validate(prev, curr []Point) error {
	dim := 0
	check := func(side string, points []Point) error {
		for i, p := range points {
			if len(p.embedding) == 0 {
				return fmt.Errorf("%s[%d]: %w", side, i, ErrMissingEmbedding)
			}
			if dim == 0 {
				dim = len(p.embedding)
				continue
			}
			if len(p.embedding) != dim {
				return fmt.Errorf("%s[%d]: %w: got %d, want %d", side, i, ErrDimensionMismatch, len(p.embedding), dim)
			}
		}
		return nil
	}
	if err := check("prev", prev); err != nil {
		return err
	}
	return check("curr", curr)
}
