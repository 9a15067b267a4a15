// ABOUTME: Point is an immutable (text, embedding) pair fed to the recall scorer
// ABOUTME: Construction validates both fields so scoring never sees half-built points
package core

import (
	"fmt"
	"strings"
)

// Point is a single note bullet with its unit-norm embedding
type Point struct {
	text      string
	embedding []float64
}

// NewPoint validates and copies its inputs. A nil or empty embedding is rejected.
func NewPoint(text string, embedding []float64) (Point, error) {
	if strings.TrimSpace(text) == "" {
		return Point{}, ErrEmptyText
	}
	if len(embedding) == 0 {
		return Point{}, ErrMissingEmbedding
	}
	vec := make([]float64, len(embedding))
	copy(vec, embedding)
	return Point{text: text, embedding: vec}, nil
}

// NewPoints zips texts and embeddings, failing on the first bad pair
func NewPoints(texts []string, embeddings [][]float64) ([]Point, error) {
	if len(texts) != len(embeddings) {
		return nil, fmt.Errorf("got %d texts but %d embeddings", len(texts), len(embeddings))
	}
	points := make([]Point, len(texts))
	for i := range texts {
		p, err := NewPoint(texts[i], embeddings[i])
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		points[i] = p
	}
	return points, nil
}

func (p Point) Text() string {
	return p.text
}

// Dim returns the embedding length, zero for an unconstructed Point
func (p Point) Dim() int {
	return len(p.embedding)
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
