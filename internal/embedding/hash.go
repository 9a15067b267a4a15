// ABOUTME: Deterministic offline encoder based on feature hashing
// ABOUTME: Texts sharing words and character trigrams land close together; not a semantic model
package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashEncoder hashes word unigrams and character trigrams into Dim signed buckets
type HashEncoder struct {
	Dim int
}

func NewHashEncoder(dim int) *HashEncoder {
	return &HashEncoder{Dim: dim}
}

func (h *HashEncoder) Encode(_ context.Context, text string) ([]float64, error) {
	if h.Dim <= 0 {
		return nil, fmt.Errorf("hash encoder dimension must be positive, got %d", h.Dim)
	}
	vec := make([]float64, h.Dim)
	words := tokenize(text)
	if len(words) == 0 {
		// Keep blank input encodable; it still normalizes to a unit vector
		words = []string{""}
	}
	for _, w := range words {
		h.add(vec, "w:"+w, 1.0)
		padded := "#" + w + "#"
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			h.add(vec, "t:"+string(runes[i:i+3]), 0.5)
		}
	}
	return vec, nil
}

func (h *HashEncoder) add(vec []float64, feature string, weight float64) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(len(vec)))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
