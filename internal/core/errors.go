// ABOUTME: Sentinel errors for the recall core
// ABOUTME: Callers test them with errors.Is after wrapping
package core

import "errors"

var (
	// ErrMissingEmbedding is returned when a point carries no embedding
	ErrMissingEmbedding = errors.New(`missing key "embedding"`)
	// ErrDimensionMismatch is returned when embeddings in one comparison differ in length
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrEmptyText is returned when a point has no text
	ErrEmptyText = errors.New("point text cannot be empty")
	// ErrNoPreviousSession is returned when no session precedes the given day index
	ErrNoPreviousSession = errors.New("no previous session")
)
