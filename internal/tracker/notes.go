// ABOUTME: Note points and recall comparison between a session and its predecessor
// ABOUTME: Embeddings are computed once when points are added and reused by every comparison
package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/apierr"
	"github.com/harper/recall-tracker/internal/core"
	"github.com/harper/recall-tracker/internal/models"
	"github.com/harper/recall-tracker/internal/storage"
)

// AddNotes embeds texts and appends them to the session in the given order
func (s *Service) AddNotes(ctx context.Context, user *models.User, sessionID uuid.UUID, texts []string) ([]models.NotePoint, error) {
	if len(texts) > s.cfg.MaxPoints {
		return nil, apierr.Validation("too_many_points", fmt.Sprintf("Maximum of %d points per session", s.cfg.MaxPoints))
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, apierr.Validation("empty_point", fmt.Sprintf("Point %d is empty", i+1))
		}
	}
	session, _, err := s.ownedSession(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return []models.NotePoint{}, nil
	}

	vectors, err := s.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("embedding notes: %w", err))
	}

	now := s.now().UTC()
	points := make([]models.NotePoint, len(texts))
	for i, t := range texts {
		points[i] = models.NotePoint{ID: uuid.New(), Text: t, CreatedAt: now}
		points[i].SetVector(vectors[i])
	}
	if err := s.db.AddNotePoints(ctx, session.ID, points); err != nil {
		return nil, apierr.Internal(err)
	}

	s.log.Info("notes added", "session_id", session.ID, "count", len(points))
	return points, nil
}

// ListNotes returns a session's points in insertion order
func (s *Service) ListNotes(ctx context.Context, user *models.User, sessionID uuid.UUID) ([]models.NotePoint, error) {
	if _, _, err := s.ownedSession(ctx, user, sessionID); err != nil {
		return nil, err
	}
	points, err := s.db.ListNotePoints(ctx, sessionID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return points, nil
}

// CompareSession scores the session's notes against the previous session's
// and stores the result as a new comparison.
func (s *Service) CompareSession(ctx context.Context, user *models.User, sessionID uuid.UUID) (*models.Comparison, error) {
	session, _, err := s.ownedSession(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}

	currNotes, err := s.db.ListNotePoints(ctx, session.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if len(currNotes) == 0 {
		return nil, apierr.Validation("no_notes", "No notes found for current session")
	}

	prevSession, err := s.previousOf(ctx, session)
	if err != nil {
		return nil, err
	}
	prevNotes, err := s.db.ListNotePoints(ctx, prevSession.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	prevPoints, err := toPoints(prevNotes)
	if err != nil {
		return nil, compareError(fmt.Errorf("previous session: %w", err))
	}
	currPoints, err := toPoints(currNotes)
	if err != nil {
		return nil, compareError(fmt.Errorf("current session: %w", err))
	}
	result, err := core.Compare(prevPoints, currPoints, s.cfg.Threshold)
	if err != nil {
		return nil, compareError(err)
	}

	missed := make([]models.MissedPoint, len(result.MissedPoints))
	for i, m := range result.MissedPoints {
		id := prevNotes[m.Index].ID
		missed[i] = models.MissedPoint{Text: m.Text, PrevPointID: &id}
	}
	comparison := &models.Comparison{
		ID:                  uuid.New(),
		SessionID:           session.ID,
		ComparedToSessionID: &prevSession.ID,
		RecallScore:         result.RecallScore,
		MissedPoints:        missed,
		CreatedAt:           s.now().UTC(),
	}
	if err := s.db.SaveComparison(ctx, comparison); err != nil {
		return nil, apierr.Internal(err)
	}

	s.log.Info("session compared",
		"session_id", session.ID,
		"previous_session_id", prevSession.ID,
		"recall_score", result.RecallScore,
		"missed", len(missed))
	return comparison, nil
}

// LatestComparison returns the newest comparison stored for the session
func (s *Service) LatestComparison(ctx context.Context, user *models.User, sessionID uuid.UUID) (*models.Comparison, error) {
	if _, _, err := s.ownedSession(ctx, user, sessionID); err != nil {
		return nil, err
	}
	c, err := s.db.LatestComparison(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apierr.NotFound("comparison_not_found", "No comparison found for session", err)
		}
		return nil, apierr.Internal(err)
	}
	return c, nil
}

// CompareTexts embeds two lists of points and scores them without touching storage
func CompareTexts(ctx context.Context, embedder Embedder, prev, curr []string, threshold float64) (core.RecallResult, error) {
	all := make([]string, 0, len(prev)+len(curr))
	all = append(all, prev...)
	all = append(all, curr...)

	var vectors [][]float64
	if len(all) > 0 {
		var err error
		if vectors, err = embedder.EmbedAll(ctx, all); err != nil {
			return core.RecallResult{}, fmt.Errorf("embedding points: %w", err)
		}
	}

	prevPoints, err := core.NewPoints(prev, vectors[:len(prev)])
	if err != nil {
		return core.RecallResult{}, err
	}
	currPoints, err := core.NewPoints(curr, vectors[len(prev):])
	if err != nil {
		return core.RecallResult{}, err
	}
	return core.Compare(prevPoints, currPoints, threshold)
}

// toPoints converts stored rows. A row without a vector becomes a zero Point,
// which Compare reports as a missing embedding at that index. Blank text is
// rejected on write, so a stored blank row is corrupt and fails here.
func toPoints(notes []models.NotePoint) ([]core.Point, error) {
	points := make([]core.Point, 0, len(notes))
	for i, n := range notes {
		p, err := core.NewPoint(n.Text, n.Vector())
		switch {
		case err == nil:
		case errors.Is(err, core.ErrMissingEmbedding):
			p = core.Point{}
		default:
			return nil, fmt.Errorf("note point %d (%s): %w", i, n.ID, err)
		}
		points = append(points, p)
	}
	return points, nil
}

func compareError(err error) error {
	switch {
	case errors.Is(err, core.ErrMissingEmbedding):
		return apierr.New(http.StatusBadRequest, "missing_embedding", err)
	case errors.Is(err, core.ErrDimensionMismatch):
		return apierr.New(http.StatusBadRequest, "dimension_mismatch", err)
	case errors.Is(err, core.ErrEmptyText):
		return apierr.New(http.StatusInternalServerError, "corrupt_note", err)
	default:
		return apierr.Internal(err)
	}
}
