// ABOUTME: Self-reported solo metrics and the retention trend over recent sessions
// ABOUTME: The trend reads only the newest metrics within the configured window
package tracker

import (
	"context"

	"github.com/google/uuid"
	"github.com/harper/recall-tracker/internal/apierr"
	"github.com/harper/recall-tracker/internal/core"
	"github.com/harper/recall-tracker/internal/models"
)

// SoloTrend is the trend plus the metrics it was computed from, newest first
type SoloTrend struct {
	Metrics []models.SoloMetric
	Trend   core.Trend
}

func (s *Service) AddSoloMetric(ctx context.Context, user *models.User, sessionID uuid.UUID, covered, remembered float64) (*models.SoloMetric, error) {
	session, _, err := s.ownedSession(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}
	m := &models.SoloMetric{
		ID:                uuid.New(),
		SessionID:         session.ID,
		PercentCovered:    covered,
		PercentRemembered: remembered,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.db.AddSoloMetric(ctx, m); err != nil {
		return nil, apierr.Internal(err)
	}
	return m, nil
}

// SoloTrend analyzes the most recent TrendWindow metrics across the topic's sessions
func (s *Service) SoloTrend(ctx context.Context, user *models.User, topicID uuid.UUID) (*SoloTrend, error) {
	if _, err := s.ownedTopic(ctx, user, topicID); err != nil {
		return nil, err
	}
	metrics, err := s.db.RecentSoloMetrics(ctx, topicID, s.cfg.TrendWindow)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return &SoloTrend{Metrics: metrics, Trend: core.AnalyzeTrend(metrics, s.cfg.Trend)}, nil
}
