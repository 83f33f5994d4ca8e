package api

import (
	"context"

	"github.com/p-blackswan/taskhub/internal/models"
)

// AnalyticsService reads aggregate views.
type AnalyticsService struct {
	doer Doer
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(d Doer) *AnalyticsService {
	return &AnalyticsService{doer: d}
}

// TasksSummary returns the task summary.
func (s *AnalyticsService) TasksSummary(ctx context.Context) (*models.TasksSummary, error) {
	var summary models.TasksSummary
	if err := get(ctx, s.doer, "/analytics/tasks-summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
