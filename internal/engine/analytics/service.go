package analytics

import (
	"context"
	"time"

	"clarifier/internal/platform/models"
)

// DefaultWindow is the look-back period of the overview.
const DefaultWindow = 30 * 24 * time.Hour

type Source interface {
	Analytics(ctx context.Context, orgID string, since time.Time) (*models.AnalyticsSummary, error)
}

type Service struct {
	source Source
	window time.Duration
	now    func() time.Time
}

func NewService(source Source) *Service {
	return &Service{source: source, window: DefaultWindow, now: time.Now}
}

// Overview summarizes the organization's clarifications over the window.
func (s *Service) Overview(ctx context.Context, orgID string) (*models.AnalyticsSummary, error) {
	summary, err := s.source.Analytics(ctx, orgID, s.now().Add(-s.window))
	if err != nil {
		return nil, err
	}
	if summary.TicketTypes == nil {
		summary.TicketTypes = []models.TicketTypeCount{}
	}
	return summary, nil
}
