// AngelaMos | 2026
// service.go

package public

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/waitlist-backend/internal/business"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/waitlist"
)

type BusinessFinder interface {
	GetByID(ctx context.Context, id string) (*business.Business, error)
}

type QueueSummarizer interface {
	Summary(ctx context.Context, businessID string) (*waitlist.Stats, error)
}

type WaitlistSummary struct {
	BusinessID         string        `json:"business_id"`
	BusinessName       string        `json:"business_name"`
	BusinessType       business.Type `json:"business_type"`
	TotalWaiting       int           `json:"total_waiting"`
	AverageWaitTime    *int          `json:"average_wait_time"`
	AverageServiceTime int           `json:"average_service_time"`
	Capacity           int           `json:"capacity"`
	IsActive           bool          `json:"is_active"`
}

// Service answers unauthenticated queue lookups. Results are cached for the
// configured TTL, so figures may trail the live queue by that much.
type Service struct {
	businesses BusinessFinder
	queues     QueueSummarizer
	cache      *core.JSONCache
	logger     *slog.Logger
}

func NewService(
	businesses BusinessFinder,
	queues QueueSummarizer,
	cache *core.JSONCache,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		businesses: businesses,
		queues:     queues,
		cache:      cache,
		logger:     logger,
	}
}

func (s *Service) WaitlistSummary(ctx context.Context, businessID string) (*WaitlistSummary, error) {
	var cached WaitlistSummary
	hit, err := s.cache.Get(ctx, businessID, &cached)
	if err != nil {
		s.logger.WarnContext(ctx, "public summary cache read failed",
			"business_id", businessID,
			"error", err,
		)
	}
	if hit {
		return &cached, nil
	}

	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, fmt.Errorf("business %s is inactive: %w", businessID, core.ErrNotFound)
	}

	stats, err := s.queues.Summary(ctx, businessID)
	if err != nil {
		return nil, err
	}

	summary := &WaitlistSummary{
		BusinessID:         b.ID,
		BusinessName:       b.Name,
		BusinessType:       b.Type,
		TotalWaiting:       stats.WaitingCount,
		AverageServiceTime: b.AverageServiceTime,
		Capacity:           b.Capacity,
		IsActive:           b.IsActive,
	}
	if stats.AverageWaitTime.Valid {
		// whole minutes, truncated
		avg := int(stats.AverageWaitTime.Float64)
		summary.AverageWaitTime = &avg
	}

	if err := s.cache.Set(ctx, businessID, summary); err != nil {
		s.logger.WarnContext(ctx, "public summary cache write failed",
			"business_id", businessID,
			"error", err,
		)
	}

	return summary, nil
}
