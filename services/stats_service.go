package services

import (
	"context"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/sirupsen/logrus"
)

// StatsService exposes the provider's statistics mapping for an index
type StatsService struct {
	provider       MarketDataProvider
	serviceMetrics *shared.ServiceMetrics
}

// NewStatsService creates a stats service over the provider
func NewStatsService(provider MarketDataProvider, metrics *shared.ServiceMetrics) *StatsService {
	if metrics == nil {
		metrics = shared.NewServiceMetrics("Stats_Service")
	}
	return &StatsService{
		provider:       provider,
		serviceMetrics: metrics,
	}
}

// GetStats returns the provider info for the index code unchanged. Provider errors are returned to the caller.
func (s *StatsService) GetStats(ctx context.Context, indexCode string) (map[string]interface{}, error) {
	startTime := time.Now()
	symbol := ProviderSymbol(indexCode)

	info, err := s.provider.GetInfo(ctx, symbol)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		logrus.WithFields(logrus.Fields{
			"component": "StatsService",
			"method":    "GetStats",
			"symbol":    symbol,
		}).WithError(err).Error("Failed to fetch index stats")
		return nil, shared.WrapError(err, shared.ErrorCategoryProvider, "STATS_FETCH_FAILED", "Stats_Service", "GetStats")
	}

	s.serviceMetrics.RecordRequest(true, time.Since(startTime))
	return info, nil
}
