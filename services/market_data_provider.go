package services

import (
	"context"

	"github.com/fenilmodi00/index-pulse-backend/models"
)

// MarketDataProvider is the external source of news, price history and ticker statistics
type MarketDataProvider interface {
	// SearchNews returns up to count recent news items for symbol
	SearchNews(ctx context.Context, symbol string, count int) ([]models.NewsItem, error)
	// GetHistory returns closing prices for symbol over period sampled at interval, oldest first
	GetHistory(ctx context.Context, symbol, period, interval string) ([]models.PriceBar, error)
	// GetInfo returns the provider's free-form statistics for symbol
	GetInfo(ctx context.Context, symbol string) (map[string]interface{}, error)
}

// ProviderSymbol converts a bare index code such as "AXJO" into the provider's index symbol "^AXJO"
func ProviderSymbol(indexCode string) string {
	return "^" + indexCode
}
