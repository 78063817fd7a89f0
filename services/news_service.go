package services

import (
	"context"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	defaultNewsCount     = 20
	newsPublishedLayout  = "2006-01-02 15:04:05"
	unknownNewsValue     = "Unknown"
	defaultNewsTitle     = "No Title"
	defaultNewsLink      = "#"
	newsServiceName      = "News_Service"
	newsComponentLogName = "NewsService"
)

// Article outcome statuses
const (
	ArticleStatusIncluded = "included"
	ArticleStatusSkipped  = "skipped"
)

// ContentExtractor turns an article URL into its cleaned content
type ContentExtractor interface {
	Extract(ctx context.Context, articleURL string) models.ArticleContent
}

// ArticleOutcome records what happened to a single search result
type ArticleOutcome struct {
	Link   string `json:"link"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// NewsResult holds the assembled articles and one outcome per search result
type NewsResult struct {
	Articles []models.Article
	Outcomes []ArticleOutcome
}

// NewsService aggregates provider news search with article extraction
type NewsService struct {
	provider       MarketDataProvider
	extractor      ContentExtractor
	newsCount      int
	serviceMetrics *shared.ServiceMetrics
}

// NewNewsService creates a news service. A non-positive count uses the default of 20 results.
func NewNewsService(provider MarketDataProvider, extractor ContentExtractor, count int, metrics *shared.ServiceMetrics) *NewsService {
	if count <= 0 {
		count = defaultNewsCount
	}
	if metrics == nil {
		metrics = shared.NewServiceMetrics(newsServiceName)
	}
	return &NewsService{
		provider:       provider,
		extractor:      extractor,
		newsCount:      count,
		serviceMetrics: metrics,
	}
}

// GetNews returns recent articles for the index code with their extracted content.
// A failed search yields an empty list.
func (s *NewsService) GetNews(ctx context.Context, indexCode string) NewsResult {
	startTime := time.Now()
	symbol := ProviderSymbol(indexCode)
	logger := logrus.WithFields(logrus.Fields{
		"component": newsComponentLogName,
		"method":    "GetNews",
		"symbol":    symbol,
	})

	result := NewsResult{
		Articles: make([]models.Article, 0),
		Outcomes: make([]ArticleOutcome, 0),
	}

	items, err := s.provider.SearchNews(ctx, symbol, s.newsCount)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		logger.WithError(err).Error("News search failed")
		return result
	}

	for _, item := range items {
		link := stringOrDefault(item.Link, defaultNewsLink)

		if ctx.Err() != nil {
			result.Outcomes = append(result.Outcomes, ArticleOutcome{
				Link:   link,
				Status: ArticleStatusSkipped,
				Reason: "request cancelled before article was processed",
			})
			s.serviceMetrics.IncrementCustomCounter("articles_skipped")
			continue
		}

		result.Articles = append(result.Articles, models.Article{
			Title:     stringOrDefault(item.Title, defaultNewsTitle),
			Publisher: stringOrDefault(item.Publisher, unknownNewsValue),
			Link:      link,
			Published: FormatPublishTime(item.ProviderPublishTime),
			Content:   s.extractor.Extract(ctx, link),
		})
		result.Outcomes = append(result.Outcomes, ArticleOutcome{Link: link, Status: ArticleStatusIncluded})
	}

	s.serviceMetrics.RecordRequest(true, time.Since(startTime))
	logger.WithFields(logrus.Fields{
		"search_results":  len(items),
		"articles":        len(result.Articles),
		"processing_time": time.Since(startTime),
	}).Info("Assembled news articles")

	return result
}

// FormatPublishTime renders a unix epoch in server-local time, or "Unknown" for zero
func FormatPublishTime(epoch int64) string {
	if epoch == 0 {
		return unknownNewsValue
	}
	return time.Unix(epoch, 0).Local().Format(newsPublishedLayout)
}

func stringOrDefault(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}
