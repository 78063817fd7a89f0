package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNewsAssemblesArticles(t *testing.T) {
	published := time.Date(2024, 3, 1, 9, 30, 15, 0, time.Local)

	provider := newFakeProvider()
	provider.news = []models.NewsItem{
		{
			Title:               stringPtr("ASX closes higher"),
			Publisher:           stringPtr("Reuters"),
			Link:                stringPtr("https://news.example.com/asx"),
			ProviderPublishTime: published.Unix(),
		},
		{},
	}
	extractor := &fakeExtractor{}

	result := NewNewsService(provider, extractor, 0, nil).GetNews(context.Background(), "AXJO")

	assert.Equal(t, []string{"^AXJO"}, provider.searchCalls)
	require.Len(t, result.Articles, 2)

	first := result.Articles[0]
	assert.Equal(t, "ASX closes higher", first.Title)
	assert.Equal(t, "Reuters", first.Publisher)
	assert.Equal(t, "https://news.example.com/asx", first.Link)
	assert.Equal(t, "2024-03-01 09:30:15", first.Published)
	assert.Equal(t, "body of https://news.example.com/asx", first.Content.Content)

	second := result.Articles[1]
	assert.Equal(t, "No Title", second.Title)
	assert.Equal(t, "Unknown", second.Publisher)
	assert.Equal(t, "#", second.Link)
	assert.Equal(t, "Unknown", second.Published)

	assert.Equal(t, []string{"https://news.example.com/asx", "#"}, extractor.urls)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, ArticleStatusIncluded, result.Outcomes[0].Status)
}

func TestGetNewsRequestsConfiguredCount(t *testing.T) {
	provider := newFakeProvider()
	for i := 0; i < 30; i++ {
		provider.news = append(provider.news, models.NewsItem{})
	}

	defaultResult := NewNewsService(provider, &fakeExtractor{}, 0, nil).GetNews(context.Background(), "AXJO")
	smallResult := NewNewsService(provider, &fakeExtractor{}, 5, nil).GetNews(context.Background(), "AXJO")

	assert.Len(t, defaultResult.Articles, 20)
	assert.Len(t, smallResult.Articles, 5)
}

func TestGetNewsSearchFailureYieldsEmptyList(t *testing.T) {
	provider := newFakeProvider()
	provider.newsErr = errors.New("search unavailable")
	extractor := &fakeExtractor{}

	result := NewNewsService(provider, extractor, 20, nil).GetNews(context.Background(), "AXJO")

	assert.NotNil(t, result.Articles)
	assert.Empty(t, result.Articles)
	assert.Empty(t, extractor.urls)
}

func TestGetNewsSkipsArticlesAfterCancellation(t *testing.T) {
	provider := newFakeProvider()
	provider.news = []models.NewsItem{{Link: stringPtr("https://news.example.com/a")}}
	extractor := &fakeExtractor{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewNewsService(provider, extractor, 20, nil).GetNews(ctx, "AXJO")

	assert.Empty(t, result.Articles)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, ArticleStatusSkipped, result.Outcomes[0].Status)
	assert.Equal(t, "https://news.example.com/a", result.Outcomes[0].Link)
	assert.Empty(t, extractor.urls)
}

func TestFormatPublishTime(t *testing.T) {
	assert.Equal(t, "Unknown", FormatPublishTime(0))

	moment := time.Date(2023, 12, 31, 23, 59, 0, 0, time.Local)
	assert.Equal(t, "2023-12-31 23:59:00", FormatPublishTime(moment.Unix()))
}
