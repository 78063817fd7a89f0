package services

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/models"
)

type historyCall struct {
	Symbol   string
	Period   string
	Interval string
}

type fakeProvider struct {
	mutex sync.Mutex

	news       []models.NewsItem
	newsErr    error
	histories  map[string][]models.PriceBar
	historyErr map[string]error
	info       map[string]interface{}
	infoErr    error

	searchCalls  []string
	historyCalls []historyCall
	infoCalls    []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		histories:  make(map[string][]models.PriceBar),
		historyErr: make(map[string]error),
	}
}

func (f *fakeProvider) SearchNews(ctx context.Context, symbol string, count int) ([]models.NewsItem, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.searchCalls = append(f.searchCalls, symbol)
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	if len(f.news) > count {
		return f.news[:count], nil
	}
	return f.news, nil
}

func (f *fakeProvider) GetHistory(ctx context.Context, symbol, period, interval string) ([]models.PriceBar, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.historyCalls = append(f.historyCalls, historyCall{Symbol: symbol, Period: period, Interval: interval})
	if err := f.historyErr[symbol]; err != nil {
		return nil, err
	}
	return f.histories[symbol], nil
}

func (f *fakeProvider) GetInfo(ctx context.Context, symbol string) (map[string]interface{}, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.infoCalls = append(f.infoCalls, symbol)
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

type fakeSnapshotSource struct {
	rows []models.IndexSnapshot
	err  error
}

func (f *fakeSnapshotSource) FetchSnapshot(ctx context.Context) ([]models.IndexSnapshot, error) {
	return f.rows, f.err
}

type fakeExtractor struct {
	urls []string
}

func (f *fakeExtractor) Extract(ctx context.Context, articleURL string) models.ArticleContent {
	f.urls = append(f.urls, articleURL)
	return models.ArticleContent{Content: "body of " + articleURL}
}

// minuteBars returns n one-minute bars where every close equals oldPrice except the last one
func minuteBars(n int, oldPrice, currentPrice float64) []models.PriceBar {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, n)
	for i := range bars {
		bars[i] = models.PriceBar{Time: start.Add(time.Duration(i) * time.Minute), Close: oldPrice}
	}
	if n > 0 {
		bars[n-1].Close = currentPrice
	}
	return bars
}

func withMissingCloses(bars []models.PriceBar, indexes ...int) []models.PriceBar {
	for _, i := range indexes {
		bars[i].Close = math.NaN()
	}
	return bars
}

func stringPtr(value string) *string {
	return &value
}
