package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/sirupsen/logrus"
)

const yahooProviderServiceName = "Yahoo_Finance_Provider"

// quoteSummaryModules are merged, in this order, into the info mapping
var quoteSummaryModules = []string{
	"summaryProfile",
	"assetProfile",
	"quoteType",
	"price",
	"summaryDetail",
	"defaultKeyStatistics",
	"financialData",
}

// YahooFinanceProviderConfiguration holds configuration parameters for the Yahoo Finance provider
type YahooFinanceProviderConfiguration struct {
	BaseURL            string        // JSON API host, e.g. https://query2.finance.yahoo.com
	CookieURL          string        // Page that hands out the session cookie needed for a crumb
	HTTPRequestTimeout time.Duration // Maximum time to wait for HTTP responses
	RequestRateLimit   time.Duration // Minimum delay between consecutive requests, 0 disables
	MaxResponseBytes   int64
}

// NewDefaultYahooFinanceProviderConfiguration returns production-ready default configuration
func NewDefaultYahooFinanceProviderConfiguration() *YahooFinanceProviderConfiguration {
	return &YahooFinanceProviderConfiguration{
		BaseURL:            "https://query2.finance.yahoo.com",
		CookieURL:          "https://fc.yahoo.com",
		HTTPRequestTimeout: 30 * time.Second,
		MaxResponseBytes:   8 << 20,
	}
}

// YahooFinanceProvider implements MarketDataProvider over Yahoo Finance's public JSON endpoints
type YahooFinanceProvider struct {
	baseURL            string
	cookieURL          string
	maxResponseBytes   int64
	httpClient         *http.Client
	requestRateLimiter *shared.HTTPRequestRateLimiter
	serviceMetrics     *shared.ServiceMetrics

	crumbMutex sync.Mutex
	crumb      string
}

// NewYahooFinanceProvider creates a provider. httpClient may be nil; a cookie jar is always attached.
func NewYahooFinanceProvider(config *YahooFinanceProviderConfiguration, httpClient *http.Client, metrics *shared.ServiceMetrics) *YahooFinanceProvider {
	defaults := NewDefaultYahooFinanceProviderConfiguration()
	if config == nil {
		config = defaults
	} else {
		if config.BaseURL == "" {
			config.BaseURL = defaults.BaseURL
		}
		if config.CookieURL == "" {
			config.CookieURL = defaults.CookieURL
		}
		if config.HTTPRequestTimeout <= 0 {
			config.HTTPRequestTimeout = defaults.HTTPRequestTimeout
		}
		if config.MaxResponseBytes <= 0 {
			config.MaxResponseBytes = defaults.MaxResponseBytes
		}
	}

	var client http.Client
	if httpClient != nil {
		client = *httpClient
	} else {
		client = http.Client{Timeout: config.HTTPRequestTimeout}
	}
	jar, _ := cookiejar.New(nil)
	client.Jar = jar

	if metrics == nil {
		metrics = shared.NewServiceMetrics(yahooProviderServiceName)
	}

	return &YahooFinanceProvider{
		baseURL:            strings.TrimRight(config.BaseURL, "/"),
		cookieURL:          config.CookieURL,
		maxResponseBytes:   config.MaxResponseBytes,
		httpClient:         &client,
		requestRateLimiter: shared.NewHTTPRequestRateLimiter(config.RequestRateLimit),
		serviceMetrics:     metrics,
	}
}

type yahooSearchResponse struct {
	News []models.NewsItem `json:"news"`
}

// SearchNews queries the search endpoint for news about symbol
func (p *YahooFinanceProvider) SearchNews(ctx context.Context, symbol string, count int) ([]models.NewsItem, error) {
	query := url.Values{
		"q":                {symbol},
		"newsCount":        {strconv.Itoa(count)},
		"quotesCount":      {"0"},
		"enableFuzzyQuery": {"false"},
	}
	endpoint := fmt.Sprintf("%s/v1/finance/search?%s", p.baseURL, query.Encode())

	var response yahooSearchResponse
	if err := p.getJSON(ctx, endpoint, "SearchNews", &response); err != nil {
		return nil, err
	}

	if len(response.News) > count {
		response.News = response.News[:count]
	}
	return response.News, nil
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GMTOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooAPIError `json:"error"`
	} `json:"chart"`
}

type yahooAPIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// GetHistory fetches the chart series for symbol. Missing closes are returned as NaN.
func (p *YahooFinanceProvider) GetHistory(ctx context.Context, symbol, period, interval string) ([]models.PriceBar, error) {
	query := url.Values{
		"range":          {period},
		"interval":       {interval},
		"includePrePost": {"false"},
	}
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.baseURL, url.PathEscape(symbol), query.Encode())

	var response yahooChartResponse
	err := p.getJSON(ctx, endpoint, "GetHistory", &response)
	if apiErr := response.Chart.Error; apiErr != nil {
		return nil, shared.NewServiceError(
			shared.ErrorCategoryProvider,
			"CHART_ERROR",
			fmt.Sprintf("chart request for %s failed: %s (%s)", symbol, apiErr.Description, apiErr.Code),
			yahooProviderServiceName,
			"GetHistory",
			err,
		)
	}
	if err != nil {
		return nil, err
	}

	if len(response.Chart.Result) == 0 {
		return []models.PriceBar{}, nil
	}

	result := response.Chart.Result[0]
	location := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)

	var closes []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, timestamp := range result.Timestamp {
		closePrice := math.NaN()
		if i < len(closes) && closes[i] != nil {
			closePrice = *closes[i]
		}
		bars = append(bars, models.PriceBar{
			Time:  time.Unix(timestamp, 0).In(location),
			Close: closePrice,
		})
	}

	return bars, nil
}

func exchangeLocation(timezoneName string, gmtOffset int) *time.Location {
	if timezoneName != "" {
		if location, err := time.LoadLocation(timezoneName); err == nil {
			return location
		}
	}
	return time.FixedZone(timezoneName, gmtOffset)
}

type yahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yahooAPIError               `json:"error"`
	} `json:"quoteSummary"`
}

// GetInfo fetches the quote summary modules for symbol and merges them into one flat mapping
func (p *YahooFinanceProvider) GetInfo(ctx context.Context, symbol string) (map[string]interface{}, error) {
	crumb, err := p.ensureCrumb(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"modules":   {strings.Join(quoteSummaryModules, ",")},
		"crumb":     {crumb},
		"formatted": {"false"},
		"symbol":    {symbol},
	}
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", p.baseURL, url.PathEscape(symbol), query.Encode())

	var response yahooQuoteSummaryResponse
	err = p.getJSON(ctx, endpoint, "GetInfo", &response)
	var serviceErr *shared.ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Code == "HTTP_401" {
		// Crumb expired; the next call fetches a new one
		p.resetCrumb()
	}
	if apiErr := response.QuoteSummary.Error; apiErr != nil {
		return nil, shared.NewServiceError(
			shared.ErrorCategoryProvider,
			"QUOTE_SUMMARY_ERROR",
			fmt.Sprintf("quote summary for %s failed: %s (%s)", symbol, apiErr.Description, apiErr.Code),
			yahooProviderServiceName,
			"GetInfo",
			err,
		)
	}
	if err != nil {
		return nil, err
	}

	if len(response.QuoteSummary.Result) == 0 {
		return nil, shared.NewServiceError(
			shared.ErrorCategoryProvider,
			"NO_QUOTE_SUMMARY",
			fmt.Sprintf("no statistics returned for %s", symbol),
			yahooProviderServiceName,
			"GetInfo",
			nil,
		)
	}

	return mergeQuoteSummaryModules(response.QuoteSummary.Result[0]), nil
}

// mergeQuoteSummaryModules flattens module objects into one mapping; later modules win on key clashes
func mergeQuoteSummaryModules(modules map[string]json.RawMessage) map[string]interface{} {
	info := make(map[string]interface{})
	for _, moduleName := range quoteSummaryModules {
		raw, ok := modules[moduleName]
		if !ok {
			continue
		}
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		for key, value := range fields {
			if key == "maxAge" {
				continue
			}
			info[key] = flattenProviderValue(value)
		}
	}
	return info
}

// flattenProviderValue collapses {"raw": x, "fmt": "..."} objects to x and empty objects to nil
func flattenProviderValue(value interface{}) interface{} {
	switch typed := value.(type) {
	case map[string]interface{}:
		if raw, ok := typed["raw"]; ok {
			return raw
		}
		if len(typed) == 0 {
			return nil
		}
		flattened := make(map[string]interface{}, len(typed))
		for key, nested := range typed {
			flattened[key] = flattenProviderValue(nested)
		}
		return flattened
	case []interface{}:
		flattened := make([]interface{}, len(typed))
		for i, nested := range typed {
			flattened[i] = flattenProviderValue(nested)
		}
		return flattened
	default:
		return value
	}
}

// ensureCrumb performs the cookie and crumb handshake once and caches the crumb
func (p *YahooFinanceProvider) ensureCrumb(ctx context.Context) (string, error) {
	p.crumbMutex.Lock()
	defer p.crumbMutex.Unlock()

	if p.crumb != "" {
		return p.crumb, nil
	}

	logger := logrus.WithFields(logrus.Fields{
		"component": "YahooFinanceProvider",
		"method":    "ensureCrumb",
	})

	// The cookie page answers with an error status but still sets the session cookie
	if _, _, err := p.get(ctx, p.cookieURL, "text/html"); err != nil {
		return "", shared.NewServiceError(shared.ErrorCategoryNetwork, "COOKIE_FETCH_FAILED",
			"failed to obtain provider session cookie", yahooProviderServiceName, "ensureCrumb", err)
	}

	status, body, err := p.get(ctx, p.baseURL+"/v1/test/getcrumb", "text/plain")
	if err != nil {
		return "", shared.NewServiceError(shared.ErrorCategoryNetwork, "CRUMB_FETCH_FAILED",
			"failed to obtain provider crumb", yahooProviderServiceName, "ensureCrumb", err)
	}

	crumb := strings.TrimSpace(string(body))
	if status != http.StatusOK || crumb == "" || strings.ContainsAny(crumb, "<{ ") {
		return "", shared.NewServiceError(shared.ErrorCategoryProvider, "CRUMB_REJECTED",
			fmt.Sprintf("provider refused crumb request with HTTP %d", status), yahooProviderServiceName, "ensureCrumb", nil)
	}

	logger.Debug("Obtained provider crumb")
	p.crumb = crumb
	return crumb, nil
}

func (p *YahooFinanceProvider) resetCrumb() {
	p.crumbMutex.Lock()
	p.crumb = ""
	p.crumbMutex.Unlock()
}

// get performs one throttled GET and returns status code and body
func (p *YahooFinanceProvider) get(ctx context.Context, endpoint, accept string) (int, []byte, error) {
	if err := p.requestRateLimiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	shared.SetBrowserLikeHeaders(request, accept)

	response, err := p.httpClient.Do(request)
	if err != nil {
		return 0, nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, p.maxResponseBytes))
	if err != nil {
		return response.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return response.StatusCode, body, nil
}

// getJSON fetches endpoint and decodes the body into target.
// Error envelopes on non-200 responses are still decoded so callers can report them.
func (p *YahooFinanceProvider) getJSON(ctx context.Context, endpoint, operation string, target interface{}) error {
	startTime := time.Now()
	logger := logrus.WithFields(logrus.Fields{
		"component": "YahooFinanceProvider",
		"method":    operation,
		"url":       endpoint,
	})

	status, body, err := p.get(ctx, endpoint, "application/json")
	if err != nil {
		p.serviceMetrics.RecordRequest(false, time.Since(startTime))
		logger.WithError(err).Debug("Provider request failed")
		return shared.NewServiceError(shared.ErrorCategoryNetwork, "REQUEST_FAILED",
			fmt.Sprintf("%s request failed", operation), yahooProviderServiceName, operation, err)
	}

	if status != http.StatusOK {
		p.serviceMetrics.RecordRequest(false, time.Since(startTime))
		_ = json.Unmarshal(body, target)
		logger.WithField("status_code", status).Debug("Provider returned non-200 status")
		return shared.NewServiceError(shared.ErrorCategoryProvider, fmt.Sprintf("HTTP_%d", status),
			fmt.Sprintf("%s returned HTTP %d", operation, status), yahooProviderServiceName, operation, nil)
	}

	if err := json.Unmarshal(body, target); err != nil {
		p.serviceMetrics.RecordRequest(false, time.Since(startTime))
		return shared.NewServiceError(shared.ErrorCategoryParsing, "INVALID_JSON",
			fmt.Sprintf("%s returned invalid JSON", operation), yahooProviderServiceName, operation, err)
	}

	p.serviceMetrics.RecordRequest(true, time.Since(startTime))
	logger.WithField("processing_time", time.Since(startTime)).Debug("Provider request completed")
	return nil
}
