package services

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

const snapshotScraperServiceName = "Index_Snapshot_Scraper"

// IndexSnapshotScraperConfiguration holds configuration parameters for the snapshot scraper
type IndexSnapshotScraperConfiguration struct {
	SnapshotURL         string        // Page holding the active indices table
	HTTPRequestTimeout  time.Duration // Maximum time to wait for the page
	UseBrowserRendering bool          // Render the page with headless Chrome before parsing
	BrowserTimeout      time.Duration // Maximum time for the whole browser session
}

// NewDefaultIndexSnapshotScraperConfiguration returns production-ready default configuration
func NewDefaultIndexSnapshotScraperConfiguration() *IndexSnapshotScraperConfiguration {
	return &IndexSnapshotScraperConfiguration{
		SnapshotURL:        "https://au.finance.yahoo.com/markets/stocks/most-active/",
		HTTPRequestTimeout: 10 * time.Second,
		BrowserTimeout:     45 * time.Second,
	}
}

// IndexSnapshotScraper reads the current active indices table
type IndexSnapshotScraper struct {
	configuration  *IndexSnapshotScraperConfiguration
	serviceMetrics *shared.ServiceMetrics
}

// NewIndexSnapshotScraper creates a scraper with the specified configuration
func NewIndexSnapshotScraper(config *IndexSnapshotScraperConfiguration, metrics *shared.ServiceMetrics) *IndexSnapshotScraper {
	defaults := NewDefaultIndexSnapshotScraperConfiguration()
	if config == nil {
		config = defaults
	} else {
		if config.SnapshotURL == "" {
			config.SnapshotURL = defaults.SnapshotURL
		}
		if config.HTTPRequestTimeout <= 0 {
			config.HTTPRequestTimeout = defaults.HTTPRequestTimeout
		}
		if config.BrowserTimeout <= 0 {
			config.BrowserTimeout = defaults.BrowserTimeout
		}
	}
	if metrics == nil {
		metrics = shared.NewServiceMetrics(snapshotScraperServiceName)
	}

	return &IndexSnapshotScraper{
		configuration:  config,
		serviceMetrics: metrics,
	}
}

// FetchSnapshot returns the rows of the first table on the snapshot page, in page order.
// A page without a table yields an empty list.
func (s *IndexSnapshotScraper) FetchSnapshot(ctx context.Context) ([]models.IndexSnapshot, error) {
	startTime := time.Now()
	logger := logrus.WithFields(logrus.Fields{
		"component": "IndexSnapshotScraper",
		"method":    "FetchSnapshot",
		"url":       s.configuration.SnapshotURL,
		"browser":   s.configuration.UseBrowserRendering,
	})

	var (
		rows       []models.IndexSnapshot
		tableFound bool
		err        error
	)
	if s.configuration.UseBrowserRendering {
		rows, tableFound, err = s.fetchRendered(ctx)
	} else {
		rows, tableFound, err = s.fetchWithCollector(ctx)
	}

	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		serviceErr := shared.WrapError(err, shared.ErrorCategoryNetwork, "SNAPSHOT_FETCH_FAILED", snapshotScraperServiceName, "FetchSnapshot")
		serviceErr.LogError()
		return nil, serviceErr
	}

	s.serviceMetrics.RecordRequest(true, time.Since(startTime))
	if !tableFound {
		logger.Warn("Table not found on snapshot page")
		return []models.IndexSnapshot{}, nil
	}

	logger.WithFields(logrus.Fields{
		"row_count":       len(rows),
		"processing_time": time.Since(startTime),
	}).Info("Fetched index snapshot")
	return rows, nil
}

func (s *IndexSnapshotScraper) fetchWithCollector(ctx context.Context) ([]models.IndexSnapshot, bool, error) {
	collector := colly.NewCollector(
		colly.UserAgent(shared.BrowserUserAgent),
		colly.StdlibContext(ctx),
	)
	collector.SetRequestTimeout(s.configuration.HTTPRequestTimeout)

	var rows []models.IndexSnapshot
	tableFound := false
	collector.OnHTML("table", func(table *colly.HTMLElement) {
		if tableFound {
			return
		}
		tableFound = true
		rows = ParseIndexTable(table.DOM)
	})

	if err := collector.Visit(s.configuration.SnapshotURL); err != nil {
		return nil, false, err
	}
	return rows, tableFound, nil
}

func (s *IndexSnapshotScraper) fetchRendered(ctx context.Context) ([]models.IndexSnapshot, bool, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("mute-audio", true),
		chromedp.UserAgent(shared.BrowserUserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, s.configuration.BrowserTimeout)
	defer cancelTimeout()

	var renderedHTML string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(s.configuration.SnapshotURL),
		chromedp.WaitVisible("table tbody tr", chromedp.ByQuery),
		chromedp.OuterHTML("html", &renderedHTML, chromedp.ByQuery),
	)
	if err != nil {
		return nil, false, err
	}

	document, err := goquery.NewDocumentFromReader(strings.NewReader(renderedHTML))
	if err != nil {
		return nil, false, shared.NewServiceError(shared.ErrorCategoryParsing, "SNAPSHOT_PARSE_FAILED",
			"failed to parse rendered snapshot page", snapshotScraperServiceName, "fetchRendered", err)
	}

	table := document.Find("table").First()
	if table.Length() == 0 {
		return nil, false, nil
	}
	return ParseIndexTable(table), true, nil
}

// ParseIndexTable converts table rows into snapshots. Only rows whose first cell holds a link
// are used; rows with fewer than four cells are skipped.
func ParseIndexTable(table *goquery.Selection) []models.IndexSnapshot {
	rows := make([]models.IndexSnapshot, 0)

	table.Find("tr").Each(func(rowIndex int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		link := cells.Eq(0).Find("a").First()
		if link.Length() == 0 {
			return
		}

		if cells.Length() < 4 {
			logrus.WithFields(logrus.Fields{
				"component":  "IndexSnapshotScraper",
				"row_index":  rowIndex,
				"cell_count": cells.Length(),
			}).Debug("Skipping snapshot row with missing cells")
			return
		}

		rows = append(rows, models.IndexSnapshot{
			Index:         strings.TrimSpace(link.Text()),
			LastPrice:     strings.TrimSpace(cells.Eq(1).Text()),
			Change:        strings.TrimSpace(cells.Eq(2).Text()),
			PercentChange: strings.TrimSpace(cells.Eq(3).Text()),
		})
	})

	return rows
}
