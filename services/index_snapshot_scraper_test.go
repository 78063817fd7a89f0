package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotPage = `<html><body>
<table>
  <thead><tr><th>Symbol</th><th>Price</th><th>Change</th><th>Change %</th></tr></thead>
  <tbody>
    <tr><td><a href="/quote/AXJO">AXJO S&amp;P/ASX 200</a></td><td> 7,812.30 </td><td>+35.10</td><td>+0.45%</td></tr>
    <tr><td>No link here</td><td>1</td><td>2</td><td>3</td></tr>
    <tr><td><a href="/quote/AORD">AORD All Ordinaries</a></td><td>8,050.00</td></tr>
    <tr><td><span><a href="/quote/AXKO">AXKO S&amp;P/ASX 300</a></span></td><td>7,700.25</td><td>-12.00</td><td>-0.16%</td><td>extra</td></tr>
  </tbody>
</table>
<table>
  <tr><td><a href="/quote/OTHER">OTHER Second Table</a></td><td>1</td><td>2</td><td>3</td></tr>
</table>
</body></html>`

var expectedSnapshotRows = []models.IndexSnapshot{
	{Index: "AXJO S&P/ASX 200", LastPrice: "7,812.30", Change: "+35.10", PercentChange: "+0.45%"},
	{Index: "AXKO S&P/ASX 300", LastPrice: "7,700.25", Change: "-12.00", PercentChange: "-0.16%"},
}

func newSnapshotServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestParseIndexTable(t *testing.T) {
	document, err := goquery.NewDocumentFromReader(strings.NewReader(snapshotPage))
	require.NoError(t, err)

	rows := ParseIndexTable(document.Find("table").First())

	assert.Equal(t, expectedSnapshotRows, rows)
}

func TestFetchSnapshotReadsFirstTable(t *testing.T) {
	server := newSnapshotServer(t, http.StatusOK, snapshotPage)
	scraper := NewIndexSnapshotScraper(&IndexSnapshotScraperConfiguration{SnapshotURL: server.URL}, nil)

	rows, err := scraper.FetchSnapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, expectedSnapshotRows, rows)
}

func TestFetchSnapshotWithoutTable(t *testing.T) {
	server := newSnapshotServer(t, http.StatusOK, `<html><body><p>Maintenance</p></body></html>`)
	scraper := NewIndexSnapshotScraper(&IndexSnapshotScraperConfiguration{SnapshotURL: server.URL}, nil)

	rows, err := scraper.FetchSnapshot(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestFetchSnapshotReturnsNetworkErrorOnBadStatus(t *testing.T) {
	server := newSnapshotServer(t, http.StatusServiceUnavailable, "down")
	metrics := shared.NewServiceMetrics("test")
	scraper := NewIndexSnapshotScraper(&IndexSnapshotScraperConfiguration{SnapshotURL: server.URL}, metrics)

	rows, err := scraper.FetchSnapshot(context.Background())

	require.Error(t, err)
	assert.Nil(t, rows)
	assert.Equal(t, shared.ErrorCategoryNetwork, shared.CategoryOf(err))
	assert.Equal(t, int64(1), metrics.GetSnapshot().FailedRequests)
}

func TestNewIndexSnapshotScraperDefaults(t *testing.T) {
	scraper := NewIndexSnapshotScraper(nil, nil)

	assert.Equal(t, "https://au.finance.yahoo.com/markets/stocks/most-active/", scraper.configuration.SnapshotURL)
	assert.False(t, scraper.configuration.UseBrowserRendering)
	assert.Positive(t, scraper.configuration.HTTPRequestTimeout)
}
