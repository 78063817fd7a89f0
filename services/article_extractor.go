package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fenilmodi00/index-pulse-backend/config"
	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	articleParagraphSeparator = "\n\n"
	noMeaningfulContent       = "No meaningful content found."
	articleUserAgent          = "Mozilla/5.0"
)

// ArticleExtractor fetches news pages and reduces them to their readable body text
type ArticleExtractor struct {
	httpClient     *http.Client
	contentFilter  *config.ContentFilterConfig
	serviceMetrics *shared.ServiceMetrics
}

// NewArticleExtractor creates an extractor. A nil filter uses the default phrase lists.
func NewArticleExtractor(httpClient *http.Client, filter *config.ContentFilterConfig, metrics *shared.ServiceMetrics) *ArticleExtractor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if filter == nil {
		filter = config.DefaultContentFilterConfig()
	}
	if metrics == nil {
		metrics = shared.NewServiceMetrics("Article_Extractor")
	}
	return &ArticleExtractor{
		httpClient:     httpClient,
		contentFilter:  filter,
		serviceMetrics: metrics,
	}
}

// Extract returns the cleaned content of the page at articleURL.
// It never fails: fetch or parse errors are reported inside the content text.
func (e *ArticleExtractor) Extract(ctx context.Context, articleURL string) models.ArticleContent {
	startTime := time.Now()

	content, err := e.fetchArticle(ctx, articleURL)
	if err != nil {
		e.serviceMetrics.RecordRequest(false, time.Since(startTime))
		logrus.WithFields(logrus.Fields{
			"component": "ArticleExtractor",
			"method":    "Extract",
			"url":       articleURL,
		}).WithError(err).Warn("Failed to fetch article")

		return models.ArticleContent{
			Content: fmt.Sprintf("Error fetching article: %v", err),
		}
	}

	e.serviceMetrics.RecordRequest(true, time.Since(startTime))
	return content
}

func (e *ArticleExtractor) fetchArticle(ctx context.Context, articleURL string) (models.ArticleContent, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return models.ArticleContent{}, err
	}
	request.Header.Set("User-Agent", articleUserAgent)

	response, err := e.httpClient.Do(request)
	if err != nil {
		return models.ArticleContent{}, err
	}
	defer response.Body.Close()

	document, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		return models.ArticleContent{}, fmt.Errorf("failed to parse article HTML: %w", err)
	}

	return ExtractArticleContent(document, e.contentFilter), nil
}

// ExtractArticleContent pulls the og:image URL and cleaned paragraph text out of a parsed page
func ExtractArticleContent(document *goquery.Document, filter *config.ContentFilterConfig) models.ArticleContent {
	var imageURL *string
	if content, exists := document.Find(`meta[property="og:image"]`).First().Attr("content"); exists && content != "" {
		imageURL = &content
	}

	var paragraphs []string
	document.Find("p").Each(func(_ int, paragraph *goquery.Selection) {
		paragraphs = append(paragraphs, paragraph.Text())
	})

	return models.ArticleContent{
		Content:  CleanArticleText(paragraphs, filter),
		ImageURL: imageURL,
	}
}

// CleanArticleText joins non-empty paragraphs, cuts the text at the first stop phrase
// and drops paragraphs that contain a blacklisted phrase. Matching ignores case.
func CleanArticleText(paragraphs []string, filter *config.ContentFilterConfig) string {
	if filter == nil {
		filter = config.DefaultContentFilterConfig()
	}

	nonEmpty := make([]string, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		if trimmed := strings.TrimSpace(paragraph); trimmed != "" {
			nonEmpty = append(nonEmpty, trimmed)
		}
	}
	fullText := truncateAtStopPhrase(strings.Join(nonEmpty, articleParagraphSeparator), filter.StopPhrases)

	var cleaned []string
	for _, block := range strings.Split(fullText, articleParagraphSeparator) {
		block = strings.TrimSpace(block)
		if block == "" || containsAnyFold(block, filter.BlacklistPhrases) {
			continue
		}
		cleaned = append(cleaned, block)
	}

	if len(cleaned) == 0 {
		return noMeaningfulContent
	}
	return strings.Join(cleaned, articleParagraphSeparator)
}

// truncateAtStopPhrase keeps the text before the first stop phrase found, trying phrases in order
func truncateAtStopPhrase(text string, stopPhrases []string) string {
	for _, phrase := range stopPhrases {
		if cut := indexFold(text, phrase); cut >= 0 {
			return text[:cut]
		}
	}
	return text
}

func containsAnyFold(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if indexFold(text, phrase) >= 0 {
			return true
		}
	}
	return false
}

// indexFold is a case-insensitive strings.Index returning a byte offset into text.
// Empty phrases never match.
func indexFold(text, phrase string) int {
	n := len(phrase)
	if n == 0 {
		return -1
	}
	for i := 0; i+n <= len(text); i++ {
		if strings.EqualFold(text[i:i+n], phrase) {
			return i
		}
	}
	return -1
}
