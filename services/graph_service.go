package services

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/sirupsen/logrus"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	graphServiceName     = "Graph_Service"
	graphTimeLayout      = "2006-01-02 15:04"
	defaultGraphInterval = "1d"
)

// GraphPeriods lists the accepted time_period tokens in display order
var GraphPeriods = []string{"1d", "2d", "5d", "7d", "10d", "30d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "max"}

var periodIntervals = map[string]string{
	"1d":  "1h",
	"2d":  "1h",
	"5d":  "1h",
	"7d":  "1h",
	"10d": "1h",
	"30d": "1h",
	"1mo": "1d",
	"3mo": "1d",
	"6mo": "1d",
	"1y":  "1wk",
	"2y":  "1mo",
	"5y":  "1mo",
	"10y": "1mo",
	"max": "1mo",
}

// IntervalForPeriod returns the sampling interval for a period; unknown periods sample daily
func IntervalForPeriod(period string) string {
	if interval, ok := periodIntervals[period]; ok {
		return interval
	}
	return defaultGraphInterval
}

// GraphService reshapes provider price history into graph points
type GraphService struct {
	provider       MarketDataProvider
	serviceMetrics *shared.ServiceMetrics
}

// NewGraphService creates a graph service over the provider
func NewGraphService(provider MarketDataProvider, metrics *shared.ServiceMetrics) *GraphService {
	if metrics == nil {
		metrics = shared.NewServiceMetrics(graphServiceName)
	}
	return &GraphService{
		provider:       provider,
		serviceMetrics: metrics,
	}
}

// GetGraphData returns one point per history row. Failures yield an empty list.
func (s *GraphService) GetGraphData(ctx context.Context, indexCode, period string) []models.PricePoint {
	startTime := time.Now()
	logger := logrus.WithFields(logrus.Fields{
		"component": "GraphService",
		"method":    "GetGraphData",
		"code":      indexCode,
		"period":    period,
	})

	bars, err := s.fetchHistory(ctx, indexCode, period)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		logger.WithError(err).Error("Failed to fetch graph history")
		return []models.PricePoint{}
	}

	s.serviceMetrics.RecordRequest(true, time.Since(startTime))
	logger.WithField("points", len(bars)).Debug("Fetched graph history")
	return PricePointsFromBars(bars)
}

// RenderGraph draws the non-missing closes of the series as a PNG line chart
func (s *GraphService) RenderGraph(ctx context.Context, indexCode, period string) ([]byte, error) {
	bars, err := s.fetchHistory(ctx, indexCode, period)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryProvider, "GRAPH_HISTORY_FAILED", graphServiceName, "RenderGraph")
	}

	xValues := make([]time.Time, 0, len(bars))
	yValues := make([]float64, 0, len(bars))
	for _, bar := range bars {
		if math.IsNaN(bar.Close) {
			continue
		}
		xValues = append(xValues, bar.Time)
		yValues = append(yValues, bar.Close)
	}

	if len(xValues) < 2 {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, "INSUFFICIENT_POINTS",
			fmt.Sprintf("need at least 2 data points, got %d", len(xValues)), graphServiceName, "RenderGraph", nil)
	}

	timeFormat := "Jan 02"
	if IntervalForPeriod(period) == "1h" {
		timeFormat = "Jan 02 15:04"
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s (%s)", ProviderSymbol(indexCode), period),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format(timeFormat)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "Close",
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("2563eb"),
					StrokeWidth: 2,
				},
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryProcessing, "CHART_RENDER_FAILED",
			"chart render failed", graphServiceName, "RenderGraph", err)
	}
	return buf.Bytes(), nil
}

func (s *GraphService) fetchHistory(ctx context.Context, indexCode, period string) ([]models.PriceBar, error) {
	return s.provider.GetHistory(ctx, ProviderSymbol(indexCode), period, IntervalForPeriod(period))
}

// PricePointsFromBars formats bar times in their own location and rounds closes to 2 decimals.
// NaN closes become nil prices.
func PricePointsFromBars(bars []models.PriceBar) []models.PricePoint {
	points := make([]models.PricePoint, 0, len(bars))
	for _, bar := range bars {
		point := models.PricePoint{Time: bar.Time.Format(graphTimeLayout)}
		if !math.IsNaN(bar.Close) {
			price := round2(bar.Close)
			point.Price = &price
		}
		points = append(points, point)
	}
	return points
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
