package handlers

import (
	"context"

	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/fenilmodi00/index-pulse-backend/services"
	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context) ([]models.IndexSnapshot, error)
}

type NewsFetcher interface {
	GetNews(ctx context.Context, indexCode string) services.NewsResult
}

type StatsFetcher interface {
	GetStats(ctx context.Context, indexCode string) (map[string]interface{}, error)
}

type GraphBuilder interface {
	GetGraphData(ctx context.Context, indexCode, period string) []models.PricePoint
	RenderGraph(ctx context.Context, indexCode, period string) ([]byte, error)
}

type MovementComparer interface {
	CompareWithPreviousHour(ctx context.Context) *services.MovementReport
}

type MarketHandler struct {
	Snapshots SnapshotFetcher
	News      NewsFetcher
	Stats     StatsFetcher
	Graph     GraphBuilder
	Movements MovementComparer
}

func NewMarketHandler(snapshots SnapshotFetcher, news NewsFetcher, stats StatsFetcher, graph GraphBuilder, movements MovementComparer) *MarketHandler {
	return &MarketHandler{
		Snapshots: snapshots,
		News:      news,
		Stats:     stats,
		Graph:     graph,
		Movements: movements,
	}
}

// GetIndices returns the current active indices table
func (h *MarketHandler) GetIndices(c *fiber.Ctx) error {
	rows, err := h.Snapshots.FetchSnapshot(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return successResponse(c, rows)
}

// GetNews returns recent articles for stock_code
func (h *MarketHandler) GetNews(c *fiber.Ctx) error {
	code := c.Query("stock_code")
	if code == "" {
		return missingParameter(c, "stock_code")
	}
	result := h.News.GetNews(c.Context(), code)
	return successResponse(c, result.Articles)
}

// GetStats returns the provider statistics for stock_code
func (h *MarketHandler) GetStats(c *fiber.Ctx) error {
	code := c.Query("stock_code")
	if code == "" {
		return missingParameter(c, "stock_code")
	}
	info, err := h.Stats.GetStats(c.Context(), code)
	if err != nil {
		return errorResponse(c, err)
	}
	return successResponse(c, info)
}

// GetGraph returns the price series for stock_code over time_period
func (h *MarketHandler) GetGraph(c *fiber.Ctx) error {
	code, period, missing := graphParameters(c)
	if missing != "" {
		return missingParameter(c, missing)
	}
	return successResponse(c, h.Graph.GetGraphData(c.Context(), code, period))
}

// GetGraphImage renders the price series for stock_code over time_period as PNG
func (h *MarketHandler) GetGraphImage(c *fiber.Ctx) error {
	code, period, missing := graphParameters(c)
	if missing != "" {
		return missingParameter(c, missing)
	}
	image, err := h.Graph.RenderGraph(c.Context(), code, period)
	if err != nil {
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(image)
}

// CompareHour returns the significant hour-over-hour movements
func (h *MarketHandler) CompareHour(c *fiber.Ctx) error {
	report := h.Movements.CompareWithPreviousHour(c.Context())
	return successResponse(c, report.Payload())
}

// graphParameters returns the name of the first missing parameter, or "" when both are present
func graphParameters(c *fiber.Ctx) (code, period, missing string) {
	code = c.Query("stock_code")
	if code == "" {
		return "", "", "stock_code"
	}
	period = c.Query("time_period")
	if period == "" {
		return "", "", "time_period"
	}
	return code, period, ""
}

func missingParameter(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":  "error",
		"message": "missing required query parameter: " + name,
	})
}

func successResponse(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"status":  "error",
		"message": err.Error(),
	})
}

func statusForError(err error) int {
	switch shared.CategoryOf(err) {
	case shared.ErrorCategoryValidation:
		return fiber.StatusBadRequest
	case shared.ErrorCategoryNetwork, shared.ErrorCategoryProvider, shared.ErrorCategoryTimeout:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
