package handlers

import (
	"runtime"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type PerformanceHandler struct {
	Registry  *shared.MetricsRegistry
	StartedAt time.Time
}

func NewPerformanceHandler(registry *shared.MetricsRegistry) *PerformanceHandler {
	return &PerformanceHandler{
		Registry:  registry,
		StartedAt: time.Now(),
	}
}

// GetHealth reports liveness
func (h *PerformanceHandler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(h.StartedAt).String(),
	})
}

// GetPerformanceMetrics returns request metrics for every service plus runtime stats
func (h *PerformanceHandler) GetPerformanceMetrics(c *fiber.Ctx) error {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return successResponse(c, fiber.Map{
		"services": h.Registry.Snapshots(),
		"runtime": fiber.Map{
			"goroutines":     runtime.NumGoroutine(),
			"heap_alloc_mb":  float64(memStats.HeapAlloc) / 1024 / 1024,
			"num_gc":         memStats.NumGC,
			"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
		},
	})
}
