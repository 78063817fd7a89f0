package handlers

import (
	"context"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/jobs"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type MovementWatchRunner interface {
	Run(ctx context.Context) jobs.MovementWatchRun
	LastRun() (jobs.MovementWatchRun, bool)
}

type AdminHandler struct {
	WatchJob MovementWatchRunner
}

func NewAdminHandler(watchJob MovementWatchRunner) *AdminHandler {
	return &AdminHandler{WatchJob: watchJob}
}

// TriggerMovementWatch manually runs the movement watch job
func (h *AdminHandler) TriggerMovementWatch(c *fiber.Ctx) error {
	logrus.Info("Manual movement watch triggered via admin endpoint")

	run := h.WatchJob.Run(c.Context())
	if run.Error != "" {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"status":  "error",
			"message": run.Error,
			"data":    run,
		})
	}

	return c.JSON(fiber.Map{
		"status":    "success",
		"data":      run,
		"timestamp": time.Now(),
	})
}

// GetLastMovementWatch returns the summary of the most recent run
func (h *AdminHandler) GetLastMovementWatch(c *fiber.Ctx) error {
	run, ok := h.WatchJob.LastRun()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":  "error",
			"message": "movement watch has not run yet",
		})
	}
	return successResponse(c, run)
}
