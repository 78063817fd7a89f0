package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/fenilmodi00/index-pulse-backend/services"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MovementComparer runs one hour-over-hour comparison
type MovementComparer interface {
	CompareWithPreviousHour(ctx context.Context) *services.MovementReport
}

// MovementPublisher delivers significant movements downstream
type MovementPublisher interface {
	PublishMovements(ctx context.Context, runID string, generatedAt time.Time, movements []models.Movement) error
}

// MovementWatchRun summarises one job run
type MovementWatchRun struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Rows      int           `json:"rows"`
	Movements int           `json:"movements"`
	Published bool          `json:"published"`
	Error     string        `json:"error,omitempty"`
}

type MovementWatchJob struct {
	Comparer  MovementComparer
	Publisher MovementPublisher
	Interval  time.Duration

	mutex   sync.RWMutex
	lastRun *MovementWatchRun
}

// NewMovementWatchJob creates the job. Publisher may be nil, in which case movements are only logged.
func NewMovementWatchJob(comparer MovementComparer, publisher MovementPublisher, interval time.Duration) *MovementWatchJob {
	return &MovementWatchJob{
		Comparer:  comparer,
		Publisher: publisher,
		Interval:  interval,
	}
}

// Start runs the job immediately and then on every tick until ctx is cancelled
func (j *MovementWatchJob) Start(ctx context.Context) {
	if j.Interval <= 0 {
		logrus.Warn("Movement Watch Job not started: interval must be positive")
		return
	}
	logrus.Infof("Starting Movement Watch Job (runs every %v)...", j.Interval)
	ticker := time.NewTicker(j.Interval)

	go func() {
		defer ticker.Stop()

		j.Run(ctx)

		for {
			select {
			case <-ctx.Done():
				logrus.Info("Movement Watch Job stopped")
				return
			case <-ticker.C:
				j.Run(ctx)
			}
		}
	}()
}

// Run performs one comparison and publishes the movements it finds
func (j *MovementWatchJob) Run(ctx context.Context) MovementWatchRun {
	run := MovementWatchRun{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := logrus.WithFields(logrus.Fields{
		"component": "MovementWatchJob",
		"run_id":    run.RunID,
	})
	logger.Info("Running Movement Watch Job...")

	report := j.Comparer.CompareWithPreviousHour(ctx)
	run.Rows = len(report.Outcomes)
	run.Movements = len(report.Movements)

	switch {
	case report.Err != nil:
		run.Error = report.Err.Error()
		logger.WithError(report.Err).Error("Movement Watch Job failed: snapshot unavailable")
	case len(report.Movements) == 0:
		logger.Info(services.NoMajorChangeMessage)
	default:
		for _, movement := range report.Movements {
			logger.WithField("index", movement.Index).Info(movement.Message)
		}
		if j.Publisher != nil {
			if err := j.Publisher.PublishMovements(ctx, run.RunID, report.GeneratedAt, report.Movements); err != nil {
				run.Error = err.Error()
				logger.WithError(err).Error("Movement Watch Job failed to publish movements")
			} else {
				run.Published = true
			}
		}
	}

	run.Duration = time.Since(run.StartedAt)
	logger.Infof("Movement Watch Job completed: %d rows, %d movements (took %v)", run.Rows, run.Movements, run.Duration)

	j.mutex.Lock()
	j.lastRun = &run
	j.mutex.Unlock()

	return run
}

// LastRun returns the most recent run, if any
func (j *MovementWatchJob) LastRun() (MovementWatchRun, bool) {
	j.mutex.RLock()
	defer j.mutex.RUnlock()

	if j.lastRun == nil {
		return MovementWatchRun{}, false
	}
	return *j.lastRun, true
}
