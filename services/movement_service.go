package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/fenilmodi00/index-pulse-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	movementServiceName = "Movement_Service"

	// MovementLookbackSamples is the distance, in one-minute samples, between the old and current price
	MovementLookbackSamples = 61

	significantMoveThreshold = 0.2
	strongMoveThreshold      = 2.0

	movementHistoryPeriod   = "1d"
	movementHistoryInterval = "1m"

	// NoMajorChangeMessage is returned when no index moved significantly
	NoMajorChangeMessage = "😐 No major change in the market over the past hour."
)

// MovementTier classifies a significant hour-over-hour change
type MovementTier string

const (
	TierSkyrocketing     MovementTier = "skyrocketing"
	TierTrendingUp       MovementTier = "trending up"
	TierCrashing         MovementTier = "crashing"
	TierDroppingSlightly MovementTier = "dropping slightly"
)

// Movement outcome statuses
const (
	MovementStatusRecorded = "recorded"
	MovementStatusSkipped  = "skipped"
	MovementStatusFailed   = "failed"
)

// SnapshotSource provides the current index table
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) ([]models.IndexSnapshot, error)
}

// HistorySource provides recent price history for a symbol
type HistorySource interface {
	GetHistory(ctx context.Context, symbol, period, interval string) ([]models.PriceBar, error)
}

// MovementOutcome records what happened to one snapshot row
type MovementOutcome struct {
	Index    string           `json:"index"`
	Symbol   string           `json:"symbol"`
	Status   string           `json:"status"`
	Reason   string           `json:"reason,omitempty"`
	Movement *models.Movement `json:"movement,omitempty"`
}

// MovementReport is the result of one comparison run
type MovementReport struct {
	GeneratedAt time.Time
	Movements   []models.Movement
	Outcomes    []MovementOutcome
	Err         error
}

// Payload returns the response body: the movements, or a single status message when
// the snapshot failed or nothing moved significantly.
func (r *MovementReport) Payload() interface{} {
	if r.Err != nil {
		return []models.StatusMessage{{Message: fmt.Sprintf("Error occurred: %v", r.Err)}}
	}
	if len(r.Movements) == 0 {
		return []models.StatusMessage{{Message: NoMajorChangeMessage}}
	}
	return r.Movements
}

// MovementService compares each index's latest price with its price an hour earlier
type MovementService struct {
	snapshots      SnapshotSource
	history        HistorySource
	serviceMetrics *shared.ServiceMetrics
}

// NewMovementService creates a movement service
func NewMovementService(snapshots SnapshotSource, history HistorySource, metrics *shared.ServiceMetrics) *MovementService {
	if metrics == nil {
		metrics = shared.NewServiceMetrics(movementServiceName)
	}
	return &MovementService{
		snapshots:      snapshots,
		history:        history,
		serviceMetrics: metrics,
	}
}

// CompareWithPreviousHour evaluates every row of the current snapshot in table order
func (s *MovementService) CompareWithPreviousHour(ctx context.Context) *MovementReport {
	startTime := time.Now()
	logger := logrus.WithFields(logrus.Fields{
		"component": "MovementService",
		"method":    "CompareWithPreviousHour",
	})

	report := &MovementReport{
		GeneratedAt: startTime,
		Movements:   make([]models.Movement, 0),
		Outcomes:    make([]MovementOutcome, 0),
	}

	rows, err := s.snapshots.FetchSnapshot(ctx)
	if err != nil {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		logger.WithError(err).Error("Failed to fetch index snapshot")
		report.Err = err
		return report
	}

	for _, row := range rows {
		outcome := s.evaluateRow(ctx, row)
		report.Outcomes = append(report.Outcomes, outcome)
		s.serviceMetrics.IncrementCustomCounter("rows_" + outcome.Status)

		switch outcome.Status {
		case MovementStatusRecorded:
			report.Movements = append(report.Movements, *outcome.Movement)
			logger.WithFields(logrus.Fields{
				"index":          outcome.Index,
				"percent_change": outcome.Movement.PercentChange,
			}).Info(outcome.Movement.Message)
		case MovementStatusFailed:
			logger.WithFields(logrus.Fields{
				"index":  outcome.Index,
				"symbol": outcome.Symbol,
				"reason": outcome.Reason,
			}).Warn("Skipping index after failure")
		default:
			logger.WithFields(logrus.Fields{
				"index":  outcome.Index,
				"reason": outcome.Reason,
			}).Debug("Index skipped")
		}
	}

	s.serviceMetrics.RecordRequest(true, time.Since(startTime))
	logger.WithFields(logrus.Fields{
		"rows":            len(rows),
		"movements":       len(report.Movements),
		"processing_time": time.Since(startTime),
	}).Info("Hourly comparison completed")

	return report
}

func (s *MovementService) evaluateRow(ctx context.Context, row models.IndexSnapshot) MovementOutcome {
	outcome := MovementOutcome{Index: row.Index}

	fields := strings.Fields(row.Index)
	if len(fields) == 0 {
		outcome.Status = MovementStatusFailed
		outcome.Reason = "index name is empty"
		return outcome
	}
	outcome.Symbol = fields[0]

	bars, err := s.history.GetHistory(ctx, outcome.Symbol, movementHistoryPeriod, movementHistoryInterval)
	if err != nil {
		outcome.Status = MovementStatusFailed
		outcome.Reason = err.Error()
		return outcome
	}

	closes := make([]float64, 0, len(bars))
	for _, bar := range bars {
		if !math.IsNaN(bar.Close) {
			closes = append(closes, bar.Close)
		}
	}
	if len(closes) < MovementLookbackSamples {
		outcome.Status = MovementStatusSkipped
		outcome.Reason = fmt.Sprintf("insufficient history: %d samples", len(closes))
		return outcome
	}

	oldPrice := closes[len(closes)-MovementLookbackSamples]
	currentPrice := closes[len(closes)-1]
	if oldPrice == 0 {
		outcome.Status = MovementStatusFailed
		outcome.Reason = "price an hour ago is zero"
		return outcome
	}

	movement, significant := BuildMovement(row.Index, oldPrice, currentPrice)
	if !significant {
		outcome.Status = MovementStatusSkipped
		outcome.Reason = fmt.Sprintf("change of %.2f%% is below threshold", movement.PercentChange)
		return outcome
	}

	outcome.Status = MovementStatusRecorded
	outcome.Movement = &movement
	return outcome
}

// BuildMovement computes the change between two prices and reports whether it is significant.
// Prices and percentage are rounded to 2 decimals; the message uses the unrounded percentage.
func BuildMovement(indexName string, oldPrice, currentPrice float64) (models.Movement, bool) {
	pct := PercentChange(oldPrice, currentPrice)
	movement := models.Movement{
		Index:         indexName,
		OldPrice:      round2(oldPrice),
		CurrentPrice:  round2(currentPrice),
		PercentChange: round2(pct),
	}

	tier, significant := ClassifyMovement(pct)
	if !significant {
		return movement, false
	}
	movement.Message = MovementMessage(indexName, tier, pct)
	return movement, true
}

// PercentChange returns (current - old) / old * 100
func PercentChange(oldPrice, currentPrice float64) float64 {
	return (currentPrice - oldPrice) / oldPrice * 100
}

// ClassifyMovement returns the tier of a percentage change, or false when |pct| < 0.2.
// Tiers are checked in order: > 2, > 0.2, < -2, otherwise dropping slightly.
func ClassifyMovement(pct float64) (MovementTier, bool) {
	if math.Abs(pct) < significantMoveThreshold {
		return "", false
	}

	switch {
	case pct > strongMoveThreshold:
		return TierSkyrocketing, true
	case pct > significantMoveThreshold:
		return TierTrendingUp, true
	case pct < -strongMoveThreshold:
		return TierCrashing, true
	default:
		return TierDroppingSlightly, true
	}
}

// MovementMessage renders the human readable message for a tier
func MovementMessage(indexName string, tier MovementTier, pct float64) string {
	switch tier {
	case TierSkyrocketing:
		return fmt.Sprintf("🚀 %s is skyrocketing right now! (+%.2f%%)", indexName, pct)
	case TierTrendingUp:
		return fmt.Sprintf("🔼 %s is trending up (+%.2f%%)", indexName, pct)
	case TierCrashing:
		return fmt.Sprintf("💥 %s is crashing fast! (%.2f%%)", indexName, pct)
	default:
		return fmt.Sprintf("🔻 %s is dropping slightly (%.2f%%)", indexName, pct)
	}
}
