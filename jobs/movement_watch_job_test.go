package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenilmodi00/index-pulse-backend/models"
	"github.com/fenilmodi00/index-pulse-backend/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubComparer struct {
	report *services.MovementReport
	calls  atomic.Int32
}

func (s *stubComparer) CompareWithPreviousHour(ctx context.Context) *services.MovementReport {
	s.calls.Add(1)
	return s.report
}

type stubPublisher struct {
	mutex     sync.Mutex
	runIDs    []string
	published [][]models.Movement
	err       error
}

func (s *stubPublisher) PublishMovements(ctx context.Context, runID string, generatedAt time.Time, movements []models.Movement) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.runIDs = append(s.runIDs, runID)
	s.published = append(s.published, movements)
	return s.err
}

func significantReport() *services.MovementReport {
	return &services.MovementReport{
		GeneratedAt: time.Now(),
		Movements: []models.Movement{
			{Index: "AXJO S&P/ASX 200", OldPrice: 100, CurrentPrice: 103, PercentChange: 3, Message: "🚀 AXJO S&P/ASX 200 is skyrocketing right now! (+3.00%)"},
		},
		Outcomes: []services.MovementOutcome{{Index: "AXJO S&P/ASX 200", Status: services.MovementStatusRecorded}},
	}
}

func TestMovementWatchJobPublishesMovements(t *testing.T) {
	publisher := &stubPublisher{}
	job := NewMovementWatchJob(&stubComparer{report: significantReport()}, publisher, time.Hour)

	run := job.Run(context.Background())

	_, err := uuid.Parse(run.RunID)
	require.NoError(t, err)
	assert.True(t, run.Published)
	assert.Empty(t, run.Error)
	assert.Equal(t, 1, run.Rows)
	assert.Equal(t, 1, run.Movements)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, run.RunID, publisher.runIDs[0])

	last, ok := job.LastRun()
	require.True(t, ok)
	assert.Equal(t, run.RunID, last.RunID)
}

func TestMovementWatchJobWithoutPublisher(t *testing.T) {
	job := NewMovementWatchJob(&stubComparer{report: significantReport()}, nil, time.Hour)

	_, ok := job.LastRun()
	assert.False(t, ok)

	run := job.Run(context.Background())

	assert.False(t, run.Published)
	assert.Empty(t, run.Error)
}

func TestMovementWatchJobSkipsPublishingWithoutMovements(t *testing.T) {
	publisher := &stubPublisher{}
	job := NewMovementWatchJob(&stubComparer{report: &services.MovementReport{}}, publisher, time.Hour)

	run := job.Run(context.Background())

	assert.False(t, run.Published)
	assert.Empty(t, publisher.published)
}

func TestMovementWatchJobRecordsFailures(t *testing.T) {
	publisher := &stubPublisher{}
	failing := NewMovementWatchJob(&stubComparer{report: &services.MovementReport{Err: errors.New("snapshot down")}}, publisher, time.Hour)

	run := failing.Run(context.Background())
	assert.Equal(t, "snapshot down", run.Error)
	assert.Empty(t, publisher.published)

	publisher.err = errors.New("broker unreachable")
	job := NewMovementWatchJob(&stubComparer{report: significantReport()}, publisher, time.Hour)

	run = job.Run(context.Background())
	assert.False(t, run.Published)
	assert.Equal(t, "broker unreachable", run.Error)
}

func TestMovementWatchJobStartRunsUntilCancelled(t *testing.T) {
	comparer := &stubComparer{report: &services.MovementReport{}}
	job := NewMovementWatchJob(comparer, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	job.Start(ctx)

	require.Eventually(t, func() bool { return comparer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	time.Sleep(30 * time.Millisecond)
	settled := comparer.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, comparer.calls.Load())
}

func TestMovementWatchJobStartIgnoresNonPositiveInterval(t *testing.T) {
	comparer := &stubComparer{report: &services.MovementReport{}}
	job := NewMovementWatchJob(comparer, nil, 0)

	job.Start(context.Background())
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(0), comparer.calls.Load())
}
