package shared

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceMetrics tracks performance and success metrics for services
type ServiceMetrics struct {
	serviceName         string
	totalRequests       int64
	successfulRequests  int64
	failedRequests      int64
	totalProcessingTime time.Duration
	maxProcessingTime   time.Duration
	lastUpdated         time.Time
	customCounters      map[string]int64
	mutex               sync.RWMutex
}

// MetricsSnapshot is a point-in-time copy of ServiceMetrics
type MetricsSnapshot struct {
	ServiceName           string           `json:"service_name"`
	TotalRequests         int64            `json:"total_requests"`
	SuccessfulRequests    int64            `json:"successful_requests"`
	FailedRequests        int64            `json:"failed_requests"`
	SuccessRate           float64          `json:"success_rate"`
	AverageProcessingTime time.Duration    `json:"average_processing_time"`
	MaxProcessingTime     time.Duration    `json:"max_processing_time"`
	LastUpdated           time.Time        `json:"last_updated"`
	CustomCounters        map[string]int64 `json:"custom_counters"`
}

// NewServiceMetrics creates a new metrics tracker for a service
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		serviceName:    serviceName,
		lastUpdated:    time.Now(),
		customCounters: make(map[string]int64),
	}
}

// ServiceName returns the name the metrics were registered under
func (m *ServiceMetrics) ServiceName() string {
	return m.serviceName
}

// RecordRequest records a request with its success status and processing time
func (m *ServiceMetrics) RecordRequest(success bool, processingTime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.totalRequests++
	m.totalProcessingTime += processingTime
	if processingTime > m.maxProcessingTime {
		m.maxProcessingTime = processingTime
	}

	if success {
		m.successfulRequests++
	} else {
		m.failedRequests++
	}

	m.lastUpdated = time.Now()
}

// IncrementCustomCounter increments a named counter
func (m *ServiceMetrics) IncrementCustomCounter(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.customCounters[key]++
	m.lastUpdated = time.Now()
}

// GetSnapshot returns a thread-safe snapshot of current metrics
func (m *ServiceMetrics) GetSnapshot() MetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	counters := make(map[string]int64, len(m.customCounters))
	for k, v := range m.customCounters {
		counters[k] = v
	}

	snapshot := MetricsSnapshot{
		ServiceName:        m.serviceName,
		TotalRequests:      m.totalRequests,
		SuccessfulRequests: m.successfulRequests,
		FailedRequests:     m.failedRequests,
		MaxProcessingTime:  m.maxProcessingTime,
		LastUpdated:        m.lastUpdated,
		CustomCounters:     counters,
	}
	if m.totalRequests > 0 {
		snapshot.SuccessRate = float64(m.successfulRequests) / float64(m.totalRequests) * 100.0
		snapshot.AverageProcessingTime = time.Duration(int64(m.totalProcessingTime) / m.totalRequests)
	}
	return snapshot
}

// LogSummary logs a metrics summary
func (m *ServiceMetrics) LogSummary() {
	snapshot := m.GetSnapshot()

	logrus.WithFields(logrus.Fields{
		"service_name":            snapshot.ServiceName,
		"total_requests":          snapshot.TotalRequests,
		"successful_requests":     snapshot.SuccessfulRequests,
		"failed_requests":         snapshot.FailedRequests,
		"success_rate":            snapshot.SuccessRate,
		"average_processing_time": snapshot.AverageProcessingTime,
		"max_processing_time":     snapshot.MaxProcessingTime,
		"custom_counters":         snapshot.CustomCounters,
	}).Info("Service metrics summary")
}

// MetricsRegistry collects the metrics of every service for reporting
type MetricsRegistry struct {
	mutex   sync.RWMutex
	metrics map[string]*ServiceMetrics
}

// NewMetricsRegistry creates an empty registry
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{metrics: make(map[string]*ServiceMetrics)}
}

// Register returns the metrics for serviceName, creating them on first use
func (r *MetricsRegistry) Register(serviceName string) *ServiceMetrics {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, ok := r.metrics[serviceName]; ok {
		return existing
	}
	m := NewServiceMetrics(serviceName)
	r.metrics[serviceName] = m
	return m
}

// Snapshots returns the current snapshot of every registered service, sorted by name
func (r *MetricsRegistry) Snapshots() []MetricsSnapshot {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snapshots := make([]MetricsSnapshot, 0, len(r.metrics))
	for _, m := range r.metrics {
		snapshots = append(snapshots, m.GetSnapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].ServiceName < snapshots[j].ServiceName
	})
	return snapshots
}
