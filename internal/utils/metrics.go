package utils

import (
	"sync"
	"time"
)

// Tracks performance and synchronization metrics across the engine.
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	cacheHits          uint64
	cacheMisses        uint64
	rollbacks          uint64
	inFlightRejections uint64

	// Maps operation name to list of latencies in nanoseconds
	operationTimes map[string][]int64

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operationTimes:  make(map[string][]int64),
		systemStartTime: time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.requestCount++
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errorCount++
}

// RecordCacheHit counts a thread-tree or load-scheduler cache hit.
func (mc *MetricsCollector) RecordCacheHit() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.cacheHits++
}

func (mc *MetricsCollector) RecordCacheMiss() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.cacheMisses++
}

// RecordRollback counts an optimistic mutation that had to be reverted.
func (mc *MetricsCollector) RecordRollback() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.rollbacks++
}

// RecordInFlightRejection counts a duplicate toggle dropped by the guard.
func (mc *MetricsCollector) RecordInFlightRejection() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.inFlightRejections++
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.operationTimes[operationName]; !exists {
		mc.operationTimes[operationName] = make([]int64, 0)
	}
	mc.operationTimes[operationName] = append(
		mc.operationTimes[operationName],
		duration.Nanoseconds(),
	)
}

// Snapshot is a point-in-time copy of the counters, reported on /health.
type MetricsSnapshot struct {
	Requests           uint64        `json:"requests"`
	Errors             uint64        `json:"errors"`
	CacheHits          uint64        `json:"cacheHits"`
	CacheMisses        uint64        `json:"cacheMisses"`
	Rollbacks          uint64        `json:"rollbacks"`
	InFlightRejections uint64        `json:"inFlightRejections"`
	Uptime             time.Duration `json:"uptimeNs"`
}

func (mc *MetricsCollector) Snapshot() MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return MetricsSnapshot{
		Requests:           mc.requestCount,
		Errors:             mc.errorCount,
		CacheHits:          mc.cacheHits,
		CacheMisses:        mc.cacheMisses,
		Rollbacks:          mc.rollbacks,
		InFlightRejections: mc.inFlightRejections,
		Uptime:             time.Since(mc.systemStartTime),
	}
}
