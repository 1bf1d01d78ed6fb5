package loadsched

import (
	"context"
	"log"
	"math/rand"
	"time"

	"collabiora-client/internal/session"
	"collabiora-client/internal/utils"
)

// Presentation selects which loading experience the UI shows.
type Presentation string

const (
	// Resolved fast enough that showing any loading UI would just flash.
	PresentationInstant Presentation = "instant"
	// A brief spinner for repeat cache misses.
	PresentationShortSpinner Presentation = "shortSpinner"
	// The staged first-load experience with progress messaging.
	PresentationMultiStage Presentation = "multiStage"
)

// Thresholds holds the latency classification parameters. Defaults follow
// production behavior; tests shrink them to keep runs fast.
type Thresholds struct {
	CacheHit      time.Duration // elapsed below this is a cache hit
	FirstMissMin  time.Duration // padded window for the session's first miss
	FirstMissMax  time.Duration
	RepeatMissMin time.Duration // padded window for later misses
	RepeatMissMax time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CacheHit:      300 * time.Millisecond,
		FirstMissMin:  1500 * time.Millisecond,
		FirstMissMax:  2000 * time.Millisecond,
		RepeatMissMin: 800 * time.Millisecond,
		RepeatMissMax: 1200 * time.Millisecond,
	}
}

// Task is the wrapped fetch. It must be the real work; the scheduler never
// delays the fetch itself, only the resolution.
type Task func(ctx context.Context) (any, error)

// Scheduler wraps an initial data fetch, classifies its latency as a cache
// hit or miss, and pads slow resolutions into a stable perceived window so
// the loading UI neither flashes nor stutters.
type Scheduler struct {
	thresholds Thresholds
	session    *session.Session
	metrics    *utils.MetricsCollector
}

func NewScheduler(thresholds Thresholds, sess *session.Session, metrics *utils.MetricsCollector) *Scheduler {
	return &Scheduler{
		thresholds: thresholds,
		session:    sess,
		metrics:    metrics,
	}
}

// Run executes the task, measures it, and resolves with the data plus the
// presentation the UI should use. Errors pass through unpadded; there is
// nothing to present over a failed load.
func (s *Scheduler) Run(ctx context.Context, operation string, task Task) (any, Presentation, error) {
	start := time.Now()

	data, err := task(ctx)
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.AddOperationLatency(operation, elapsed)
	}
	if err != nil {
		return nil, PresentationInstant, err
	}

	if elapsed < s.thresholds.CacheHit {
		if s.metrics != nil {
			s.metrics.RecordCacheHit()
		}
		// A hit still counts as the session's first successful load: the
		// multi-stage experience is reserved for a miss before anything has
		// rendered, not for the first slow load ever.
		s.session.MarkDashboardLoaded()
		return data, PresentationInstant, nil
	}

	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}

	presentation := PresentationShortSpinner
	minTotal, maxTotal := s.thresholds.RepeatMissMin, s.thresholds.RepeatMissMax
	if s.session.MarkDashboardLoaded() {
		presentation = PresentationMultiStage
		minTotal, maxTotal = s.thresholds.FirstMissMin, s.thresholds.FirstMissMax
	}

	target := minTotal
	if maxTotal > minTotal {
		target += time.Duration(rand.Int63n(int64(maxTotal - minTotal)))
	}

	if padding := target - elapsed; padding > 0 {
		log.Printf("loadsched: %s classified as miss (%.0fms), padding %.0fms for %s",
			operation, float64(elapsed.Milliseconds()), float64(padding.Milliseconds()), presentation)
		select {
		case <-time.After(padding):
		case <-ctx.Done():
			return nil, presentation, ctx.Err()
		}
	}

	return data, presentation, nil
}
