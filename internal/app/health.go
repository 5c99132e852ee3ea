package app

import (
	"sync"
	"time"

	"dialoguereel/internal/performance"
)

// JobHealth tracks corpus builds and renders handled by this process
type JobHealth struct {
	mu               sync.RWMutex
	startedAt        time.Time
	activeRenders    int
	completedRenders int64
	failedRenders    int64
	corpusBuilds     int64
	lastRenderTime   time.Time
	lastCorpusTime   time.Time
}

// HealthStatus is a point in time view of JobHealth
type HealthStatus struct {
	Status           string                       `json:"status"`
	Uptime           string                       `json:"uptime"`
	ActiveRenders    int                          `json:"active_renders"`
	CompletedRenders int64                        `json:"completed_renders"`
	FailedRenders    int64                        `json:"failed_renders"`
	CorpusBuilds     int64                        `json:"corpus_builds"`
	LastRender       *time.Time                   `json:"last_render,omitempty"`
	LastCorpusBuild  *time.Time                   `json:"last_corpus_build,omitempty"`
	Synthesis        performance.SynthesisMetrics `json:"synthesis"`
}

// NewJobHealth creates a tracker started now
func NewJobHealth() *JobHealth {
	return &JobHealth{startedAt: time.Now()}
}

func (h *JobHealth) renderStarted() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeRenders++
}

func (h *JobHealth) renderFinished(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeRenders--
	if err != nil {
		h.failedRenders++
		return
	}
	h.completedRenders++
	h.lastRenderTime = time.Now()
}

func (h *JobHealth) corpusBuilt() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.corpusBuilds++
	h.lastCorpusTime = time.Now()
}

// Snapshot returns the current counters. Status is degraded once renders
// have failed more often than they succeeded.
func (h *JobHealth) Snapshot() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		Status:           "healthy",
		Uptime:           time.Since(h.startedAt).Round(time.Second).String(),
		ActiveRenders:    h.activeRenders,
		CompletedRenders: h.completedRenders,
		FailedRenders:    h.failedRenders,
		CorpusBuilds:     h.corpusBuilds,
	}
	if h.failedRenders > h.completedRenders {
		status.Status = "degraded"
	}
	if !h.lastRenderTime.IsZero() {
		t := h.lastRenderTime
		status.LastRender = &t
	}
	if !h.lastCorpusTime.IsZero() {
		t := h.lastCorpusTime
		status.LastCorpusBuild = &t
	}
	return status
}
