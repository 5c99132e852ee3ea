package performance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dialoguereel/internal/dialogue"
	"dialoguereel/internal/synth"
)

// SynthesisMetrics tracks speech synthesis performance
type SynthesisMetrics struct {
	TotalCalls         int64
	FailedCalls        int64
	TotalCharacters    int64
	TotalAudioDuration time.Duration
	TotalLatency       time.Duration
	AvgLatency         time.Duration
	MinLatency         time.Duration
	MaxLatency         time.Duration
	LastVoice          dialogue.SpeakerID
	LastLatency        time.Duration
	LastTimestamp      time.Time
}

// RealTimeFactor is latency divided by produced audio; below 1 is faster
// than real time
func (m SynthesisMetrics) RealTimeFactor() float64 {
	if m.TotalAudioDuration <= 0 {
		return 0
	}
	return m.TotalLatency.Seconds() / m.TotalAudioDuration.Seconds()
}

// SynthesisTimer tracks timing for one synthesis call
type SynthesisTimer struct {
	StartTime  time.Time
	Voice      dialogue.SpeakerID
	Characters int
	Latency    time.Duration
}

// SynthesisMonitor aggregates synthesis metrics
type SynthesisMonitor struct {
	logger    *zap.Logger
	metrics   SynthesisMetrics
	mu        sync.RWMutex
	benchmark bool
}

// NewSynthesisMonitor creates a new synthesis monitor
func NewSynthesisMonitor(logger *zap.Logger) *SynthesisMonitor {
	return NewSynthesisMonitorWithBenchmark(logger, false)
}

// NewSynthesisMonitorWithBenchmark creates a monitor that logs every call when benchmark is set
func NewSynthesisMonitorWithBenchmark(logger *zap.Logger, benchmark bool) *SynthesisMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SynthesisMonitor{
		logger: logger,
		metrics: SynthesisMetrics{
			MinLatency:    time.Hour,
			LastTimestamp: time.Now(),
		},
		benchmark: benchmark,
	}
}

// StartSynthesis begins timing a synthesis call
func (sm *SynthesisMonitor) StartSynthesis(voice dialogue.SpeakerID, text string) *SynthesisTimer {
	return &SynthesisTimer{
		StartTime:  time.Now(),
		Voice:      voice,
		Characters: len([]rune(text)),
	}
}

// EndSynthesis completes timing; audio is the produced duration, zero on failure
func (sm *SynthesisMonitor) EndSynthesis(timer *SynthesisTimer, audio time.Duration, err error) {
	timer.Latency = time.Since(timer.StartTime)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.metrics.TotalCalls++
	sm.metrics.TotalCharacters += int64(timer.Characters)
	sm.metrics.TotalLatency += timer.Latency
	sm.metrics.LastLatency = timer.Latency
	sm.metrics.LastVoice = timer.Voice
	sm.metrics.LastTimestamp = time.Now()
	if err != nil {
		sm.metrics.FailedCalls++
	} else {
		sm.metrics.TotalAudioDuration += audio
	}

	if timer.Latency < sm.metrics.MinLatency {
		sm.metrics.MinLatency = timer.Latency
	}
	if timer.Latency > sm.metrics.MaxLatency {
		sm.metrics.MaxLatency = timer.Latency
	}
	sm.metrics.AvgLatency = time.Duration(int64(sm.metrics.TotalLatency) / sm.metrics.TotalCalls)

	if sm.benchmark {
		sm.logger.Info("synthesis performance",
			zap.String("voice", timer.Voice.String()),
			zap.Int("characters", timer.Characters),
			zap.Duration("latency", timer.Latency),
			zap.Duration("audio", audio),
			zap.Bool("failed", err != nil))
	}
}

// GetMetrics returns a copy of current metrics
func (sm *SynthesisMonitor) GetMetrics() SynthesisMetrics {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.metrics
}

// GetPerformanceSummary returns a formatted summary of synthesis metrics
func (sm *SynthesisMonitor) GetPerformanceSummary() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.metrics.TotalCalls == 0 {
		return "No synthesis metrics available"
	}

	return fmt.Sprintf(
		"Synthesis Summary:\n"+
			"  Total Calls: %d (%d failed)\n"+
			"  Avg Latency: %v\n"+
			"  Min/Max Latency: %v / %v\n"+
			"  Audio Produced: %v\n"+
			"  Real-time Factor: %.2f\n",
		sm.metrics.TotalCalls,
		sm.metrics.FailedCalls,
		sm.metrics.AvgLatency,
		sm.metrics.MinLatency,
		sm.metrics.MaxLatency,
		sm.metrics.TotalAudioDuration,
		sm.metrics.RealTimeFactor(),
	)
}

// ResetMetrics clears all accumulated metrics
func (sm *SynthesisMonitor) ResetMetrics() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.metrics = SynthesisMetrics{
		MinLatency:    time.Hour,
		LastTimestamp: time.Now(),
	}

	sm.logger.Info("synthesis metrics reset")
}

// BenchmarkMode enables or disables per-call logging
func (sm *SynthesisMonitor) BenchmarkMode(enabled bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.benchmark = enabled
	sm.logger.Info("benchmark mode", zap.Bool("enabled", enabled))
}

// LogCurrentMetrics logs the current synthesis metrics
func (sm *SynthesisMonitor) LogCurrentMetrics() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Info("current synthesis metrics",
		zap.Int64("total_calls", sm.metrics.TotalCalls),
		zap.Int64("failed_calls", sm.metrics.FailedCalls),
		zap.Duration("avg_latency", sm.metrics.AvgLatency),
		zap.Duration("audio_produced", sm.metrics.TotalAudioDuration),
		zap.Float64("real_time_factor", sm.metrics.RealTimeFactor()),
	)
}

// MonitoredSynthesizer records every call of the wrapped synthesizer
type MonitoredSynthesizer struct {
	next    synth.Synthesizer
	monitor *SynthesisMonitor
}

var _ synth.Synthesizer = (*MonitoredSynthesizer)(nil)

// NewMonitoredSynthesizer wraps next
func NewMonitoredSynthesizer(next synth.Synthesizer, monitor *SynthesisMonitor) *MonitoredSynthesizer {
	return &MonitoredSynthesizer{next: next, monitor: monitor}
}

// Synthesize delegates to the wrapped synthesizer and records the call
func (m *MonitoredSynthesizer) Synthesize(ctx context.Context, text string, voice dialogue.SpeakerID) (*synth.Speech, error) {
	timer := m.monitor.StartSynthesis(voice, text)
	speech, err := m.next.Synthesize(ctx, text, voice)

	var produced time.Duration
	if speech != nil {
		produced = speech.Duration
	}
	m.monitor.EndSynthesis(timer, produced, err)
	return speech, err
}
