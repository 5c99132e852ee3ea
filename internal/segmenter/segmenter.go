package segmenter

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"dialoguereel/internal/audio"
	"dialoguereel/internal/dialogue"
	"dialoguereel/internal/transcript"
)

// Default quality bounds for a training utterance
const (
	DefaultMinDuration = 1 * time.Second
	DefaultMaxDuration = 10 * time.Second
)

// Result holds the accepted units in record order and the number of records
// dropped by the quality gate
type Result struct {
	Units    []audio.Unit
	Rejected int
}

// Segmenter cuts utterance records out of a source track
type Segmenter struct {
	MinDuration time.Duration
	MaxDuration time.Duration
	MaxWorkers  int
	logger      *zap.Logger
}

// NewSegmenter creates a Segmenter with default bounds
func NewSegmenter() *Segmenter {
	return NewSegmenterWithLogger(DefaultMinDuration, DefaultMaxDuration, 0, nil)
}

// NewSegmenterWithLogger creates a Segmenter with explicit bounds. A worker
// count of zero or less means one worker per CPU.
func NewSegmenterWithLogger(minDuration, maxDuration time.Duration, workers int, logger *zap.Logger) *Segmenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmenter{
		MinDuration: minDuration,
		MaxDuration: maxDuration,
		MaxWorkers:  workers,
		logger:      logger,
	}
}

type outcome struct {
	unit     audio.Unit
	accepted bool
}

// Segment slices every record from source. Records whose clip falls outside
// [MinDuration, MaxDuration] or outside the track are counted as rejected.
// An invalid record aborts the whole call before any slicing happens.
func (s *Segmenter) Segment(ctx context.Context, source *audio.Track, records []transcript.UtteranceRecord, episode string) (Result, error) {
	if source == nil {
		return Result{}, fmt.Errorf("source track cannot be nil")
	}
	if s.MinDuration > s.MaxDuration {
		return Result{}, fmt.Errorf("min duration %v exceeds max duration %v", s.MinDuration, s.MaxDuration)
	}
	for i, record := range records {
		if err := record.Validate(); err != nil {
			return Result{}, dialogue.NewValidationError(fmt.Sprintf("utterance record %d", i+1), "%v", err)
		}
	}

	mapper := iter.Mapper[transcript.UtteranceRecord, outcome]{MaxGoroutines: s.MaxWorkers}
	outcomes := mapper.Map(records, func(record *transcript.UtteranceRecord) outcome {
		if ctx.Err() != nil {
			return outcome{}
		}
		return s.cut(source, *record, episode)
	})
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("segmentation cancelled: %w", err)
	}

	result := Result{Units: make([]audio.Unit, 0, len(outcomes))}
	for _, o := range outcomes {
		if !o.accepted {
			result.Rejected++
			continue
		}
		result.Units = append(result.Units, o.unit)
	}

	s.logger.Info("Segmentation completed",
		zap.String("episode", episode),
		zap.Int("records", len(records)),
		zap.Int("accepted", len(result.Units)),
		zap.Int("rejected", result.Rejected))

	return result, nil
}

func (s *Segmenter) cut(source *audio.Track, record transcript.UtteranceRecord, episode string) outcome {
	rate := source.Format().SampleRate
	from := audio.SampleIndex(record.SourceStart, rate)
	to := audio.SampleIndex(record.SourceEnd, rate)
	if to > source.Len() {
		to = source.Len()
	}
	if from >= to {
		s.logger.Debug("Record outside source track",
			zap.Int("line", record.Line),
			zap.Duration("start", record.SourceStart),
			zap.Duration("track_duration", source.Duration()))
		return outcome{}
	}

	duration := rate.D(to - from)
	if duration < s.MinDuration || duration > s.MaxDuration {
		s.logger.Debug("Record rejected by duration bounds",
			zap.Int("line", record.Line),
			zap.String("speaker", record.Speaker.String()),
			zap.Duration("duration", duration))
		return outcome{}
	}

	clip, err := source.Slice(from, to)
	if err != nil {
		s.logger.Warn("Failed to slice record", zap.Int("line", record.Line), zap.Error(err))
		return outcome{}
	}

	return outcome{
		accepted: true,
		unit: audio.Unit{
			Speaker:     record.Speaker,
			Text:        record.Text,
			Clip:        clip,
			Episode:     episode,
			SourceStart: record.SourceStart,
			SourceEnd:   record.SourceEnd,
		},
	}
}
