package timeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"dialoguereel/internal/caption"
	"dialoguereel/internal/dialogue"
)

// DefaultBackgroundMixLevel attenuates background audio under the voices
const DefaultBackgroundMixLevel = 0.3

// Options configures caption wrapping and the background mix
type Options struct {
	CaptionFontSize    int
	CaptionMaxWidthPx  int
	BackgroundMixLevel float64
}

// DefaultOptions matches the default render configuration
func DefaultOptions() Options {
	return Options{
		CaptionFontSize:    60,
		CaptionMaxWidthPx:  1000,
		BackgroundMixLevel: DefaultBackgroundMixLevel,
	}
}

// Compositor derives a plan from measured voice durations. It keeps no
// state between calls.
type Compositor struct {
	options Options
	logger  *zap.Logger
}

// NewCompositor creates a Compositor
func NewCompositor(options Options) *Compositor {
	return NewCompositorWithLogger(options, nil)
}

// NewCompositorWithLogger creates a Compositor with logger
func NewCompositorWithLogger(options Options, logger *zap.Logger) *Compositor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compositor{options: options, logger: logger}
}

// Compose schedules the pairs back to back on a single cursor. Each line
// yields a voice, an overlay and a caption element sharing the same window;
// one background and one background audio element then cover [0, total).
// Every pair is checked before any element is produced, so a bad duration
// never yields a partial plan.
func (c *Compositor) Compose(pairs []Pair) (Plan, error) {
	for i, pair := range pairs {
		item := fmt.Sprintf("line index %d", i)
		if pair.Voice.Duration <= 0 {
			return Plan{}, dialogue.NewValidationError(item, "non-positive audio duration %v", pair.Voice.Duration)
		}
		if pair.Line.Speaker == "" {
			return Plan{}, dialogue.NewValidationError(item, "speaker cannot be empty")
		}
	}
	if len(pairs) == 0 {
		return Plan{}, nil
	}

	plan := Plan{Elements: make([]Element, 0, 3*len(pairs)+2)}
	var cursor time.Duration
	for i, pair := range pairs {
		start, duration := cursor, pair.Voice.Duration
		speaker := pair.Line.Speaker

		plan.Elements = append(plan.Elements,
			Element{
				Track:     TrackVoiceAudio,
				Start:     start,
				Duration:  duration,
				Speaker:   speaker,
				LineIndex: i,
				Source:    pair.Voice.Source,
				Volume:    1,
			},
			Element{
				Track:     TrackOverlay,
				Start:     start,
				Duration:  duration,
				Speaker:   speaker,
				LineIndex: i,
			},
			Element{
				Track:     TrackCaption,
				Start:     start,
				Duration:  duration,
				Speaker:   speaker,
				LineIndex: i,
				Text:      pair.Line.Text,
				Lines:     caption.Wrap(pair.Line.Text, c.options.CaptionFontSize, c.options.CaptionMaxWidthPx),
			},
		)
		cursor += duration
	}

	plan.Total = cursor
	plan.Elements = append(plan.Elements,
		Element{Track: TrackBackground, Start: 0, Duration: cursor, LineIndex: -1},
		Element{Track: TrackBackgroundAudio, Start: 0, Duration: cursor, LineIndex: -1, Volume: c.options.BackgroundMixLevel},
	)

	c.logger.Debug("Timeline composed",
		zap.Int("lines", len(pairs)),
		zap.Duration("total", plan.Total))

	return plan, nil
}
