package render

import (
	"fmt"

	"go.uber.org/zap"

	"dialoguereel/internal/dialogue"
	"dialoguereel/internal/timeline"
)

// Layers, bottom to top
const (
	LayerBackground = 0
	LayerOverlay    = 1
	LayerCaption    = 2
)

// Builder translates a timeline plan into a backend request. It performs no
// timing arithmetic: every start and duration is copied from the plan.
type Builder struct {
	config Config
	logger *zap.Logger
}

// NewBuilder creates a Builder
func NewBuilder(config Config) *Builder {
	return NewBuilderWithLogger(config, nil)
}

// NewBuilderWithLogger creates a Builder with logger
func NewBuilderWithLogger(config Config, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{config: config, logger: logger}
}

// Build converts plan into a Request. A speaker without a configured style
// is a ValidationError.
func (b *Builder) Build(plan timeline.Plan) (*Request, error) {
	req := &Request{
		ID:       NewRequestID(),
		Canvas:   b.config.Canvas,
		Duration: plan.Total.Seconds(),
		Elements: make([]Element, 0, len(plan.Elements)),
	}

	for _, e := range plan.Elements {
		element := Element{
			Start:    e.Start.Seconds(),
			Duration: e.Duration.Seconds(),
			Speaker:  e.Speaker,
		}

		switch e.Track {
		case timeline.TrackBackground:
			element.Kind = KindBackgroundVideo
			element.Layer = LayerBackground
			element.Source = b.config.Background.Source
		case timeline.TrackBackgroundAudio:
			element.Kind = KindBackgroundAudio
			element.Source = b.config.Background.Source
			element.Volume = e.Volume
		case timeline.TrackVoiceAudio:
			element.Kind = KindVoiceAudio
			element.Source = e.Source
			element.Volume = e.Volume
		case timeline.TrackOverlay:
			style, err := b.speakerStyle(e)
			if err != nil {
				return nil, err
			}
			position := style.Position
			element.Kind = KindOverlayImage
			element.Layer = LayerOverlay
			element.Source = style.Image
			element.Position = &position
			element.Width = style.DisplayWidth
		case timeline.TrackCaption:
			if _, err := b.speakerStyle(e); err != nil {
				return nil, err
			}
			style := b.config.Caption
			element.Kind = KindCaptionText
			element.Layer = LayerCaption
			element.Lines = append([]string(nil), e.Lines...)
			element.Style = &style
		default:
			return nil, fmt.Errorf("unknown timeline track %q", e.Track)
		}

		req.Elements = append(req.Elements, element)
	}

	b.logger.Debug("Render request built",
		zap.String("request_id", req.ID),
		zap.Int("elements", len(req.Elements)),
		zap.Float64("duration", req.Duration))

	return req, nil
}

func (b *Builder) speakerStyle(e timeline.Element) (SpeakerStyle, error) {
	style, ok := b.config.Speakers[e.Speaker]
	if !ok {
		return SpeakerStyle{}, dialogue.NewValidationError(
			fmt.Sprintf("line index %d", e.LineIndex), "no render style for speaker %q", e.Speaker)
	}
	return style, nil
}
