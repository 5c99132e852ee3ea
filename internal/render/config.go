package render

import (
	"fmt"

	"dialoguereel/internal/dialogue"
)

// Position places an element on the canvas. Each axis is a keyword
// (left, center, right, top, bottom) or an integer pixel offset.
type Position struct {
	X string `json:"x" yaml:"x"`
	Y string `json:"y" yaml:"y"`
}

// SpeakerStyle describes how a speaker's overlay is shown
type SpeakerStyle struct {
	Image        string   `json:"image" yaml:"image"`
	Position     Position `json:"position" yaml:"position"`
	DisplayWidth int      `json:"display_width" yaml:"display_width"`
	Voice        string   `json:"voice,omitempty" yaml:"voice"`
}

// CaptionStyle describes caption text rendering
type CaptionStyle struct {
	FontSize    int      `json:"font_size" yaml:"font_size"`
	FontFile    string   `json:"font_file,omitempty" yaml:"font_file"`
	Color       string   `json:"color" yaml:"color"`
	StrokeColor string   `json:"stroke_color" yaml:"stroke_color"`
	StrokeWidth int      `json:"stroke_width" yaml:"stroke_width"`
	MaxWidthPx  int      `json:"max_width_px" yaml:"max_width_px"`
	Position    Position `json:"position" yaml:"position"`
}

// BackgroundStyle names the backdrop footage and its audio mix level
type BackgroundStyle struct {
	Source   string  `json:"source" yaml:"source"`
	MixLevel float64 `json:"mix_level" yaml:"mix_level"`
}

// Canvas is the output frame
type Canvas struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	FPS    int `json:"fps" yaml:"fps"`
}

// Config is the static render configuration
type Config struct {
	Canvas     Canvas                              `json:"canvas" yaml:"canvas"`
	Speakers   map[dialogue.SpeakerID]SpeakerStyle `json:"speakers" yaml:"speakers"`
	Caption    CaptionStyle                        `json:"caption" yaml:"caption"`
	Background BackgroundStyle                     `json:"background" yaml:"background"`
}

// DefaultConfig returns a vertical 1080x1920 layout with no speakers
func DefaultConfig() Config {
	return Config{
		Canvas:   Canvas{Width: 1080, Height: 1920, FPS: 30},
		Speakers: map[dialogue.SpeakerID]SpeakerStyle{},
		Caption: CaptionStyle{
			FontSize:    60,
			Color:       "white",
			StrokeColor: "black",
			StrokeWidth: 3,
			MaxWidthPx:  1000,
			Position:    Position{X: "center", Y: "top"},
		},
		Background: BackgroundStyle{MixLevel: 0.3},
	}
}

// Validate checks the configuration is usable for rendering
func (c Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.FPS <= 0 {
		return fmt.Errorf("canvas fps must be positive, got %d", c.Canvas.FPS)
	}
	if c.Caption.FontSize <= 0 {
		return fmt.Errorf("caption font size must be positive, got %d", c.Caption.FontSize)
	}
	if c.Caption.MaxWidthPx <= 0 {
		return fmt.Errorf("caption max width must be positive, got %d", c.Caption.MaxWidthPx)
	}
	if c.Background.MixLevel < 0 || c.Background.MixLevel > 1 {
		return fmt.Errorf("background mix level must be between 0 and 1, got %v", c.Background.MixLevel)
	}
	for speaker, style := range c.Speakers {
		if style.DisplayWidth < 0 {
			return fmt.Errorf("speaker %s display width cannot be negative", speaker)
		}
	}
	return nil
}
