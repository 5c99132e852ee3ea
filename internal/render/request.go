package render

import (
	"github.com/google/uuid"

	"dialoguereel/internal/dialogue"
)

// Kind identifies an element type understood by composition backends
type Kind string

const (
	KindBackgroundVideo Kind = "background_video"
	KindOverlayImage    Kind = "overlay_image"
	KindCaptionText     Kind = "caption_text"
	KindVoiceAudio      Kind = "voice_audio"
	KindBackgroundAudio Kind = "background_audio"
)

// Element is one backend instruction. Times are in seconds.
type Element struct {
	Kind     Kind               `json:"kind"`
	Layer    int                `json:"layer"`
	Start    float64            `json:"start"`
	Duration float64            `json:"duration"`
	Source   string             `json:"source,omitempty"`
	Speaker  dialogue.SpeakerID `json:"speaker,omitempty"`
	Position *Position          `json:"position,omitempty"`
	Width    int                `json:"width,omitempty"`
	Lines    []string           `json:"lines,omitempty"`
	Style    *CaptionStyle      `json:"style,omitempty"`
	Volume   float64            `json:"volume,omitempty"`
}

// End returns Start + Duration in seconds
func (e Element) End() float64 {
	return e.Start + e.Duration
}

// Request is the full element list handed to a composition backend
type Request struct {
	ID       string    `json:"id"`
	Canvas   Canvas    `json:"canvas"`
	Duration float64   `json:"duration"`
	Elements []Element `json:"elements"`
}

// NewRequestID returns a random request identifier
func NewRequestID() string {
	return uuid.NewString()
}

// ByKind returns the elements of one kind in request order
func (r *Request) ByKind(kind Kind) []Element {
	var out []Element
	for _, e := range r.Elements {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
