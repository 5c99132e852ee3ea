package timeline

import (
	"time"

	"dialoguereel/internal/dialogue"
)

// Track is a lane of timeline elements sharing the global clock
type Track string

const (
	TrackBackground      Track = "background"
	TrackOverlay         Track = "overlay"
	TrackCaption         Track = "caption"
	TrackVoiceAudio      Track = "voice_audio"
	TrackBackgroundAudio Track = "background_audio"
)

// Element is one timed item of a plan. Speaker and LineIndex are set for
// per-line tracks; LineIndex is -1 on the background tracks.
type Element struct {
	Track     Track              `json:"track"`
	Start     time.Duration      `json:"start"`
	Duration  time.Duration      `json:"duration"`
	Speaker   dialogue.SpeakerID `json:"speaker,omitempty"`
	LineIndex int                `json:"line_index"`
	Text      string             `json:"text,omitempty"`
	Lines     []string           `json:"lines,omitempty"`
	Source    string             `json:"source,omitempty"`
	Volume    float64            `json:"volume,omitempty"`
}

// End returns Start + Duration
func (e Element) End() time.Duration {
	return e.Start + e.Duration
}

// VoiceClip is the measured audio for one dialogue line
type VoiceClip struct {
	Source   string        `json:"source"`
	Duration time.Duration `json:"duration"`
}

// Pair couples a dialogue line with its synthesized audio
type Pair struct {
	Line  dialogue.Line `json:"line"`
	Voice VoiceClip     `json:"voice"`
}
